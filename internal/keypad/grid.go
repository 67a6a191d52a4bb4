package keypad

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-keypad/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-keypad/internal/infrastructure/logging"
)

// Grid geometry.
const (
	Rows     = config.KeypadRows
	Columns  = config.KeypadColumns
	KeyCount = config.KeypadKeys
)

// Grid is the 5x5 array of keys plus the sink its actions and frames are
// published through.
type Grid struct {
	keys [Rows][Columns]KeyState

	pub           Publisher
	pressedTopic  string
	releasedTopic string
	logger        *logging.Logger
}

// GridOptions holds the collaborators of a Grid.
type GridOptions struct {
	Publisher     Publisher
	PressedTopic  string
	ReleasedTopic string
	Logger        *logging.Logger
}

// NewGrid builds a grid from the keypad configuration. Every one of the
// 25 pad records must be present and valid.
func NewGrid(cfg config.KeypadConfig, opts GridOptions) (*Grid, error) {
	if opts.Publisher == nil {
		return nil, errors.New("keypad: publisher is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("keypad: logger is required")
	}

	g := &Grid{
		pub:           opts.Publisher,
		pressedTopic:  opts.PressedTopic,
		releasedTopic: opts.ReleasedTopic,
		logger:        opts.Logger,
	}

	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			pad, ok := cfg.Pad(row, col)
			if !ok {
				return nil, fmt.Errorf("keypad: %s is missing", config.PadKey(row, col))
			}
			key, err := keyFromConfig(pad)
			if err != nil {
				return nil, fmt.Errorf("keypad: %s: %w", config.PadKey(row, col), err)
			}
			g.keys[row][col] = key
		}
	}

	return g, nil
}

func keyFromConfig(pad config.PadConfig) (KeyState, error) {
	pressed, err := ColorFromConfig(pad.Pressed)
	if err != nil {
		return KeyState{}, fmt.Errorf("pressed: %w", err)
	}
	released, err := ColorFromConfig(pad.Released)
	if err != nil {
		return KeyState{}, fmt.Errorf("released: %w", err)
	}
	alternative, err := ColorFromConfig(pad.Alternative)
	if err != nil {
		return KeyState{}, fmt.Errorf("alternative: %w", err)
	}
	onPress, err := actionsFromConfig(pad.OnPress)
	if err != nil {
		return KeyState{}, fmt.Errorf("on_press: %w", err)
	}
	onRelease, err := actionsFromConfig(pad.OnRelease)
	if err != nil {
		return KeyState{}, fmt.Errorf("on_release: %w", err)
	}
	return NewKeyState(pressed, released, alternative, onPress, onRelease), nil
}

// Position maps a linear key index to its row and column.
func Position(index int) (row, column int, ok bool) {
	if index < 0 || index >= KeyCount {
		return 0, 0, false
	}
	return index / Columns, index % Columns, true
}

// Key returns the key at a linear index.
func (g *Grid) Key(index int) (*KeyState, error) {
	row, col, ok := Position(index)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrKeyOutOfRange, index)
	}
	return &g.keys[row][col], nil
}

// DispatchPress runs the press handler of the key at index.
// An out-of-range index is logged and reported as false.
func (g *Grid) DispatchPress(index int) bool {
	key, ok := g.lookup(index, "press")
	if !ok {
		return false
	}
	key.OnPress(g.pub, g.logger.With("key", index))
	return true
}

// DispatchRelease runs the release handler of the key at index.
func (g *Grid) DispatchRelease(index int) bool {
	key, ok := g.lookup(index, "release")
	if !ok {
		return false
	}
	key.OnRelease(g.pub, g.logger.With("key", index))
	return true
}

// DispatchControl applies control actions to the key at index. The key's
// configured on-press and on-release actions are not run.
func (g *Grid) DispatchControl(index int, actions []ControlAction) bool {
	key, ok := g.lookup(index, "control")
	if !ok {
		return false
	}
	for _, a := range actions {
		switch a {
		case ControlToggleBlinking:
			key.ToggleBlink()
		case ControlToggleBlinkingAlternative:
			key.ToggleBlinkAlternate()
		}
	}
	return true
}

func (g *Grid) lookup(index int, what string) (*KeyState, bool) {
	key, err := g.Key(index)
	if err != nil {
		g.logger.Warn("ignoring event for unknown key", "event", what, "key", index)
		return nil, false
	}
	return key, true
}
