package config

import (
	"encoding"
	"fmt"
	"sort"
	"time"
)

// Keypad geometry. The wire format only supports this size.
const (
	KeypadRows    = 5
	KeypadColumns = 5
	KeypadKeys    = KeypadRows * KeypadColumns
)

// Action type names accepted in on_press and on_release lists.
const (
	ActionToggleBlinking                 = "ToggleBlinking"
	ActionToggleBlinkingAlternativeColor = "ToggleBlinkingAlternativeColor"
	ActionPublish                        = "Publish"
)

// KeypadConfig contains the keypad topics, refresh interval and per-key records.
type KeypadConfig struct {
	// SubscribePrefix prefixes the event topic and both colour topics.
	SubscribePrefix string `yaml:"subscribe_prefix" toml:"subscribe_prefix"`

	// ControlPrefix prefixes the per-key control topics ({prefix}/key/{n}).
	ControlPrefix string `yaml:"control_prefix" toml:"control_prefix"`

	// Interval is the period of the colour refresh, which also paces blinking.
	Interval Duration `yaml:"interval" toml:"interval"`

	// PublishOnTickOnly disables the immediate colour publish after a
	// press or release; changes then show on the next tick.
	PublishOnTickOnly bool `yaml:"publish_on_tick_only" toml:"publish_on_tick_only"`

	// Announce configures the optional "device connected" topic.
	Announce AnnounceConfig `yaml:"announce" toml:"announce"`

	// Pads holds one record per key, keyed "pad_{row}_{column}".
	Pads map[string]PadConfig `yaml:"pads" toml:"pads"`
}

// AnnounceConfig describes the topic a keypad uses to announce itself.
// A message whose payload starts with Prefix triggers a full colour republish.
type AnnounceConfig struct {
	Topic  string `yaml:"topic" toml:"topic"`
	Prefix string `yaml:"prefix" toml:"prefix"`
}

// PadConfig is the configuration record of a single key.
type PadConfig struct {
	Released    []int          `yaml:"released" toml:"released"`
	Pressed     []int          `yaml:"pressed" toml:"pressed"`
	Alternative []int          `yaml:"alternative" toml:"alternative"`
	OnPress     []ActionConfig `yaml:"on_press" toml:"on_press"`
	OnRelease   []ActionConfig `yaml:"on_release" toml:"on_release"`
}

// ActionConfig is the configuration-level description of an action.
type ActionConfig struct {
	Type    string `yaml:"type" toml:"type"`
	Topic   string `yaml:"topic,omitempty" toml:"topic"`
	Payload string `yaml:"payload,omitempty" toml:"payload"`
}

// PadKey returns the configuration key of the pad at row, column.
func PadKey(row, column int) string {
	return fmt.Sprintf("pad_%d_%d", row, column)
}

// Pad returns the record for the pad at row, column.
func (k KeypadConfig) Pad(row, column int) (PadConfig, bool) {
	pad, ok := k.Pads[PadKey(row, column)]
	return pad, ok
}

func (k KeypadConfig) validate() []string {
	var errs []string

	if k.SubscribePrefix == "" {
		errs = append(errs, "keypad.subscribe_prefix is required")
	}
	if k.ControlPrefix == "" {
		errs = append(errs, "keypad.control_prefix is required")
	}
	if k.Interval <= 0 {
		errs = append(errs, "keypad.interval must be positive")
	}

	known := make(map[string]struct{}, KeypadKeys)
	for row := 0; row < KeypadRows; row++ {
		for col := 0; col < KeypadColumns; col++ {
			name := PadKey(row, col)
			known[name] = struct{}{}
			pad, ok := k.Pads[name]
			if !ok {
				errs = append(errs, fmt.Sprintf("keypad.pads.%s is missing", name))
				continue
			}
			errs = append(errs, pad.validate("keypad.pads."+name)...)
		}
	}

	var unknown []string
	for name := range k.Pads {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, fmt.Sprintf("keypad.pads.%s is not a key of a 5x5 keypad", name))
	}

	return errs
}

func (p PadConfig) validate(path string) []string {
	var errs []string

	for _, c := range []struct {
		name  string
		value []int
	}{
		{"released", p.Released},
		{"pressed", p.Pressed},
		{"alternative", p.Alternative},
	} {
		if err := ValidateColor(c.value); err != nil {
			errs = append(errs, fmt.Sprintf("%s.%s: %v", path, c.name, err))
		}
	}

	for i, a := range p.OnPress {
		if err := a.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("%s.on_press[%d]: %v", path, i, err))
		}
	}
	for i, a := range p.OnRelease {
		if err := a.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("%s.on_release[%d]: %v", path, i, err))
		}
	}

	return errs
}

// ValidateColor checks that v is an [r, g, b] triple of bytes.
func ValidateColor(v []int) error {
	if len(v) != 3 {
		return fmt.Errorf("colour must have 3 components, got %d", len(v))
	}
	for _, c := range v {
		if c < 0 || c > 255 {
			return fmt.Errorf("colour component %d out of range 0-255", c)
		}
	}
	return nil
}

// Validate checks the action type and its required fields.
func (a ActionConfig) Validate() error {
	switch a.Type {
	case ActionToggleBlinking, ActionToggleBlinkingAlternativeColor:
		return nil
	case ActionPublish:
		if a.Topic == "" {
			return fmt.Errorf("%s action requires a topic", ActionPublish)
		}
		return nil
	case "":
		return fmt.Errorf("action type is required")
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
}

// Duration is a time.Duration read from text such as "1s" or "250ms".
type Duration time.Duration

var (
	_ encoding.TextUnmarshaler = (*Duration)(nil)
	_ encoding.TextMarshaler   = (*Duration)(nil)
)

func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
