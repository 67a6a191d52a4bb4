package keypad

import (
	"fmt"
	"slices"

	"github.com/nerrad567/gray-logic-keypad/internal/infrastructure/logging"
)

// Side selects which of the two colour frames a colour is computed for.
type Side uint8

// Frame sides.
const (
	SidePressed Side = iota
	SideReleased
)

func (s Side) String() string {
	if s == SidePressed {
		return "pressed"
	}
	return "released"
}

// Phase is the half of the blink cycle a key is in.
type Phase uint8

// Blink phases. A new key starts in PhaseOn.
const (
	PhaseOn Phase = iota
	PhaseOff
)

func (p Phase) String() string {
	if p == PhaseOn {
		return "on"
	}
	return "off"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts "on" and "off".
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "on":
		*p = PhaseOn
	case "off":
		*p = PhaseOff
	default:
		return fmt.Errorf("keypad: unknown blink phase %q", text)
	}
	return nil
}

func (p Phase) next() Phase {
	if p == PhaseOn {
		return PhaseOff
	}
	return PhaseOn
}

// KeyState is the runtime state of one key.
//
// KeyState is not safe for concurrent use; the owning Controller
// serialises all access.
type KeyState struct {
	pressed           bool
	blinking          bool
	blinkingAlternate bool
	phase             Phase

	// shown is the phase the last encoded frame displayed; valid while
	// advanced is set.
	shown    Phase
	advanced bool

	colorPressed     Color
	colorReleased    Color
	colorAlternative Color

	onPress   []Action
	onRelease []Action
}

// NewKeyState returns a released, non-blinking key in PhaseOn.
func NewKeyState(pressed, released, alternative Color, onPress, onRelease []Action) KeyState {
	return KeyState{
		colorPressed:     pressed,
		colorReleased:    released,
		colorAlternative: alternative,
		onPress:          slices.Clone(onPress),
		onRelease:        slices.Clone(onRelease),
	}
}

// OnPress marks the key pressed and runs the on-press actions in order.
// A failing action is logged and does not stop the remaining ones.
func (k *KeyState) OnPress(pub Publisher, logger *logging.Logger) {
	k.pressed = true
	k.run(slices.Clone(k.onPress), pub, logger, "press")
}

// OnRelease marks the key released and runs the on-release actions in order.
func (k *KeyState) OnRelease(pub Publisher, logger *logging.Logger) {
	k.pressed = false
	k.run(slices.Clone(k.onRelease), pub, logger, "release")
}

func (k *KeyState) run(actions []Action, pub Publisher, logger *logging.Logger, trigger string) {
	for i, a := range actions {
		if err := Execute(a, k, pub); err != nil {
			logger.Warn("key action failed",
				"trigger", trigger,
				"action", a.Kind.String(),
				"position", i,
				"error", err,
			)
		}
	}
}

// ToggleBlink flips the blinking flag. The phase is left alone.
func (k *KeyState) ToggleBlink() {
	k.blinking = !k.blinking
}

// ToggleBlinkAlternate flips the alternate-colour blinking flag.
func (k *KeyState) ToggleBlinkAlternate() {
	k.blinkingAlternate = !k.blinkingAlternate
}

// CurrentColorFor returns the colour the key shows on the given side.
//
// For a blinking key the result depends on the phase and the phase
// advances on every call. Non-blinking keys are not modified.
func (k *KeyState) CurrentColorFor(side Side) Color {
	if !k.isBlinking() {
		return k.staticColor(side)
	}
	c := k.blinkColor(k.phase, side)
	k.advance()
	return c
}

// FrameColors returns the colours for both frames, advancing the blink
// phase at most once.
func (k *KeyState) FrameColors() (pressed, released Color) {
	return k.frameColors(true)
}

// frameColors without advance repeats the phase of the last advancing
// call, so an out-of-cycle frame matches what the previous tick showed.
func (k *KeyState) frameColors(advance bool) (pressed, released Color) {
	phase := k.phase
	if !advance && k.advanced {
		phase = k.shown
	}
	pressed, released = k.blinkColor(phase, SidePressed), k.blinkColor(phase, SideReleased)
	if advance {
		if k.isBlinking() {
			k.advance()
		} else {
			k.advanced = false
		}
	}
	return pressed, released
}

func (k *KeyState) advance() {
	k.shown, k.advanced = k.phase, true
	k.phase = k.phase.next()
}

func (k *KeyState) isBlinking() bool {
	return k.blinking || k.blinkingAlternate
}

func (k *KeyState) staticColor(side Side) Color {
	if side == SidePressed {
		return k.colorPressed
	}
	return k.colorReleased
}

// blinkColor resolves the colour for side at phase without changing
// state. The plain blink flag wins over the alternate one.
func (k *KeyState) blinkColor(phase Phase, side Side) Color {
	switch {
	case k.blinking:
		if phase == PhaseOn {
			return k.colorPressed
		}
		return k.colorReleased
	case k.blinkingAlternate:
		if phase == PhaseOn {
			return k.colorAlternative
		}
		return k.staticColor(side)
	default:
		return k.staticColor(side)
	}
}

// Pressed reports whether the key is held down.
func (k *KeyState) Pressed() bool { return k.pressed }

// Blinking reports whether the key blinks between its pressed and released colours.
func (k *KeyState) Blinking() bool { return k.blinking }

// BlinkingAlternate reports whether the key blinks its alternative colour.
func (k *KeyState) BlinkingAlternate() bool { return k.blinkingAlternate }

// Phase returns the phase the next advancing frame will show.
func (k *KeyState) Phase() Phase { return k.phase }

// ColorPressed returns the configured pressed colour.
func (k *KeyState) ColorPressed() Color { return k.colorPressed }

// ColorReleased returns the configured released colour.
func (k *KeyState) ColorReleased() Color { return k.colorReleased }

// ColorAlternative returns the configured alternative colour.
func (k *KeyState) ColorAlternative() Color { return k.colorAlternative }

// OnPressActions returns a copy of the on-press action list.
func (k *KeyState) OnPressActions() []Action { return slices.Clone(k.onPress) }

// OnReleaseActions returns a copy of the on-release action list.
func (k *KeyState) OnReleaseActions() []Action { return slices.Clone(k.onRelease) }
