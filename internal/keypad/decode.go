package keypad

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// EventKind distinguishes a physical press from a release.
type EventKind uint8

// Event kinds.
const (
	EventPress EventKind = iota
	EventRelease
)

func (k EventKind) String() string {
	if k == EventPress {
		return "press"
	}
	return "release"
}

// Event is a decoded physical key event.
type Event struct {
	Index int
	Kind  EventKind
}

// DecodeEvent parses a physical event payload.
//
// The payload is a decimal number, surrounding whitespace allowed. Its
// magnitude truncated to an integer is the key index; a negative sign
// (including -0) marks a release.
func DecodeEvent(payload []byte) (Event, error) {
	if !utf8.Valid(payload) {
		return Event{}, fmt.Errorf("%w: not UTF-8", ErrInvalidEvent)
	}
	text := strings.TrimSpace(string(payload))
	x, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidEvent, text)
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Event{}, fmt.Errorf("%w: %q is not finite", ErrInvalidEvent, text)
	}

	kind := EventPress
	if math.Signbit(x) {
		kind = EventRelease
	}
	magnitude := math.Trunc(math.Abs(x))
	if magnitude > math.MaxInt32 {
		return Event{}, fmt.Errorf("%w: %q is too large", ErrInvalidEvent, text)
	}

	return Event{Index: int(magnitude), Kind: kind}, nil
}

// ControlAction is a command carried by a control packet.
type ControlAction string

// Control actions.
const (
	ControlToggleBlinking            ControlAction = "ToggleBlinking"
	ControlToggleBlinkingAlternative ControlAction = "ToggleBlinkingAlternativeColor"
)

// UnmarshalText rejects any name outside the known set.
func (a *ControlAction) UnmarshalText(text []byte) error {
	switch v := ControlAction(text); v {
	case ControlToggleBlinking, ControlToggleBlinkingAlternative:
		*a = v
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, text)
	}
}

// ControlPacket is the JSON body of a control message:
//
//	{"actions": ["ToggleBlinking", "ToggleBlinkingAlternativeColor"]}
type ControlPacket struct {
	Actions []ControlAction `json:"actions"`
}

// ParseControlPacket decodes a control payload.
func ParseControlPacket(payload []byte) (ControlPacket, error) {
	var pkt ControlPacket
	if err := json.Unmarshal(payload, &pkt); err != nil {
		return ControlPacket{}, fmt.Errorf("%w: %w", ErrInvalidControl, err)
	}
	return pkt, nil
}

// DecodeControl extracts the key index from the last segment of topic and
// decodes the packet in payload.
func DecodeControl(topic string, payload []byte) (int, []ControlAction, error) {
	slash := strings.LastIndexByte(topic, '/')
	if slash < 0 {
		return 0, nil, fmt.Errorf("%w: topic %q has no path segments", ErrInvalidControl, topic)
	}
	segment := topic[slash+1:]
	if segment == "" {
		return 0, nil, fmt.Errorf("%w: topic %q has no key segment", ErrInvalidControl, topic)
	}
	index, err := strconv.ParseUint(segment, 10, 31)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: topic %q: key %q is not an index", ErrInvalidControl, topic, segment)
	}

	pkt, err := ParseControlPacket(payload)
	if err != nil {
		return 0, nil, err
	}

	return int(index), pkt.Actions, nil
}
