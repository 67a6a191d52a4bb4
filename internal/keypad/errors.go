package keypad

import "errors"

// Sentinel errors for keypad operations.
var (
	// ErrKeyOutOfRange is returned for a key index outside 0..24.
	ErrKeyOutOfRange = errors.New("keypad: key index out of range")

	// ErrInvalidEvent is returned when a physical event payload cannot be decoded.
	ErrInvalidEvent = errors.New("keypad: invalid event payload")

	// ErrInvalidControl is returned when a control topic or payload cannot be decoded.
	ErrInvalidControl = errors.New("keypad: invalid control packet")

	// ErrUnknownAction is returned for an action kind or type name outside the known set.
	ErrUnknownAction = errors.New("keypad: unknown action")

	// ErrInvalidColor is returned for a colour that is not an RGB byte triple.
	ErrInvalidColor = errors.New("keypad: invalid colour")
)
