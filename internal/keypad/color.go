package keypad

import (
	"encoding"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-keypad/internal/infrastructure/config"
)

// Color is an RGB triple.
type Color struct {
	R, G, B uint8
}

var (
	_ encoding.TextMarshaler   = Color{}
	_ encoding.TextUnmarshaler = (*Color)(nil)
)

// ColorFromConfig converts a configured [r, g, b] list.
func ColorFromConfig(v []int) (Color, error) {
	if err := config.ValidateColor(v); err != nil {
		return Color{}, fmt.Errorf("%w: %w", ErrInvalidColor, err)
	}
	return Color{R: uint8(v[0]), G: uint8(v[1]), B: uint8(v[2])}, nil
}

// Bytes returns the colour in wire order.
func (c Color) Bytes() [3]byte {
	return [3]byte{c.R, c.G, c.B}
}

// String returns the colour as "#rrggbb".
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(string(text), "#")
	if len(s) != 6 {
		return fmt.Errorf("%w: %q is not #rrggbb", ErrInvalidColor, text)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidColor, text, err)
	}
	*c = Color{R: b[0], G: b[1], B: b[2]}
	return nil
}
