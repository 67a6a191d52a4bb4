package keypad

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Frame layout.
const (
	FrameHeaderSize = 4
	FrameSize       = FrameHeaderSize + 3*KeyCount
)

// Frame is one encoded colour frame.
type Frame [FrameSize]byte

var frameHeader = [FrameHeaderSize]byte{0x00, 0x00, 0x00, KeyCount}

// Color returns the colour stored for the key at index.
func (f *Frame) Color(index int) Color {
	off := FrameHeaderSize + 3*index
	return Color{R: f[off], G: f[off+1], B: f[off+2]}
}

func (f *Frame) set(index int, c Color) {
	off := FrameHeaderSize + 3*index
	f[off], f[off+1], f[off+2] = c.R, c.G, c.B
}

// Encode renders the pressed and released frames and advances the blink
// phase of every blinking key by one step.
func (g *Grid) Encode() (pressed, released Frame) {
	return g.encode(true)
}

// Render returns the frames without advancing any blink phase. Keys that
// were blinking at the last Encode show the same phase again, so a render
// between two ticks repeats the last tick instead of running ahead.
func (g *Grid) Render() (pressed, released Frame) {
	return g.encode(false)
}

func (g *Grid) encode(advance bool) (pressed, released Frame) {
	copy(pressed[:], frameHeader[:])
	copy(released[:], frameHeader[:])

	for i := 0; i < KeyCount; i++ {
		key := &g.keys[i/Columns][i%Columns]
		p, r := key.frameColors(advance)
		pressed.set(i, p)
		released.set(i, r)
	}
	return pressed, released
}

// EncodeAndPublish encodes both frames, advancing blink phases, and
// publishes them. Both publishes are attempted; their errors are joined.
func (g *Grid) EncodeAndPublish() error {
	pressed, released := g.Encode()
	return g.publishFrames(&pressed, &released)
}

// Republish publishes the frames from Render, for changes between ticks.
func (g *Grid) Republish() error {
	pressed, released := g.Render()
	return g.publishFrames(&pressed, &released)
}

func (g *Grid) publishFrames(pressed, released *Frame) error {
	var (
		eg   errgroup.Group
		errs [2]error
	)
	eg.Go(func() error {
		if err := g.pub.Publish(g.pressedTopic, pressed[:]); err != nil {
			errs[0] = fmt.Errorf("publishing pressed colours to %s: %w", g.pressedTopic, err)
		}
		return errs[0]
	})
	eg.Go(func() error {
		if err := g.pub.Publish(g.releasedTopic, released[:]); err != nil {
			errs[1] = fmt.Errorf("publishing released colours to %s: %w", g.releasedTopic, err)
		}
		return errs[1]
	})
	if err := eg.Wait(); err != nil {
		return errors.Join(errs[0], errs[1])
	}
	return nil
}
