package keypad

import (
	"context"
	"time"
)

// KeyEventKind names what happened to a key.
type KeyEventKind string

// Key event kinds.
const (
	KeyEventPress   KeyEventKind = "press"
	KeyEventRelease KeyEventKind = "release"
	KeyEventControl KeyEventKind = "control"
)

// KeyEvent is a dispatched key event handed to Recorders.
type KeyEvent struct {
	Index  int          `json:"index"`
	Row    int          `json:"row"`
	Column int          `json:"column"`
	Kind   KeyEventKind `json:"kind"`
	Detail string       `json:"detail,omitempty"`
	At     time.Time    `json:"at"`
}

// Recorder persists key events. Errors are logged by the Controller and
// never affect key handling.
type Recorder interface {
	RecordKeyEvent(ctx context.Context, ev KeyEvent) error
}

func newKeyEvent(index int, kind KeyEventKind, detail string) KeyEvent {
	row, col, _ := Position(index)
	return KeyEvent{
		Index:  index,
		Row:    row,
		Column: col,
		Kind:   kind,
		Detail: detail,
		At:     time.Now().UTC(),
	}
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, ev KeyEvent) error

// RecordKeyEvent calls f(ctx, ev).
func (f RecorderFunc) RecordKeyEvent(ctx context.Context, ev KeyEvent) error {
	return f(ctx, ev)
}
