package keypad

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-keypad/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-keypad/internal/infrastructure/mqtt"
)

// ControllerOptions holds the collaborators of a Controller.
type ControllerOptions struct {
	Grid     *Grid
	Interval time.Duration

	// Events carries physical key events, Controls carries per-key control
	// packets and Announces carries device announcements. Any may be nil.
	Events    <-chan mqtt.Message
	Controls  <-chan mqtt.Message
	Announces <-chan mqtt.Message

	// AnnouncePrefix selects which announce payloads trigger a republish.
	// An empty prefix matches every payload.
	AnnouncePrefix string

	// PublishOnTickOnly suppresses the immediate publish after a press or release.
	PublishOnTickOnly bool

	Recorders []Recorder

	// OnFrame, if set, is called with a fresh snapshot after every publish.
	OnFrame func(Snapshot)

	Logger *logging.Logger
}

// Controller owns a Grid and drives it from its event sources and the
// refresh ticker.
type Controller struct {
	grid     *Grid
	interval time.Duration

	events    <-chan mqtt.Message
	controls  <-chan mqtt.Message
	announces <-chan mqtt.Message

	announcePrefix    []byte
	publishOnTickOnly bool

	recorders []Recorder
	onFrame   func(Snapshot)
	logger    *logging.Logger

	requests chan controlRequest
	frames   uint64
	snapshot atomic.Pointer[Snapshot]
}

type controlRequest struct {
	index   int
	actions []ControlAction
}

// NewController validates opts and returns an idle Controller.
func NewController(opts ControllerOptions) (*Controller, error) {
	if opts.Grid == nil {
		return nil, errors.New("keypad: grid is required")
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("keypad: interval must be positive, got %v", opts.Interval)
	}
	if opts.Logger == nil {
		return nil, errors.New("keypad: logger is required")
	}

	c := &Controller{
		grid:              opts.Grid,
		interval:          opts.Interval,
		events:            opts.Events,
		controls:          opts.Controls,
		announces:         opts.Announces,
		announcePrefix:    []byte(opts.AnnouncePrefix),
		publishOnTickOnly: opts.PublishOnTickOnly,
		recorders:         opts.Recorders,
		onFrame:           opts.OnFrame,
		logger:            opts.Logger,
		requests:          make(chan controlRequest),
	}
	c.storeSnapshot()
	return c, nil
}

// Run publishes the initial frames and then services events until ctx is
// cancelled. Errors from individual events are logged and never stop the loop.
func (c *Controller) Run(ctx context.Context) {
	c.logger.Info("keypad controller started", "interval", c.interval)
	defer c.logger.Info("keypad controller stopped", "frames", c.frames)

	c.publish(true)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	events, controls, announces := c.events, c.controls, c.announces

	for {
		if ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			c.publish(true)

		case msg, ok := <-events:
			if !ok {
				c.logger.Warn("event source closed")
				events = nil
				continue
			}
			c.handleEvent(ctx, msg)

		case msg, ok := <-controls:
			if !ok {
				c.logger.Warn("control source closed")
				controls = nil
				continue
			}
			c.handleControl(ctx, msg)

		case msg, ok := <-announces:
			if !ok {
				c.logger.Warn("announce source closed")
				announces = nil
				continue
			}
			c.handleAnnounce(msg)

		case req := <-c.requests:
			c.applyControl(ctx, req.index, req.actions)
		}
	}
}

// Submit hands control actions for a key to the running loop. It returns
// once the loop has accepted the request or ctx is done.
func (c *Controller) Submit(ctx context.Context, index int, actions []ControlAction) error {
	if _, _, ok := Position(index); !ok {
		return fmt.Errorf("%w: %d", ErrKeyOutOfRange, index)
	}
	select {
	case c.requests <- controlRequest{index: index, actions: actions}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the latest published copy of the grid state.
// It is safe to call from any goroutine.
func (c *Controller) Snapshot() Snapshot {
	return *c.snapshot.Load()
}

func (c *Controller) handleEvent(ctx context.Context, msg mqtt.Message) {
	ev, err := DecodeEvent(msg.Payload)
	if err != nil {
		c.logger.Warn("dropping key event", "topic", msg.Topic, "error", err)
		return
	}

	var (
		ok   bool
		kind KeyEventKind
	)
	switch ev.Kind {
	case EventPress:
		ok, kind = c.grid.DispatchPress(ev.Index), KeyEventPress
	case EventRelease:
		ok, kind = c.grid.DispatchRelease(ev.Index), KeyEventRelease
	}
	if !ok {
		return
	}

	c.logger.Debug("key event", "key", ev.Index, "kind", kind)
	c.record(ctx, newKeyEvent(ev.Index, kind, ""))

	if c.publishOnTickOnly {
		c.storeSnapshot()
		return
	}
	c.publish(false)
}

func (c *Controller) handleControl(ctx context.Context, msg mqtt.Message) {
	index, actions, err := DecodeControl(msg.Topic, msg.Payload)
	if err != nil {
		c.logger.Warn("dropping control packet", "topic", msg.Topic, "error", err)
		return
	}
	c.applyControl(ctx, index, actions)
}

func (c *Controller) applyControl(ctx context.Context, index int, actions []ControlAction) {
	if !c.grid.DispatchControl(index, actions) {
		return
	}

	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	detail := strings.Join(names, ",")

	c.logger.Debug("key control", "key", index, "actions", detail)
	c.record(ctx, newKeyEvent(index, KeyEventControl, detail))
	c.storeSnapshot()
}

func (c *Controller) handleAnnounce(msg mqtt.Message) {
	if !bytes.HasPrefix(msg.Payload, c.announcePrefix) {
		return
	}
	c.logger.Info("keypad announced, republishing colours", "topic", msg.Topic)
	c.publish(false)
}

// publish sends both frames. Only the ticker advances blink phases.
func (c *Controller) publish(advance bool) {
	var err error
	if advance {
		err = c.grid.EncodeAndPublish()
	} else {
		err = c.grid.Republish()
	}
	if err != nil {
		c.logger.Error("publishing colour frames failed", "error", err)
	}
	c.frames++

	snap := c.storeSnapshot()
	if c.onFrame != nil {
		c.onFrame(snap)
	}
}

func (c *Controller) storeSnapshot() Snapshot {
	snap := c.grid.Snapshot()
	snap.Frames = c.frames
	snap.UpdatedAt = time.Now().UTC()
	c.snapshot.Store(&snap)
	return snap
}

func (c *Controller) record(ctx context.Context, ev KeyEvent) {
	for _, r := range c.recorders {
		if err := r.RecordKeyEvent(ctx, ev); err != nil {
			c.logger.Warn("recording key event failed", "key", ev.Index, "kind", ev.Kind, "error", err)
		}
	}
}
