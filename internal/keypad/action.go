package keypad

import (
	"fmt"

	"github.com/nerrad567/gray-logic-keypad/internal/infrastructure/config"
)

// ActionKind identifies one of the actions a key can run.
type ActionKind uint8

// Action kinds.
const (
	ActionToggleBlink ActionKind = iota + 1
	ActionToggleBlinkAlternate
	ActionPublishMessage
)

func (k ActionKind) String() string {
	switch k {
	case ActionToggleBlink:
		return "ToggleBlink"
	case ActionToggleBlinkAlternate:
		return "ToggleBlinkAlternate"
	case ActionPublishMessage:
		return "PublishMessage"
	default:
		return fmt.Sprintf("ActionKind(%d)", uint8(k))
	}
}

// Action is an effect run when a key is pressed or released.
// Topic and Payload are only used by ActionPublishMessage.
type Action struct {
	Kind    ActionKind
	Topic   string
	Payload string
}

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(topic string, payload []byte) error

// Publish calls f(topic, payload).
func (f PublisherFunc) Publish(topic string, payload []byte) error {
	return f(topic, payload)
}

// ActionFromConfig converts a configured action record.
func ActionFromConfig(cfg config.ActionConfig) (Action, error) {
	switch cfg.Type {
	case config.ActionToggleBlinking:
		return Action{Kind: ActionToggleBlink}, nil
	case config.ActionToggleBlinkingAlternativeColor:
		return Action{Kind: ActionToggleBlinkAlternate}, nil
	case config.ActionPublish:
		if cfg.Topic == "" {
			return Action{}, fmt.Errorf("%s action requires a topic", config.ActionPublish)
		}
		return Action{Kind: ActionPublishMessage, Topic: cfg.Topic, Payload: cfg.Payload}, nil
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, cfg.Type)
	}
}

func actionsFromConfig(cfgs []config.ActionConfig) ([]Action, error) {
	actions := make([]Action, 0, len(cfgs))
	for i, cfg := range cfgs {
		a, err := ActionFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// Execute runs a against key, publishing through pub when needed.
func Execute(a Action, key *KeyState, pub Publisher) error {
	switch a.Kind {
	case ActionToggleBlink:
		key.ToggleBlink()
		return nil
	case ActionToggleBlinkAlternate:
		key.ToggleBlinkAlternate()
		return nil
	case ActionPublishMessage:
		if err := pub.Publish(a.Topic, []byte(a.Payload)); err != nil {
			return fmt.Errorf("publishing to %s: %w", a.Topic, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, a.Kind)
	}
}
