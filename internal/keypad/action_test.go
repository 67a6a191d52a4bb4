package keypad

import (
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-keypad/internal/infrastructure/config"
)

func TestActionFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ActionConfig
		want    Action
		wantErr error
	}{
		{
			name: "toggle blinking",
			cfg:  config.ActionConfig{Type: "ToggleBlinking"},
			want: Action{Kind: ActionToggleBlink},
		},
		{
			name: "toggle alternative",
			cfg:  config.ActionConfig{Type: "ToggleBlinkingAlternativeColor"},
			want: Action{Kind: ActionToggleBlinkAlternate},
		},
		{
			name: "publish",
			cfg:  config.ActionConfig{Type: "Publish", Topic: "lights/1", Payload: "on"},
			want: Action{Kind: ActionPublishMessage, Topic: "lights/1", Payload: "on"},
		},
		{
			name: "publish empty payload",
			cfg:  config.ActionConfig{Type: "Publish", Topic: "lights/1"},
			want: Action{Kind: ActionPublishMessage, Topic: "lights/1"},
		},
		{
			name:    "unknown type",
			cfg:     config.ActionConfig{Type: "Explode"},
			wantErr: ErrUnknownAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ActionFromConfig(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ActionFromConfig() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ActionFromConfig() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ActionFromConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}

	if _, err := ActionFromConfig(config.ActionConfig{Type: "Publish"}); err == nil {
		t.Error("ActionFromConfig(Publish without topic) should fail")
	}
}

func TestExecute(t *testing.T) {
	t.Run("toggle blink", func(t *testing.T) {
		key := NewKeyState(Color{}, Color{}, Color{}, nil, nil)
		if err := Execute(Action{Kind: ActionToggleBlink}, &key, newMockPublisher()); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if !key.Blinking() {
			t.Error("key should be blinking")
		}
		if key.BlinkingAlternate() {
			t.Error("alternate flag should be untouched")
		}
	})

	t.Run("toggle alternate", func(t *testing.T) {
		key := NewKeyState(Color{}, Color{}, Color{}, nil, nil)
		if err := Execute(Action{Kind: ActionToggleBlinkAlternate}, &key, newMockPublisher()); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if !key.BlinkingAlternate() || key.Blinking() {
			t.Errorf("flags = (%v, %v), want (false, true)", key.Blinking(), key.BlinkingAlternate())
		}
	})

	t.Run("publish", func(t *testing.T) {
		pub := newMockPublisher()
		key := NewKeyState(Color{}, Color{}, Color{}, nil, nil)
		err := Execute(Action{Kind: ActionPublishMessage, Topic: "a/b", Payload: "hello"}, &key, pub)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		msgs := pub.messages()
		if len(msgs) != 1 || msgs[0].Topic != "a/b" || string(msgs[0].Payload) != "hello" {
			t.Errorf("published = %+v, want one message hello on a/b", msgs)
		}
	})

	t.Run("publish failure", func(t *testing.T) {
		sentinel := errors.New("broker down")
		pub := newMockPublisher()
		pub.fail("a/b", sentinel)
		key := NewKeyState(Color{}, Color{}, Color{}, nil, nil)
		err := Execute(Action{Kind: ActionPublishMessage, Topic: "a/b"}, &key, pub)
		if !errors.Is(err, sentinel) {
			t.Errorf("Execute() error = %v, want wrapped %v", err, sentinel)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		key := NewKeyState(Color{}, Color{}, Color{}, nil, nil)
		if err := Execute(Action{Kind: 99}, &key, newMockPublisher()); !errors.Is(err, ErrUnknownAction) {
			t.Errorf("Execute() error = %v, want ErrUnknownAction", err)
		}
	})
}

func TestPublisherFunc(t *testing.T) {
	var gotTopic string
	pub := PublisherFunc(func(topic string, _ []byte) error {
		gotTopic = topic
		return nil
	})
	if err := pub.Publish("x/y", nil); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if gotTopic != "x/y" {
		t.Errorf("topic = %q, want x/y", gotTopic)
	}
}
