package keypad

import (
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-keypad/internal/infrastructure/config"
)

// mockPublisher records every publish and can be told to fail per topic.
type mockPublisher struct {
	mu        sync.Mutex
	published []publishedMessage
	failOn    map[string]error
}

type publishedMessage struct {
	Topic   string
	Payload []byte
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{failOn: make(map[string]error)}
}

func (m *mockPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failOn[topic]; ok {
		return err
	}
	m.published = append(m.published, publishedMessage{
		Topic:   topic,
		Payload: append([]byte(nil), payload...),
	})
	return nil
}

func (m *mockPublisher) fail(topic string, err error) {
	m.mu.Lock()
	m.failOn[topic] = err
	m.mu.Unlock()
}

func (m *mockPublisher) messages() []publishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedMessage(nil), m.published...)
}

func (m *mockPublisher) onTopic(topic string) []publishedMessage {
	var out []publishedMessage
	for _, msg := range m.messages() {
		if msg.Topic == topic {
			out = append(out, msg)
		}
	}
	return out
}

const (
	testPressedTopic  = "keypad/arr/pressed"
	testReleasedTopic = "keypad/arr/released"
)

// testKeypadConfig returns a complete keypad config. Key (r, c) has
// pressed {r, c, 1}, released {r, c, 2} and alternative {r, c, 3}, and
// publishes to press/r_c and release/r_c.
func testKeypadConfig() config.KeypadConfig {
	cfg := config.KeypadConfig{
		SubscribePrefix: "keypad",
		ControlPrefix:   "keypad/control",
		Pads:            make(map[string]config.PadConfig, KeyCount),
	}
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			cfg.Pads[config.PadKey(row, col)] = config.PadConfig{
				Pressed:     []int{row, col, 1},
				Released:    []int{row, col, 2},
				Alternative: []int{row, col, 3},
				OnPress: []config.ActionConfig{
					{Type: config.ActionPublish, Topic: fmt.Sprintf("press/%d_%d", row, col), Payload: "on"},
				},
				OnRelease: []config.ActionConfig{
					{Type: config.ActionPublish, Topic: fmt.Sprintf("release/%d_%d", row, col), Payload: "off"},
				},
			}
		}
	}
	return cfg
}

func testColors(index int) (pressed, released, alternative Color) {
	row, col := uint8(index/Columns), uint8(index%Columns)
	return Color{row, col, 1}, Color{row, col, 2}, Color{row, col, 3}
}
