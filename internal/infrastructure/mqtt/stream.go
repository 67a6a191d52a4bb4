package mqtt

import "fmt"

// Message is one received MQTT message.
type Message struct {
	Topic   string
	Payload []byte
}

// Stream subscribes to every topic in topics and forwards the messages into
// a single channel with the given buffer size.
//
// Messages arrive in order on one paho goroutine, which also has to keep
// reading acknowledgements for our own publishes. The handler therefore
// never blocks: when the buffer is full the message is dropped and
// ErrStreamFull is logged through the client's logger. After Close every
// message is refused with ErrClosed. The channel is never closed, because
// paho may still deliver after Close.
//
// If any subscription fails, the ones already made are left in place and
// the error is returned.
func (c *Client) Stream(topics []string, qos byte, buffer int) (<-chan Message, error) {
	ch := make(chan Message, buffer)
	handler := c.forwardTo(ch)

	for _, topic := range topics {
		if err := c.Subscribe(topic, qos, handler); err != nil {
			return nil, err
		}
	}

	return ch, nil
}

// forwardTo returns a handler that copies each message into ch without
// blocking.
func (c *Client) forwardTo(ch chan<- Message) MessageHandler {
	return func(topic string, payload []byte) error {
		select {
		case <-c.done:
			return ErrClosed
		default:
		}

		msg := Message{
			Topic:   topic,
			Payload: append([]byte(nil), payload...),
		}
		select {
		case ch <- msg:
			return nil
		default:
			return fmt.Errorf("%w: dropped message on %s", ErrStreamFull, topic)
		}
	}
}
