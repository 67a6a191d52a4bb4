package mqtt

import "fmt"

// Fixed topic suffixes of the keypad protocol. The keypad firmware expects
// exactly these names below the configured prefix.
const (
	// SuffixEvents carries physical press/release events from the keypad.
	SuffixEvents = "arr/out"

	// SuffixColorPressed receives the colour frame shown while a key is held.
	SuffixColorPressed = "arr/pressed"

	// SuffixColorReleased receives the colour frame shown while a key is up.
	SuffixColorReleased = "arr/released"

	// SuffixStatus carries the controller's retained online/offline status.
	SuffixStatus = "status"
)

// Topics builds the keypad topic names from the configured prefixes.
//
//	topics := mqtt.Topics{Prefix: "mx-blue", ControlPrefix: "mx-blue/control"}
//	topics.ColorPressed()  // "mx-blue/arr/pressed"
//	topics.ControlKey(9)   // "mx-blue/control/key/9"
type Topics struct {
	Prefix        string
	ControlPrefix string
}

// Events returns the topic the keypad publishes press/release events on.
func (t Topics) Events() string {
	return fmt.Sprintf("%s/%s", t.Prefix, SuffixEvents)
}

// ColorPressed returns the topic for the pressed-colour frame.
func (t Topics) ColorPressed() string {
	return fmt.Sprintf("%s/%s", t.Prefix, SuffixColorPressed)
}

// ColorReleased returns the topic for the released-colour frame.
func (t Topics) ColorReleased() string {
	return fmt.Sprintf("%s/%s", t.Prefix, SuffixColorReleased)
}

// Status returns the retained status topic of this controller.
func (t Topics) Status() string {
	return fmt.Sprintf("%s/%s", t.Prefix, SuffixStatus)
}

// ControlKey returns the control topic of one key.
func (t Topics) ControlKey(index int) string {
	return fmt.Sprintf("%s/key/%d", t.ControlPrefix, index)
}

// ControlKeys returns the control topics of keys 0 to n-1.
func (t Topics) ControlKeys(n int) []string {
	topics := make([]string, 0, n)
	for i := 0; i < n; i++ {
		topics = append(topics, t.ControlKey(i))
	}
	return topics
}
