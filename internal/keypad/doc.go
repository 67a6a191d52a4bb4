// Package keypad implements the state and colour logic of a 5x5 illuminated
// MQTT keypad.
//
// # Model
//
// A Grid holds 25 KeyState cells addressed by linear index 0..24 in
// row-major order (row = i/5, column = i%5). Each key tracks whether it is
// pressed, two independent blink flags, a blink phase, three configured
// colours and the actions to run on press and on release.
//
// Actions are a closed set of values (ToggleBlink, ToggleBlinkAlternate,
// PublishMessage) executed by a single function, Execute. Control commands
// received over MQTT toggle the blink flags directly and never run the
// configured action lists.
//
// # Wire format
//
// Each refresh publishes two 79-byte frames, one with the colour every key
// shows while pressed and one while released:
//
//	byte 0..2 : 0x00 0x00 0x00   reserved
//	byte 3    : 0x19             key count (25)
//	byte 4..78: 25 x [R,G,B]     row-major key order
//
// # Ownership
//
// A Controller is the single owner of its Grid. Physical events, control
// commands, announce messages, API requests and the refresh ticker are all
// serviced one at a time by Controller.Run, so the grid needs no locking.
// Other goroutines read state through Controller.Snapshot.
package keypad
