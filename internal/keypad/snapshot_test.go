package keypad

import (
	"encoding/json"
	"testing"
)

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	g := newTestGrid(t, newMockPublisher())
	g.DispatchPress(6)
	g.DispatchControl(6, []ControlAction{ControlToggleBlinking})
	g.Encode()

	snap := g.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	key, ok := got.Key(6)
	if !ok {
		t.Fatal("key 6 missing after round trip")
	}
	want, _ := snap.Key(6)
	if key != want {
		t.Errorf("key 6 = %+v, want %+v", key, want)
	}
	if key.Phase != PhaseOff || !key.Pressed || !key.Blinking {
		t.Errorf("key 6 state lost: %+v", key)
	}
}
