package api

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-keypad/internal/keypad"
)

func dialWS(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	//nolint:errcheck // Test deadline
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocket_InitialSnapshotAndBroadcast(t *testing.T) {
	srv, ts := testServer(t, nil)
	conn := dialWS(t, ts.URL)

	first := readWS(t, conn)
	if first.Type != WSTypeEvent || first.EventType != ChannelKeypadFrame {
		t.Fatalf("first message = %+v, want keypad.frame event", first)
	}

	waitForClients(t, srv.Hub(), 1)
	srv.Hub().BroadcastSnapshot(keypad.Snapshot{Frames: 42})

	msg := readWS(t, conn)
	if msg.EventType != ChannelKeypadFrame {
		t.Fatalf("message = %+v", msg)
	}
	payload, _ := json.Marshal(msg.Payload)
	var snap keypad.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snap.Frames != 42 {
		t.Errorf("Frames = %d, want 42", snap.Frames)
	}
}

func TestWebSocket_PingAndUnsubscribe(t *testing.T) {
	srv, ts := testServer(t, nil)
	conn := dialWS(t, ts.URL)
	readWS(t, conn) // initial snapshot

	if err := conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "p1"}); err != nil {
		t.Fatal(err)
	}
	if msg := readWS(t, conn); msg.Type != WSTypePong || msg.ID != "p1" {
		t.Errorf("ping reply = %+v", msg)
	}

	if err := conn.WriteJSON(WSMessage{
		Type:    WSTypeUnsubscribe,
		ID:      "u1",
		Payload: WSSubscribePayload{Channels: []string{ChannelKeypadFrame}},
	}); err != nil {
		t.Fatal(err)
	}
	if msg := readWS(t, conn); msg.Type != WSTypeResponse || msg.ID != "u1" {
		t.Errorf("unsubscribe reply = %+v", msg)
	}

	// Unsubscribed clients miss broadcasts; the next message is the error reply.
	srv.Hub().BroadcastSnapshot(keypad.Snapshot{})
	if err := conn.WriteJSON(WSMessage{Type: "dance", ID: "d1"}); err != nil {
		t.Fatal(err)
	}
	if msg := readWS(t, conn); msg.Type != WSTypeError || msg.ID != "d1" {
		t.Errorf("message = %+v, want error reply", msg)
	}
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	srv, ts := testServer(t, nil)
	conn := dialWS(t, ts.URL)
	readWS(t, conn)
	waitForClients(t, srv.Hub(), 1)

	conn.Close()
	waitForClients(t, srv.Hub(), 0)
}
