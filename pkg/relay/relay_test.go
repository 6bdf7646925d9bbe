package relay

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func startRelay(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

func matchPair(t *testing.T, url string) (*websocket.Conn, *websocket.Conn, uint32) {
	t.Helper()
	c1 := dial(t, url)
	if m := readMsg(t, c1); m.Type != TypeWaiting {
		t.Fatalf("first client got %q, want WAITING", m.Type)
	}

	c2 := dial(t, url)
	m1 := readMsg(t, c1)
	m2 := readMsg(t, c2)
	if m1.Type != TypeMatched || m2.Type != TypeMatched {
		t.Fatalf("expected MATCHED pair, got %q/%q", m1.Type, m2.Type)
	}
	if m1.SessionID != m2.SessionID {
		t.Fatalf("session ids differ: %d vs %d", m1.SessionID, m2.SessionID)
	}
	if m1.Player != 1 || m2.Player != 2 {
		t.Fatalf("role assignment %d/%d, want 1/2", m1.Player, m2.Player)
	}
	return c1, c2, m1.SessionID
}

func TestPairingAssignsSession(t *testing.T) {
	_, url := startRelay(t)
	_, _, sid := matchPair(t, url)
	if sid == 0 {
		t.Fatal("session id must be non-zero")
	}
}

func TestBroadcastBetweenPeers(t *testing.T) {
	_, url := startRelay(t)
	c1, c2, sid := matchPair(t, url)

	out := Message{Type: TypeDraw, SessionID: sid, Payload: json.RawMessage(`{"round":0}`)}
	b, _ := json.Marshal(out)
	if err := c1.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatal(err)
	}

	got := readMsg(t, c2)
	if got.Type != TypeDraw || got.SessionID != sid {
		t.Fatalf("peer received %+v", got)
	}
}

func TestUnknownTypesNotRelayed(t *testing.T) {
	_, url := startRelay(t)
	c1, c2, sid := matchPair(t, url)

	bogus, _ := json.Marshal(Message{Type: "SET_WINNER", SessionID: sid})
	if err := c1.WriteMessage(websocket.TextMessage, bogus); err != nil {
		t.Fatal(err)
	}
	draw, _ := json.Marshal(Message{Type: TypeNext, SessionID: sid})
	if err := c1.WriteMessage(websocket.TextMessage, draw); err != nil {
		t.Fatal(err)
	}

	// The first frame the peer sees must be the NEXT_ROUND, not the bogus type.
	got := readMsg(t, c2)
	if got.Type != TypeNext {
		t.Fatalf("peer received %q, want NEXT_ROUND", got.Type)
	}
}

func TestRateLimitDisconnects(t *testing.T) {
	_, url := startRelay(t)
	c1, _, sid := matchPair(t, url)

	frame, _ := json.Marshal(Message{Type: TypeDraw, SessionID: sid})
	for i := 0; i < 3*MessagesPerSecond; i++ {
		if err := c1.WriteMessage(websocket.TextMessage, frame); err != nil {
			return // server already closed us
		}
	}

	// The server must close the connection once the bucket is drained.
	_ = c1.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := c1.ReadMessage(); err != nil {
			return
		}
	}
}

func TestPeerGoneNotification(t *testing.T) {
	_, url := startRelay(t)
	c1, c2, sid := matchPair(t, url)

	c2.Close()

	got := readMsg(t, c1)
	if got.Type != TypePeerGone || got.SessionID != sid {
		t.Fatalf("got %+v, want PEER_GONE for session %d", got, sid)
	}
}

func TestLobbyRePairsAfterDisconnect(t *testing.T) {
	_, url := startRelay(t)

	c1 := dial(t, url)
	if m := readMsg(t, c1); m.Type != TypeWaiting {
		t.Fatalf("got %q, want WAITING", m.Type)
	}
	c1.Close()

	// Give the hub a moment to clear the waiting slot.
	time.Sleep(50 * time.Millisecond)

	// A fresh pair must still match.
	matchPair(t, url)
}
