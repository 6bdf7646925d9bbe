// Package relay is the best-effort lobby and per-session broadcast channel.
// It introduces two clients, hands them a session id, and re-broadcasts
// their UI-synchrony messages. It holds no authority over game state: the
// ledger remains authoritative if the relay is unreachable.
package relay

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Message types relayed between matched clients.
const (
	TypeDraw     = "DRAW"
	TypeNext     = "NEXT_ROUND"
	TypeSnapshot = "STATE_SNAPSHOT"

	// Server-originated types.
	TypeWaiting  = "WAITING"
	TypeMatched  = "MATCHED"
	TypePeerGone = "PEER_GONE"
)

const (
	// MaxMessageSize caps a single relayed message.
	MaxMessageSize = 1024
	// MessagesPerSecond is the per-connection rate limit.
	MessagesPerSecond = 10
	// MaxEvents caps a session's replay log.
	MaxEvents = 100
)

// Message is the relay envelope.
type Message struct {
	Type      string          `json:"type"`
	SessionID uint32          `json:"sessionId,omitempty"`
	Player    int             `json:"player,omitempty"` // 1 or 2, set on MATCHED
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type session struct {
	id     uint32
	mu     sync.Mutex
	peers  [2]*client
	events [][]byte
}

// log appends a relayed frame, dropping the oldest past MaxEvents.
func (s *session) log(frame []byte) {
	s.events = append(s.events, frame)
	if len(s.events) > MaxEvents {
		s.events = s.events[len(s.events)-MaxEvents:]
	}
}

type client struct {
	conn    *websocket.Conn
	send    chan []byte
	closed  chan struct{}
	once    sync.Once
	limiter *rate.Limiter
	sess    *session
	slot    int // 0 or 1
}

func (c *client) shutdown() {
	c.once.Do(func() { close(c.closed) })
}

// Hub pairs incoming connections and owns the live sessions.
type Hub struct {
	mu          sync.Mutex
	waiting     *client
	nextSession uint32
	upgrader    websocket.Upgrader
	log         zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		nextSession: 1,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  MaxMessageSize,
			WriteBufferSize: MaxMessageSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// ServeHTTP upgrades a lobby connection and either parks it or pairs it with
// the waiting client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(MaxMessageSize)

	c := &client{
		conn:    conn,
		send:    make(chan []byte, 16),
		closed:  make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(MessagesPerSecond), MessagesPerSecond),
	}
	go c.writePump()

	h.mu.Lock()
	if h.waiting == nil {
		h.waiting = c
		h.mu.Unlock()
		c.enqueue(Message{Type: TypeWaiting})
		go c.readPump(h)
		return
	}

	peer := h.waiting
	h.waiting = nil
	sess := &session{id: h.nextSession}
	h.nextSession++
	h.mu.Unlock()

	sess.peers[0], sess.peers[1] = peer, c
	peer.sess, c.sess = sess, sess
	peer.slot, c.slot = 0, 1

	peer.enqueue(Message{Type: TypeMatched, SessionID: sess.id, Player: 1})
	c.enqueue(Message{Type: TypeMatched, SessionID: sess.id, Player: 2})
	h.log.Info().Uint32("session", sess.id).Msg("clients matched")

	go c.readPump(h)
}

func (c *client) enqueue(m Message) {
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	c.forward(b)
}

// forward hands a frame to the write pump, dropping it if the client is
// gone or slow. Frames are UI synchrony only.
func (c *client) forward(b []byte) {
	select {
	case <-c.closed:
	case c.send <- b:
	default:
	}
}

func (c *client) writePump() {
	for {
		select {
		case <-c.closed:
			return
		case b := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}

func (c *client) readPump(h *Hub) {
	defer func() {
		c.conn.Close()
		c.shutdown()
		h.dropClient(c)
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if !c.limiter.Allow() {
			h.log.Warn().Msg("rate limit exceeded, dropping connection")
			return
		}

		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		switch m.Type {
		case TypeDraw, TypeNext, TypeSnapshot:
		default:
			continue
		}

		sess := c.sess
		if sess == nil {
			continue
		}
		sess.mu.Lock()
		sess.log(data)
		peer := sess.peers[1-c.slot]
		sess.mu.Unlock()
		if peer != nil {
			peer.forward(data)
		}
	}
}

// dropClient detaches a closed connection from the lobby or its session.
func (h *Hub) dropClient(c *client) {
	h.mu.Lock()
	if h.waiting == c {
		h.waiting = nil
	}
	h.mu.Unlock()

	sess := c.sess
	if sess == nil {
		return
	}
	sess.mu.Lock()
	sess.peers[c.slot] = nil
	peer := sess.peers[1-c.slot]
	sess.mu.Unlock()
	if peer != nil {
		peer.enqueue(Message{Type: TypePeerGone, SessionID: sess.id})
	}
}
