// README: WebSocket transport binding the hub and handlers to gin.
package realtime

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/http/middleware"
)

type WSServer struct {
	hub       *Hub
	presence  *Presence
	handlers  *Handlers
	queueSize int
	log       zerolog.Logger
	upgrader  websocket.Upgrader
}

func NewWSServer(hub *Hub, presence *Presence, handlers *Handlers, queueSize int, log zerolog.Logger) *WSServer {
	return &WSServer{
		hub:       hub,
		presence:  presence,
		handlers:  handlers,
		queueSize: queueSize,
		log:       log,
		upgrader: websocket.Upgrader{
			// Browser origins are vetted by the upstream gateway.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handle upgrades the request and runs the connection until the client goes
// away. Disconnect cleanup is a single pass: leave every room, drop presence.
func (s *WSServer) Handle(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := &wsConn{
		id:        newConnID(),
		actorID:   middleware.ActorID(c),
		actorRole: middleware.ActorRole(c),
		ws:        ws,
		send:      make(chan Event, s.queueSize),
	}

	s.hub.Register(conn)
	s.presence.OnConnect(conn.id)
	defer func() {
		s.hub.Disconnect(conn.id)
		s.presence.OnDisconnect(conn.id)
		conn.close()
	}()

	go conn.writePump(s.log)
	s.readLoop(c, conn)
}

func (s *WSServer) readLoop(c *gin.Context, conn *wsConn) {
	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Str("conn_id", conn.id).Msg("websocket read failed")
			}
			return
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Name == "" {
			conn.Send(mustEvent(EventError, ErrorPayload{Message: "malformed frame"}))
			continue
		}
		s.handlers.Dispatch(c.Request.Context(), conn, ev)
	}
}

// wsConn adapts one gorilla connection to the ClientConn contract. Outbound
// events go through a buffered queue drained by writePump, which keeps
// per-connection delivery ordered without blocking the hub.
type wsConn struct {
	id        string
	actorID   string
	actorRole string
	ws        *websocket.Conn

	mu     sync.Mutex
	closed bool
	send   chan Event
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Actor() (string, string) { return c.actorID, c.actorRole }

func (c *wsConn) Send(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *wsConn) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
	_ = c.ws.Close()
}

func (c *wsConn) writePump(log zerolog.Logger) {
	for ev := range c.send {
		if err := c.ws.WriteJSON(ev); err != nil {
			log.Warn().Err(err).Str("conn_id", c.id).Msg("websocket write failed")
			return
		}
	}
}

func newConnID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
