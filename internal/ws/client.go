package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nortvale/matchcore/internal/eventbus"
	"github.com/nortvale/matchcore/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client bridges one gorilla/websocket connection to a Session and an
// eventbus.Subscriber, running the two-source cooperative loop §4.F
// describes: readPump drives the session with inbound control frames,
// forwardPump drives it with outbound bus messages, and both funnel
// into a single writePump so the connection only ever has one writer.
type Client struct {
	conn    *websocket.Conn
	hub     *Hub
	bus     *eventbus.Bus
	sub     *eventbus.Subscriber
	session *session.Session

	ID      string
	send    chan []byte
	logger  *zap.Logger
	limiter *rate.Limiter
}

// NewClient wires a freshly upgraded connection to its own session and
// bus subscription. ratePerSecond bounds inbound control frames, a
// distinct concern from the HTTP-level rate limiter in front of the REST
// API: a single slow-reading WebSocket client should not be able to
// flood the session with subscribe/unsubscribe churn.
func NewClient(hub *Hub, conn *websocket.Conn, bus *eventbus.Bus, sess *session.Session, clientID string, ratePerSecond int, logger *zap.Logger) *Client {
	if ratePerSecond <= 0 {
		ratePerSecond = 20
	}
	return &Client{
		conn:    conn,
		hub:     hub,
		bus:     bus,
		sub:     bus.Subscribe(),
		session: sess,
		ID:      clientID,
		send:    make(chan []byte, sendBufferSize),
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond),
	}
}

// Start launches the three pumps that make up the connection's
// lifetime.
func (c *Client) Start() {
	go c.writePump()
	go c.forwardPump()
	go c.readPump()
}

// Close terminates the connection from outside the pumps, e.g. during
// server shutdown.
func (c *Client) Close() {
	c.conn.Close()
}

// readPump consumes inbound frames. Only text frames are treated as
// control frames; binary/ping/pong are ignored (ping/pong are handled
// by the gorilla library's default handlers before ReadMessage ever
// returns them). A close frame, or any other read error, ends the
// session.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.bus.Unsubscribe(c.sub)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket read error", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var ack []byte
		if c.limiter.Allow() {
			ack = c.session.HandleControlFrame(message)
		} else {
			ack = []byte(`{"status":"error","message":"rate limit exceeded"}`)
		}
		select {
		case c.send <- ack:
		default:
			c.logger.Warn("dropping connection with full outbound buffer", zap.String("client_id", c.ID))
			return
		}
	}
}

// forwardPump relays bus messages the session's subscriptions accept.
// It ends when the bus mailbox is closed, which happens once via
// readPump's deferred Unsubscribe.
func (c *Client) forwardPump() {
	for msg := range c.sub.C() {
		if !c.session.ShouldForward(msg) {
			continue
		}
		frame, ok := toOutboundFrame(msg)
		if !ok {
			continue
		}
		data, err := json.Marshal(frame)
		if err != nil {
			c.logger.Error("failed to marshal outbound message", zap.Error(err))
			continue
		}
		select {
		case c.send <- data:
		default:
			// The connection's own outbound buffer is the final,
			// smallest backpressure point; drop rather than block, so
			// this pump keeps draining its bus mailbox.
		}
	}
}

// writePump is the connection's sole writer.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
