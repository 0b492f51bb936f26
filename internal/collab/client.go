package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/inamate/zoompan/internal/auth"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

// Client is one websocket connection watching, or driving, a stage.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// mu guards closed; send is only closed through close so that a
	// message racing a hub shutdown is dropped instead of panicking.
	mu     sync.Mutex
	closed bool
	send   chan []byte

	Role        auth.Role
	DisplayName string
	StageID     string
	ClientID    string
}

func NewClient(hub *Hub, conn *websocket.Conn, role auth.Role, displayName, stageID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		Role:        role,
		DisplayName: displayName,
		StageID:     stageID,
		ClientID:    clientID,
	}
}

// ReadPump decodes frames into hub messages until the connection drops.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				slog.Debug("read error", "error", err, "client", c.ClientID)
			}
			return
		}

		msg, ok := c.decode(data)
		if !ok {
			continue
		}
		c.hub.handleMessage(c, msg)
	}
}

// decode parses a frame and stamps it with the sender's identity. Malformed
// frames are answered with an error message.
func (c *Client) decode(data []byte) (*Message, bool) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("invalid message", "error", err, "client", c.ClientID)
		c.sendError("", "invalid message")
		return nil, false
	}
	msg.ClientID = c.ClientID
	msg.StageID = c.StageID
	return &msg, true
}

// WritePump drains send onto the connection and keeps it alive with pings.
// It returns once send is closed, after flushing what was queued.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.write(ctx, frame); err != nil {
				slog.Debug("write error", "error", err, "client", c.ClientID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, frame []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, frame)
}

// Send queues msg without blocking. Messages to a closed client or a full
// buffer are dropped.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "client", c.ClientID)
	}
}

// close ends the client's write side; WritePump flushes and closes the
// connection, which in turn ends ReadPump. Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) sendError(forType, text string) {
	msg, err := newMessage(TypeError, ErrorPayload{Message: text, For: forType})
	if err != nil {
		return
	}
	c.Send(msg)
}
