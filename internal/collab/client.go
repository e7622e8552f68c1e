package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	writeTimeout      = 10 * time.Second
	keepAliveInterval = 30 * time.Second
	readLimitBytes    = 256 * 1024

	sendBufferSize = 256
)

// Client is one websocket connection bound to a document room. The read
// pump feeds the hub; the write pump drains the send buffer and keeps the
// connection alive with pings.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	UserID      string
	DisplayName string
	DocumentID  string
	ClientID    string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, documentID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		UserID:      userID,
		DisplayName: displayName,
		DocumentID:  documentID,
		ClientID:    clientID,
	}
}

// ReadPump reads incoming frames until the connection closes, stamping each
// message with the connection's identity before handing it to the hub. A
// client can never speak for another user or document.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(readLimitBytes)

	for {
		msg, err := c.readMessage(ctx)
		if err != nil {
			return
		}
		if msg == nil {
			continue
		}
		msg.UserID = c.UserID
		msg.ClientID = c.ClientID
		msg.DocumentID = c.DocumentID
		c.hub.handleMessage(c, msg)
	}
}

// readMessage returns (nil, nil) for frames that do not parse, so one bad
// message does not tear down the connection.
func (c *Client) readMessage(ctx context.Context) (*Message, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		default:
			slog.Debug("websocket read", "error", err, "client", c.ClientID)
		}
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("unparseable message", "error", err, "client", c.ClientID)
		return nil, nil
	}
	return &msg, nil
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(keepAliveInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.write(ctx, data); err != nil {
				slog.Debug("websocket write", "error", err, "client", c.ClientID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
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

func (c *Client) write(ctx context.Context, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}

// Send queues a message without blocking. A client that cannot keep up loses
// messages rather than stalling the room.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("send buffer full, dropping message", "client", c.ClientID)
	}
}

func (c *Client) SendError(reason string) {
	payload, _ := json.Marshal(ErrorPayload{Message: reason})
	c.Send(&Message{Type: TypeError, Payload: payload})
}
