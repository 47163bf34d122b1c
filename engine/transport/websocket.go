package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/spaghettifunk/meshsync/engine/protocol"
)

var ErrRejected = errors.New("message rejected by receiver")

type WebSocketConfig struct {
	URL              string
	HandshakeTimeout time.Duration
}

type WebSocketDialer struct {
	config WebSocketConfig
}

func NewWebSocketDialer(config WebSocketConfig) *WebSocketDialer {
	return &WebSocketDialer{config: config}
}

func (d *WebSocketDialer) Dial(ctx context.Context) (Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: d.config.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, d.config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.config.URL, err)
	}
	return &webSocketClient{conn: conn}, nil
}

type webSocketClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *webSocketClient) Send(ctx context.Context, m *protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, protocol.Encode(m)); err != nil {
		return fmt.Errorf("write %s: %w", m.Label(), err)
	}

	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return err
	}
	typ, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read ack for %s: %w", m.Label(), err)
	}
	if typ != websocket.BinaryMessage {
		return fmt.Errorf("ack for %s: unexpected frame type %d", m.Label(), typ)
	}
	resp, err := protocol.DecodeResponse(data)
	if err != nil {
		return fmt.Errorf("ack for %s: %w", m.Label(), err)
	}
	if !resp.OK {
		return fmt.Errorf("%s: %s: %w", m.Label(), resp.Error, ErrRejected)
	}
	return nil
}

func (c *webSocketClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
