package transport

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/protocol"
)

// HandlerFunc applies one decoded message. A non nil error is sent back as a rejection.
type HandlerFunc func(m *protocol.Message) error

/**
 * @brief The receiving end of the websocket transport. It decodes every
 * binary frame, hands it to the handler and replies with an ack.
 */
type Receiver struct {
	upgrader websocket.Upgrader
	handle   HandlerFunc
}

func NewReceiver(handle HandlerFunc) *Receiver {
	return &Receiver{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		handle: handle,
	}
}

func (rv *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := rv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		core.LogWarn("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				core.LogDebug("receiver connection ended: %v", err)
			}
			return
		}
		if typ != websocket.BinaryMessage {
			continue
		}

		resp := &protocol.Response{OK: true}
		m, err := protocol.Decode(data)
		if err == nil {
			err = rv.handle(m)
		}
		if err != nil {
			resp.OK = false
			resp.Error = err.Error()
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, protocol.EncodeResponse(resp)); err != nil {
			core.LogWarn("failed to ack message: %v", err)
			return
		}
	}
}
