package testbed

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/protocol"
	"github.com/spaghettifunk/meshsync/engine/transport"
)

/**
 * @brief A local receiver that logs what it is sent. It listens on the host
 * and path of the client URL so the testbed can run without a real one.
 */
type LogReceiver struct {
	server   *http.Server
	listener net.Listener
}

func NewLogReceiver(clientURL string) (*LogReceiver, error) {
	u, err := url.Parse(clientURL)
	if err != nil {
		return nil, err
	}
	l, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	path := u.Path
	if path == "" {
		path = "/"
	}
	mux.Handle(path, transport.NewReceiver(logMessage))

	return &LogReceiver{
		server:   &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		listener: l,
	}, nil
}

func logMessage(m *protocol.Message) error {
	core.LogInfo("received %s (session %s, revision %d)", m.Label(), m.Session, m.Revision)
	return nil
}

func (r *LogReceiver) Start() {
	go func() {
		if err := r.server.Serve(r.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			core.LogError("receiver stopped: %v", err)
		}
	}()
}

func (r *LogReceiver) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.server.Shutdown(ctx)
}
