package transport

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/meshsync/engine/protocol"
)

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestWebSocketRoundTrip(t *testing.T) {
	var mu sync.Mutex
	var got []*protocol.Message
	server := httptest.NewServer(NewReceiver(func(m *protocol.Message) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, m)
		if m.Type == protocol.MessageDelete {
			return errors.New("deletes not accepted")
		}
		return nil
	}))
	defer server.Close()

	dialer := NewWebSocketDialer(WebSocketConfig{URL: wsURL(server), HandshakeTimeout: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := dialer.Dial(ctx)
	require.NoError(t, err)
	defer client.Close()

	begin := protocol.NewFence(protocol.FenceSceneBegin)
	begin.Session = "s"
	require.NoError(t, client.Send(ctx, begin))

	err = client.Send(ctx, protocol.NewDelete([]string{"/a"}))
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "deletes not accepted")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, "s", got[0].Session)
	assert.Equal(t, "/a", got[1].Targets[0].Path)
}

func TestWebSocketDialFailure(t *testing.T) {
	dialer := NewWebSocketDialer(WebSocketConfig{URL: "ws://127.0.0.1:1/none", HandshakeTimeout: 100 * time.Millisecond})
	_, err := dialer.Dial(context.Background())
	assert.Error(t, err)
}

func TestRecorderFailAt(t *testing.T) {
	r := NewRecorder()
	r.FailAt(2)
	c, err := r.Dial(context.Background())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Send(ctx, protocol.NewFence(protocol.FenceSceneBegin)))
	assert.ErrorIs(t, c.Send(ctx, protocol.NewFence(protocol.FenceSceneEnd)), ErrInjected)
	assert.Equal(t, []string{"fence(scene_begin)"}, r.Labels())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, r.Closes())
}

func TestRecorderHold(t *testing.T) {
	r := NewRecorder()
	r.Hold()
	c, err := r.Dial(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Send(ctx, protocol.NewFence(protocol.FenceSceneBegin)), context.DeadlineExceeded)

	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background(), protocol.NewFence(protocol.FenceSceneBegin)) }()
	r.Release()
	require.NoError(t, <-done)
	assert.Len(t, r.Messages(), 1)
}
