package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/spaghettifunk/meshsync/engine/protocol"
)

var ErrInjected = errors.New("injected transport failure")

/**
 * @brief An in-process Dialer that keeps every message it is sent. Messages
 * pass through the wire codec, so what is recorded is what a receiver would
 * decode. Failures and stalls can be injected.
 */
type Recorder struct {
	mu       sync.Mutex
	messages []*protocol.Message
	dials    int
	closes   int
	failAt   int
	dialErr  error
	gate     chan struct{}
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailAt makes the nth message (1 based) of every cycle fail. Zero disables it.
func (r *Recorder) FailAt(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failAt = n
}

func (r *Recorder) FailDial(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialErr = err
}

// Hold blocks every Send until Release is called.
func (r *Recorder) Hold() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gate == nil {
		r.gate = make(chan struct{})
	}
}

func (r *Recorder) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gate != nil {
		close(r.gate)
		r.gate = nil
	}
}

func (r *Recorder) Dial(ctx context.Context) (Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dialErr != nil {
		return nil, r.dialErr
	}
	r.dials++
	return &recorderClient{recorder: r}, nil
}

func (r *Recorder) Messages() []*protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*protocol.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Labels lists Message.Label for every recorded message.
func (r *Recorder) Labels() []string {
	msgs := r.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Label()
	}
	return out
}

func (r *Recorder) Dials() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dials
}

func (r *Recorder) Closes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closes
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
	r.dials = 0
	r.closes = 0
}

type recorderClient struct {
	recorder *Recorder
	sent     int
}

func (c *recorderClient) Send(ctx context.Context, m *protocol.Message) error {
	r := c.recorder
	r.mu.Lock()
	gate := r.gate
	r.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	c.sent++
	if r.failAt > 0 && c.sent == r.failAt {
		return ErrInjected
	}
	decoded, err := protocol.Decode(protocol.Encode(m))
	if err != nil {
		return err
	}
	r.messages = append(r.messages, decoded)
	return nil
}

func (c *recorderClient) Close() error {
	c.recorder.mu.Lock()
	defer c.recorder.mu.Unlock()
	c.recorder.closes++
	return nil
}
