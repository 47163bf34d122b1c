package transport

import (
	"context"

	"github.com/spaghettifunk/meshsync/engine/protocol"
)

/**
 * @brief A connection to the receiver. Send is a full round trip: it returns
 * once the receiver acknowledged the message or the exchange failed.
 */
type Client interface {
	Send(ctx context.Context, m *protocol.Message) error
	Close() error
}

/** @brief Opens one Client per send cycle. */
type Dialer interface {
	Dial(ctx context.Context) (Client, error)
}
