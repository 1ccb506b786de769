package gateway

import (
	"context"
	"errors"

	"github.com/beacon-bot/beacon/internal/protocol"
)

// ErrDelivery marks a transport failure on send/edit/delete. Callers log it
// and surface the operation as failed; nothing retries internally.
var ErrDelivery = errors.New("delivery failed")

// Outbound abstracts the broadcast transport. Send returns an opaque message
// ref that Edit and Delete later address.
type Outbound interface {
	Send(ctx context.Context, channel, content string) (string, error)
	Edit(ctx context.Context, ref, content string) error
	Delete(ctx context.Context, ref string) error
}

// Notifier delivers rendered replies back to a single operator.
type Notifier interface {
	Notify(userID string, msg protocol.Outbound)
}
