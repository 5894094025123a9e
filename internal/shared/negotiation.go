package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNegotiationOpen indicates a discount dialog is already open for the
// quotation.
var ErrNegotiationOpen = errors.New("discount negotiation already open")

// NegotiationGuard enforces a single in-flight discount negotiation per
// quotation. It is a simple open/closed flag, not a lock: the flow is
// synchronous and the flag only rejects a second dialog while one is
// active. The TTL cleans up after a client that vanished mid-negotiation.
type NegotiationGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewNegotiationGuard constructs the guard.
func NewNegotiationGuard(client *redis.Client, ttl time.Duration) *NegotiationGuard {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &NegotiationGuard{client: client, ttl: ttl}
}

// NegotiationKey builds the redis key for a quotation's discount flag.
func NegotiationKey(terminal, docNumber string) string {
	return fmt.Sprintf("quotedesk:discount:%s:%s:open", terminal, docNumber)
}

// Begin raises the flag. ErrNegotiationOpen when already raised.
func (g *NegotiationGuard) Begin(ctx context.Context, terminal, docNumber string) error {
	ok, err := g.client.SetNX(ctx, NegotiationKey(terminal, docNumber), "1", g.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNegotiationOpen
	}
	return nil
}

// End lowers the flag. Safe to call when not raised.
func (g *NegotiationGuard) End(ctx context.Context, terminal, docNumber string) error {
	err := g.client.Del(ctx, NegotiationKey(terminal, docNumber)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
