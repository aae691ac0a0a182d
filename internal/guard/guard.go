// Package guard enforces at-most-one-successful-redemption per ticket. The
// consumed set lives behind ConsumedStore so a scanning device can run on the
// in-memory store while multi-gate deployments share Redis or the database.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotConsumed is returned by RedeemedAt when the ticket has no
// redemption on record.
var ErrNotConsumed = errors.New("ticket not consumed")

type RedeemStatus string

const (
	Accepted    RedeemStatus = "accepted"
	AlreadyUsed RedeemStatus = "already_used"
)

// ConsumedStore is the guard's backing set. InsertIfAbsent must be atomic:
// two concurrent calls for the same ID must not both report true.
type ConsumedStore interface {
	InsertIfAbsent(ctx context.Context, ticketID string) (bool, error)
	Contains(ctx context.Context, ticketID string) (bool, error)
}

// RedemptionTimeStore is implemented by stores that retain when a ticket was
// first accepted, so a repeat scan can tell the operator when that happened.
type RedemptionTimeStore interface {
	RedeemedAt(ctx context.Context, ticketID string) (time.Time, error)
}

type RedeemResult struct {
	Status   RedeemStatus
	TicketID string
	// FirstRedeemedAt is set on AlreadyUsed when the store retains it.
	FirstRedeemedAt *time.Time
}

type Guard struct {
	store ConsumedStore
}

func New(store ConsumedStore) *Guard {
	return &Guard{store: store}
}

// Redeem commits the ticket's one allowed redemption. The store's
// insert-if-absent is idempotent for a given ID, so retrying after a timeout
// with the same ticket ID is safe.
func (g *Guard) Redeem(ctx context.Context, ticketID string) (RedeemResult, error) {
	inserted, err := g.store.InsertIfAbsent(ctx, ticketID)
	if err != nil {
		return RedeemResult{}, fmt.Errorf("redeem ticket %s: %w", ticketID, err)
	}
	if inserted {
		return RedeemResult{Status: Accepted, TicketID: ticketID}, nil
	}

	result := RedeemResult{Status: AlreadyUsed, TicketID: ticketID}
	if ts, ok := g.store.(RedemptionTimeStore); ok {
		if at, err := ts.RedeemedAt(ctx, ticketID); err == nil {
			result.FirstRedeemedAt = &at
		}
	}
	return result, nil
}

// IsConsumed is a read-only probe with no side effects.
func (g *Guard) IsConsumed(ctx context.Context, ticketID string) (bool, error) {
	return g.store.Contains(ctx, ticketID)
}
