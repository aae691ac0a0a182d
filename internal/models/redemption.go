package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Redemption marks a ticket as consumed. Membership of the row is the
// redemption state; redeemed_at is retained so a repeat scan can report when
// the ticket was first accepted.
type Redemption struct {
	bun.BaseModel `bun:"table:redemptions"`

	TicketID   string    `bun:"ticket_id,pk"`
	RedeemedAt time.Time `bun:"redeemed_at,notnull"`
}
