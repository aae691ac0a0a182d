// Package scan composes the full check-in flow: decode and verify the
// payload, apply the optional expiry check, then commit the redemption
// through the guard. Each rejection carries a category the scanning UI maps
// to an operator message.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"evoke-ticketing/internal/codec"
	"evoke-ticketing/internal/guard"
	"evoke-ticketing/internal/logger"
	"evoke-ticketing/internal/models"
)

type Category string

const (
	CategoryAccepted         Category = "accepted"
	CategoryAlreadyUsed      Category = "already_used"
	CategoryExpired          Category = "expired"
	CategoryTagMismatch      Category = "tag_mismatch"
	CategoryMissingField     Category = "missing_field"
	CategoryMalformedPayload Category = "malformed_payload"
)

// Result is the scan verdict. Ticket is set as soon as the payload parses,
// even for rejections, so the UI can show what was scanned.
type Result struct {
	Category Category             `json:"category"`
	Ticket   *models.TicketRecord `json:"ticket,omitempty"`
	// FirstRedeemedAt accompanies already_used when the store retains it.
	FirstRedeemedAt *time.Time `json:"firstRedeemedAt,omitempty"`
	Reason          string     `json:"reason,omitempty"`
}

// Accepted reports whether the scan grants entry.
func (r Result) Accepted() bool {
	return r.Category == CategoryAccepted
}

// RedeemedPublisher streams redemption events after the guard commits.
type RedeemedPublisher interface {
	PublishTicketRedeemed(ctx context.Context, ticketID, scannerID string) error
}

type Service struct {
	Codec     *codec.Codec
	Guard     *guard.Guard
	Publisher RedeemedPublisher
	Logger    *logger.Logger
	// EventEnd enables the expiry check when non-zero: tickets presented
	// after this instant are rejected.
	EventEnd time.Time
}

func NewService(c *codec.Codec, g *guard.Guard) *Service {
	return &Service{Codec: c, Guard: g}
}

// Scan runs the pipeline for one presented payload. Every verdict,
// rejections included, comes back in the Result with a nil error; a non-nil
// error means the backing store failed and the scan is undecided.
func (s *Service) Scan(ctx context.Context, payloadText, scannerID string) (Result, error) {
	rec, err := s.Codec.DecodeAndVerify(payloadText)
	if err != nil {
		result := Result{Reason: err.Error()}
		switch {
		case errors.Is(err, codec.ErrMissingField):
			result.Category = CategoryMissingField
		case errors.Is(err, codec.ErrTagMismatch):
			result.Category = CategoryTagMismatch
		default:
			result.Category = CategoryMalformedPayload
		}
		s.logVerdict(result, "")
		return result, nil
	}

	if !s.EventEnd.IsZero() && codec.IsExpired(*rec, s.EventEnd) {
		result := Result{
			Category: CategoryExpired,
			Ticket:   rec,
			Reason:   fmt.Sprintf("event ended at %s", s.EventEnd.Format(time.RFC3339)),
		}
		s.logVerdict(result, rec.TicketID)
		return result, nil
	}

	redeem, err := s.Guard.Redeem(ctx, rec.TicketID)
	if err != nil {
		return Result{}, err
	}
	if redeem.Status == guard.AlreadyUsed {
		result := Result{
			Category:        CategoryAlreadyUsed,
			Ticket:          rec,
			FirstRedeemedAt: redeem.FirstRedeemedAt,
		}
		s.logVerdict(result, rec.TicketID)
		return result, nil
	}

	// The store has committed; the accept stands even if publishing fails.
	if s.Publisher != nil {
		if err := s.Publisher.PublishTicketRedeemed(ctx, rec.TicketID, scannerID); err != nil && s.Logger != nil {
			s.Logger.LogKafka("PUBLISH", "ticket-redeemed", fmt.Sprintf("failed for %s: %v", rec.TicketID, err))
		}
	}

	result := Result{Category: CategoryAccepted, Ticket: rec}
	s.logVerdict(result, rec.TicketID)
	return result, nil
}

func (s *Service) logVerdict(result Result, ticketID string) {
	if s.Logger == nil {
		return
	}
	if ticketID == "" {
		ticketID = "-"
	}
	s.Logger.LogScan(string(result.Category), ticketID, result.Reason)
}
