package guard

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"evoke-ticketing/internal/models"
)

// BunStore backs the consumed set with the redemptions table. The primary
// key on ticket_id plus ON CONFLICT DO NOTHING gives the atomic
// insert-if-absent; unlike the other stores it also retains when the first
// redemption happened.
type BunStore struct {
	Bun *bun.DB
}

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{Bun: db}
}

func (s *BunStore) InsertIfAbsent(ctx context.Context, ticketID string) (bool, error) {
	redemption := models.Redemption{
		TicketID:   ticketID,
		RedeemedAt: time.Now().UTC(),
	}
	res, err := s.Bun.NewInsert().
		Model(&redemption).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (s *BunStore) Contains(ctx context.Context, ticketID string) (bool, error) {
	return s.Bun.NewSelect().
		Model((*models.Redemption)(nil)).
		Where("ticket_id = ?", ticketID).
		Exists(ctx)
}

func (s *BunStore) RedeemedAt(ctx context.Context, ticketID string) (time.Time, error) {
	var redemption models.Redemption
	err := s.Bun.NewSelect().
		Model(&redemption).
		Where("ticket_id = ?", ticketID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotConsumed
	}
	if err != nil {
		return time.Time{}, err
	}
	return redemption.RedeemedAt, nil
}
