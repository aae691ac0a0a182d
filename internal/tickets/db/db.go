package db

import (
	"context"

	"github.com/uptrace/bun"

	"evoke-ticketing/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateTicket(ticket models.Ticket) error {
	_, err := d.Bun.NewInsert().Model(&ticket).Exec(context.Background())
	return err
}

func (d *DB) GetTicketByID(id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) GetTicketsByEvent(eventID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("event_id = ?", eventID).
		Order("purchase_date ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (d *DB) GetTicketsByUser(userID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("user_id = ?", userID).
		Order("purchase_date ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (d *DB) DeleteTicket(id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Ticket)(nil)).
		Where("ticket_id = ?", id).
		Exec(context.Background())
	return err
}
