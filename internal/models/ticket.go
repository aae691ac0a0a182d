package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TicketRecord is the canonical wire form of an issued ticket. Its JSON
// encoding (these ten keys, integrity tag under "hash") is exactly what goes
// into the QR code, so the tags here are part of the payload format and must
// not change.
type TicketRecord struct {
	TicketID     string  `json:"ticketId"`
	EventID      string  `json:"eventId"`
	UserID       string  `json:"userId"`
	TicketType   string  `json:"ticketType"`
	PurchaseDate string  `json:"purchaseDate"`
	EventName    string  `json:"eventName"`
	AttendeeName string  `json:"attendeeName"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	IntegrityTag string  `json:"hash"`
}

// Ticket is the persisted row for an issued ticket: the record fields plus
// the rendered QR PNG so downloads and email attachments don't re-render.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID     string    `bun:"ticket_id,pk"`
	EventID      string    `bun:"event_id,notnull"`
	UserID       string    `bun:"user_id,notnull"`
	TicketType   string    `bun:"ticket_type"`
	PurchaseDate time.Time `bun:"purchase_date,notnull"`
	EventName    string    `bun:"event_name"`
	AttendeeName string    `bun:"attendee_name"`
	Price        float64   `bun:"price"`
	Currency     string    `bun:"currency"`
	IntegrityTag string    `bun:"integrity_tag,notnull"`
	QRCode       []byte    `bun:"qr_code"`
}

// Record converts the stored row back to the wire form.
func (t *Ticket) Record() TicketRecord {
	return TicketRecord{
		TicketID:     t.TicketID,
		EventID:      t.EventID,
		UserID:       t.UserID,
		TicketType:   t.TicketType,
		PurchaseDate: t.PurchaseDate.UTC().Format(time.RFC3339),
		EventName:    t.EventName,
		AttendeeName: t.AttendeeName,
		Price:        t.Price,
		Currency:     t.Currency,
		IntegrityTag: t.IntegrityTag,
	}
}
