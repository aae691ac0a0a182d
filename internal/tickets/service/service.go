package tickets

import (
	"context"
	"fmt"
	"time"

	"evoke-ticketing/internal/codec"
	"evoke-ticketing/internal/logger"
	"evoke-ticketing/internal/models"
)

type TicketDBLayer interface {
	CreateTicket(ticket models.Ticket) error
	GetTicketByID(ticketID string) (*models.Ticket, error)
	GetTicketsByEvent(eventID string) ([]models.Ticket, error)
	GetTicketsByUser(userID string) ([]models.Ticket, error)
	DeleteTicket(ticketID string) error
}

// IssuedPublisher streams issuance events; publishing is best-effort and
// never fails the issuance itself.
type IssuedPublisher interface {
	PublishTicketIssued(ctx context.Context, ticket models.TicketRecord) error
}

// IssueRequest carries the caller-supplied business fields for one ticket.
// The service trusts them; existence and range checks happen upstream.
type IssueRequest struct {
	EventID      string  `json:"eventId"`
	UserID       string  `json:"userId"`
	TicketType   string  `json:"ticketType"`
	EventName    string  `json:"eventName"`
	AttendeeName string  `json:"attendeeName"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
}

type TicketService struct {
	DB        TicketDBLayer
	Codec     *codec.Codec
	Publisher IssuedPublisher
	Logger    *logger.Logger
	Options   codec.RenderOptions
}

func NewTicketService(db TicketDBLayer, c *codec.Codec, opts codec.RenderOptions) *TicketService {
	return &TicketService{DB: db, Codec: c, Options: opts}
}

// IssueTicket creates the tagged record, renders its QR and persists both.
func (s *TicketService) IssueTicket(req IssueRequest) (*models.Ticket, error) {
	rec := s.Codec.CreateTicket(req.EventID, req.UserID, req.TicketType, req.EventName, req.AttendeeName, req.Price, req.Currency)

	qrBytes, err := codec.RenderTicket(rec, s.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR for ticket %s: %w", rec.TicketID, err)
	}

	purchasedAt, err := time.Parse(time.RFC3339, rec.PurchaseDate)
	if err != nil {
		return nil, fmt.Errorf("bad purchase date on fresh ticket: %w", err)
	}

	ticket := models.Ticket{
		TicketID:     rec.TicketID,
		EventID:      rec.EventID,
		UserID:       rec.UserID,
		TicketType:   rec.TicketType,
		PurchaseDate: purchasedAt,
		EventName:    rec.EventName,
		AttendeeName: rec.AttendeeName,
		Price:        rec.Price,
		Currency:     rec.Currency,
		IntegrityTag: rec.IntegrityTag,
		QRCode:       qrBytes,
	}

	if err := s.DB.CreateTicket(ticket); err != nil {
		return nil, fmt.Errorf("failed to store ticket %s: %w", rec.TicketID, err)
	}

	if s.Publisher != nil {
		if err := s.Publisher.PublishTicketIssued(context.Background(), rec); err != nil && s.Logger != nil {
			s.Logger.LogKafka("PUBLISH", "ticket-issued", fmt.Sprintf("failed for %s: %v", rec.TicketID, err))
		}
	}
	return &ticket, nil
}

func (s *TicketService) GetTicket(ticketID string) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByID(ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket %s not found: %w", ticketID, err)
	}
	return ticket, nil
}

// TicketQR returns the stored QR PNG for a ticket.
func (s *TicketService) TicketQR(ticketID string) ([]byte, error) {
	ticket, err := s.GetTicket(ticketID)
	if err != nil {
		return nil, err
	}
	if len(ticket.QRCode) == 0 {
		// Stored before rendering existed; render on the fly.
		return codec.RenderTicket(ticket.Record(), s.Options)
	}
	return ticket.QRCode, nil
}

// RenderEventTickets re-renders every ticket of an event with the given
// options. Per-record failures come back inside the items, not as an error.
func (s *TicketService) RenderEventTickets(eventID string, opts codec.RenderOptions) ([]codec.BulkRenderItem, error) {
	tickets, err := s.DB.GetTicketsByEvent(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickets for event %s: %w", eventID, err)
	}
	if len(tickets) == 0 {
		return nil, fmt.Errorf("no tickets found for event %s", eventID)
	}

	records := make([]models.TicketRecord, 0, len(tickets))
	for i := range tickets {
		records = append(records, tickets[i].Record())
	}
	return codec.RenderBulk(records, opts), nil
}

func (s *TicketService) GetTicketsByUser(userID string) ([]models.Ticket, error) {
	tickets, err := s.DB.GetTicketsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickets for user %s: %w", userID, err)
	}
	if len(tickets) == 0 {
		return nil, fmt.Errorf("no tickets found for user %s", userID)
	}
	return tickets, nil
}

func (s *TicketService) CancelTicket(ticketID string) error {
	if _, err := s.DB.GetTicketByID(ticketID); err != nil {
		return fmt.Errorf("ticket %s not found: %w", ticketID, err)
	}
	if err := s.DB.DeleteTicket(ticketID); err != nil {
		return fmt.Errorf("failed to cancel ticket: %w", err)
	}
	return nil
}
