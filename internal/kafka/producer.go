package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"evoke-ticketing/internal/models"
)

// TicketIssuedEvent is streamed when a ticket is created and rendered.
type TicketIssuedEvent struct {
	EventID  string              `json:"event_id"`
	Ticket   models.TicketRecord `json:"ticket"`
	IssuedAt time.Time           `json:"issued_at"`
}

// TicketRedeemedEvent is streamed after the guard accepts a scan.
type TicketRedeemedEvent struct {
	EventID    string    `json:"event_id"`
	TicketID   string    `json:"ticket_id"`
	ScannerID  string    `json:"scanner_id,omitempty"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

type Producer struct {
	issuedWriter   *kafka.Writer
	redeemedWriter *kafka.Writer
}

func NewProducer(brokers []string, issuedTopic, redeemedTopic string) *Producer {
	return &Producer{
		issuedWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   issuedTopic,
		}),
		redeemedWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   redeemedTopic,
		}),
	}
}

// PublishTicketIssued streams the issuance event, keyed by ticket ID so one
// ticket's events stay in partition order.
func (p *Producer) PublishTicketIssued(ctx context.Context, ticket models.TicketRecord) error {
	event := TicketIssuedEvent{
		EventID:  uuid.NewString(),
		Ticket:   ticket,
		IssuedAt: time.Now().UTC(),
	}
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.issuedWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ticket.TicketID),
		Value: msgBytes,
	})
}

// PublishTicketRedeemed streams the redemption event.
func (p *Producer) PublishTicketRedeemed(ctx context.Context, ticketID, scannerID string) error {
	event := TicketRedeemedEvent{
		EventID:    uuid.NewString(),
		TicketID:   ticketID,
		ScannerID:  scannerID,
		RedeemedAt: time.Now().UTC(),
	}
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.redeemedWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ticketID),
		Value: msgBytes,
	})
}

func (p *Producer) Close() error {
	if err := p.issuedWriter.Close(); err != nil {
		return err
	}
	return p.redeemedWriter.Close()
}
