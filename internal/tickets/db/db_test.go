package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"evoke-ticketing/internal/models"
	"evoke-ticketing/internal/tickets/db"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	if err := bunDB.ResetModel(context.Background(), (*models.Ticket)(nil)); err != nil {
		t.Fatalf("Failed to reset model: %v", err)
	}
	return &db.DB{Bun: bunDB}
}

func sampleTicket(ticketID, eventID, userID string) models.Ticket {
	return models.Ticket{
		TicketID:     ticketID,
		EventID:      eventID,
		UserID:       userID,
		TicketType:   "VIP",
		PurchaseDate: time.Now().UTC(),
		EventName:    "Launch Night",
		AttendeeName: "Jane Doe",
		Price:        10000,
		Currency:     "NGN",
		IntegrityTag: "VEtULTEtQUJDMTIz",
		QRCode:       []byte("png-bytes"),
	}
}

func TestCreateAndGetTicket(t *testing.T) {
	database := setupTestDB(t)

	ticket := sampleTicket("TKT-1-ABC123", "EVT-1", "USR-1")
	if err := database.CreateTicket(ticket); err != nil {
		t.Fatalf("Failed to create ticket: %v", err)
	}

	retrieved, err := database.GetTicketByID("TKT-1-ABC123")
	if err != nil {
		t.Fatalf("Failed to retrieve ticket: %v", err)
	}
	if retrieved.TicketID != ticket.TicketID {
		t.Errorf("Expected ticket ID %s, got %s", ticket.TicketID, retrieved.TicketID)
	}
	if retrieved.IntegrityTag != ticket.IntegrityTag {
		t.Errorf("Expected tag %s, got %s", ticket.IntegrityTag, retrieved.IntegrityTag)
	}
	if string(retrieved.QRCode) != string(ticket.QRCode) {
		t.Error("QR bytes were not round-tripped")
	}
}

func TestGetTicketsByEvent(t *testing.T) {
	database := setupTestDB(t)

	for _, ticket := range []models.Ticket{
		sampleTicket("TKT-1-AAAAAA", "EVT-1", "USR-1"),
		sampleTicket("TKT-2-BBBBBB", "EVT-1", "USR-2"),
		sampleTicket("TKT-3-CCCCCC", "EVT-2", "USR-1"),
	} {
		if err := database.CreateTicket(ticket); err != nil {
			t.Fatalf("Failed to create ticket: %v", err)
		}
	}

	tickets, err := database.GetTicketsByEvent("EVT-1")
	if err != nil {
		t.Fatalf("Failed to list tickets: %v", err)
	}
	if len(tickets) != 2 {
		t.Errorf("Expected 2 tickets for EVT-1, got %d", len(tickets))
	}

	tickets, err = database.GetTicketsByUser("USR-1")
	if err != nil {
		t.Fatalf("Failed to list user tickets: %v", err)
	}
	if len(tickets) != 2 {
		t.Errorf("Expected 2 tickets for USR-1, got %d", len(tickets))
	}
}

func TestDeleteTicket(t *testing.T) {
	database := setupTestDB(t)

	if err := database.CreateTicket(sampleTicket("TKT-1-ABC123", "EVT-1", "USR-1")); err != nil {
		t.Fatalf("Failed to create ticket: %v", err)
	}
	if err := database.DeleteTicket("TKT-1-ABC123"); err != nil {
		t.Fatalf("Failed to delete ticket: %v", err)
	}
	if _, err := database.GetTicketByID("TKT-1-ABC123"); err == nil {
		t.Error("Deleted ticket should not be retrievable")
	}
}
