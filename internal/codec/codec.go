package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"evoke-ticketing/internal/models"
	"evoke-ticketing/internal/utils"
)

// TagLength is the fixed length of the integrity tag carried in the payload.
const TagLength = 16

// Tagger computes the integrity tag over the four covered identity fields.
// It exists so a keyed MAC can replace the default transform later without
// touching the codec's calling convention; swapping it changes the wire
// format and invalidates already-issued tickets.
type Tagger interface {
	Tag(ticketID, eventID, userID, purchaseDate string) string
}

// WeakTagger is the default: join the four fields with "|", base64 the
// result, then fold the whole encoding down to TagLength hex characters with
// FNV-1a. The fold guarantees every covered field influences every character
// of the tag; a plain prefix truncation would cover only the leading bytes,
// leaving three of the four fields outside the tag entirely. The transform is
// deterministic and unkeyed, so anyone who can read this function can forge a
// tag. That is a documented property of the scheme, not an oversight.
type WeakTagger struct{}

func (WeakTagger) Tag(ticketID, eventID, userID, purchaseDate string) string {
	joined := strings.Join([]string{ticketID, eventID, userID, purchaseDate}, "|")
	enc := base64.StdEncoding.EncodeToString([]byte(joined))

	h := fnv.New64a()
	h.Write([]byte(enc))
	return fmt.Sprintf("%016x", h.Sum64())
}

// Codec builds, serializes and verifies ticket records. All operations are
// pure aside from the clock and random reads in CreateTicket.
type Codec struct {
	tagger Tagger
}

func New() *Codec {
	return &Codec{tagger: WeakTagger{}}
}

func NewWithTagger(t Tagger) *Codec {
	return &Codec{tagger: t}
}

// CreateTicket builds a tagged record for a fresh ticket. Inputs are trusted;
// validation of event/user existence and price ranges happens upstream.
func (c *Codec) CreateTicket(eventID, userID, ticketType, eventName, attendeeName string, price float64, currency string) models.TicketRecord {
	rec := models.TicketRecord{
		TicketID:     utils.GenerateTicketID(),
		EventID:      eventID,
		UserID:       userID,
		TicketType:   ticketType,
		PurchaseDate: time.Now().UTC().Format(time.RFC3339),
		EventName:    eventName,
		AttendeeName: attendeeName,
		Price:        price,
		Currency:     currency,
	}
	rec.IntegrityTag = c.tagger.Tag(rec.TicketID, rec.EventID, rec.UserID, rec.PurchaseDate)
	return rec
}

// Serialize produces the canonical payload text: the ten-key JSON object in
// struct field order.
func Serialize(rec models.TicketRecord) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeAndVerify parses scanned payload text and checks its integrity tag.
// It does not consult redemption state or expiry; those are the guard's and
// the caller's concerns. Unknown keys are rejected so the decoder fails
// closed on foreign payload shapes.
func (c *Codec) DecodeAndVerify(payloadText string) (*models.TicketRecord, error) {
	dec := json.NewDecoder(strings.NewReader(payloadText))
	dec.DisallowUnknownFields()

	var rec models.TicketRecord
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after ticket object", ErrMalformedPayload)
	}

	required := []struct {
		key   string
		value string
	}{
		{"ticketId", rec.TicketID},
		{"eventId", rec.EventID},
		{"userId", rec.UserID},
		{"hash", rec.IntegrityTag},
	}
	for _, f := range required {
		if f.value == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, f.key)
		}
	}

	expected := c.tagger.Tag(rec.TicketID, rec.EventID, rec.UserID, rec.PurchaseDate)
	if expected != rec.IntegrityTag {
		return nil, fmt.Errorf("%w: ticket %s", ErrTagMismatch, rec.TicketID)
	}
	return &rec, nil
}

// IsExpired reports whether the wall clock has passed the event instant.
// What to do about an expired ticket (reject or warn) is the caller's call.
func IsExpired(_ models.TicketRecord, eventInstant time.Time) bool {
	return time.Now().After(eventInstant)
}
