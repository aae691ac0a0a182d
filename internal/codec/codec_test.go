package codec_test

import (
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"evoke-ticketing/internal/codec"
	"evoke-ticketing/internal/models"
)

var (
	ticketIDPattern = regexp.MustCompile(`^TKT-\d+-[A-Z0-9]{6}$`)
	tagPattern      = regexp.MustCompile(`^[A-Za-z0-9]{16}$`)
)

func newLaunchTicket(t *testing.T) models.TicketRecord {
	t.Helper()
	c := codec.New()
	return c.CreateTicket("EVT-1", "USR-1", "VIP", "Launch Night", "Jane Doe", 10000, "NGN")
}

func TestCreateTicketShape(t *testing.T) {
	rec := newLaunchTicket(t)

	if !ticketIDPattern.MatchString(rec.TicketID) {
		t.Errorf("ticket ID %q does not match expected format", rec.TicketID)
	}
	if _, err := time.Parse(time.RFC3339, rec.PurchaseDate); err != nil {
		t.Errorf("purchase date %q is not RFC 3339: %v", rec.PurchaseDate, err)
	}
	if !tagPattern.MatchString(rec.IntegrityTag) {
		t.Errorf("integrity tag %q is not 16 alphanumeric characters", rec.IntegrityTag)
	}
	if rec.EventID != "EVT-1" || rec.UserID != "USR-1" || rec.Price != 10000 {
		t.Errorf("business fields not carried through: %+v", rec)
	}
}

func TestCreateTicketUniqueIDs(t *testing.T) {
	c := codec.New()
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		rec := c.CreateTicket("EVT-1", "USR-1", "GA", "Launch Night", "Jane Doe", 100, "NGN")
		if seen[rec.TicketID] {
			t.Fatalf("duplicate ticket ID generated: %s", rec.TicketID)
		}
		seen[rec.TicketID] = true
	}
}

func TestRoundTrip(t *testing.T) {
	c := codec.New()
	rec := newLaunchTicket(t)

	payload, err := codec.Serialize(rec)
	if err != nil {
		t.Fatalf("failed to serialize: %v", err)
	}

	decoded, err := c.DecodeAndVerify(payload)
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if *decoded != rec {
		t.Errorf("decoded record differs from original:\n got %+v\nwant %+v", *decoded, rec)
	}
}

// mutatePayload reserializes the payload with one key changed.
func mutatePayload(t *testing.T, payload, key string, value interface{}) string {
	t.Helper()
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	obj[key] = value
	out, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("failed to remarshal payload: %v", err)
	}
	return string(out)
}

func TestTamperCoveredFieldsDetected(t *testing.T) {
	c := codec.New()
	rec := newLaunchTicket(t)
	payload, err := codec.Serialize(rec)
	if err != nil {
		t.Fatalf("failed to serialize: %v", err)
	}

	covered := map[string]interface{}{
		"ticketId":     "TKT-1-AAAAAA",
		"eventId":      "EVT-2",
		"userId":       "USR-2",
		"purchaseDate": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	}
	for key, value := range covered {
		tampered := mutatePayload(t, payload, key, value)
		_, err := c.DecodeAndVerify(tampered)
		if !errors.Is(err, codec.ErrTagMismatch) {
			t.Errorf("tampering %s: expected tag mismatch, got %v", key, err)
		}
	}
}

func TestTamperUncoveredFieldsUndetected(t *testing.T) {
	// The tag covers only the four identity fields. Changing the display
	// and price fields without touching the tag still verifies; the test
	// pins this documented property of the scheme.
	c := codec.New()
	rec := newLaunchTicket(t)
	payload, err := codec.Serialize(rec)
	if err != nil {
		t.Fatalf("failed to serialize: %v", err)
	}

	uncovered := map[string]interface{}{
		"price":        float64(1),
		"ticketType":   "FREE",
		"eventName":    "Another Event",
		"attendeeName": "Mallory",
		"currency":     "USD",
	}
	for key, value := range uncovered {
		tampered := mutatePayload(t, payload, key, value)
		decoded, err := c.DecodeAndVerify(tampered)
		if err != nil {
			t.Errorf("tampering %s: expected successful verification, got %v", key, err)
			continue
		}
		if decoded.TicketID != rec.TicketID {
			t.Errorf("tampering %s: identity fields should be intact", key)
		}
	}
}

func TestMissingRequiredFields(t *testing.T) {
	c := codec.New()
	rec := newLaunchTicket(t)
	payload, err := codec.Serialize(rec)
	if err != nil {
		t.Fatalf("failed to serialize: %v", err)
	}

	for _, key := range []string{"ticketId", "eventId", "userId", "hash"} {
		emptied := mutatePayload(t, payload, key, "")
		_, err := c.DecodeAndVerify(emptied)
		if !errors.Is(err, codec.ErrMissingField) {
			t.Errorf("empty %s: expected missing field error, got %v", key, err)
		}
	}
}

func TestMalformedPayloads(t *testing.T) {
	c := codec.New()
	cases := map[string]string{
		"not json":      "not json at all",
		"bare string":   `"just a string"`,
		"array":         `[1,2,3]`,
		"number":        `42`,
		"unknown key":   `{"ticketId":"a","eventId":"b","userId":"c","hash":"d","extra":"x"}`,
		"trailing data": `{"ticketId":"a"} {"eventId":"b"}`,
		"empty":         "",
	}
	for name, payload := range cases {
		_, err := c.DecodeAndVerify(payload)
		if !errors.Is(err, codec.ErrMalformedPayload) {
			t.Errorf("%s: expected malformed payload error, got %v", name, err)
		}
	}
}

func TestWeakTaggerDeterministic(t *testing.T) {
	tagger := codec.WeakTagger{}
	a := tagger.Tag("TKT-1-ABC123", "EVT-1", "USR-1", "2026-01-01T00:00:00Z")
	b := tagger.Tag("TKT-1-ABC123", "EVT-1", "USR-1", "2026-01-01T00:00:00Z")
	if a != b {
		t.Errorf("tag is not deterministic: %q vs %q", a, b)
	}
	if !tagPattern.MatchString(a) {
		t.Errorf("tag %q is not 16 alphanumeric characters", a)
	}

	c := tagger.Tag("TKT-1-ABC124", "EVT-1", "USR-1", "2026-01-01T00:00:00Z")
	if a == c {
		t.Error("different ticket IDs should produce different tags")
	}
}

func TestWeakTaggerCoversAllFields(t *testing.T) {
	// Full-length ticket IDs push the later fields deep into the input; a
	// change to any single field, however far in, must still move the tag.
	tagger := codec.WeakTagger{}
	base := tagger.Tag("TKT-1756500000000-ABC123", "EVT-1", "USR-1", "2026-01-01T00:00:00Z")

	variants := map[string]string{
		"ticket suffix": tagger.Tag("TKT-1756500000000-ABC124", "EVT-1", "USR-1", "2026-01-01T00:00:00Z"),
		"event":         tagger.Tag("TKT-1756500000000-ABC123", "EVT-2", "USR-1", "2026-01-01T00:00:00Z"),
		"user":          tagger.Tag("TKT-1756500000000-ABC123", "EVT-1", "USR-2", "2026-01-01T00:00:00Z"),
		"purchase date": tagger.Tag("TKT-1756500000000-ABC123", "EVT-1", "USR-1", "2026-01-01T00:00:01Z"),
	}
	for name, tag := range variants {
		if tag == base {
			t.Errorf("changing the %s did not change the tag", name)
		}
		if !tagPattern.MatchString(tag) {
			t.Errorf("tag %q is not 16 alphanumeric characters", tag)
		}
	}
}

type fixedTagger struct{ tag string }

func (f fixedTagger) Tag(_, _, _, _ string) string { return f.tag }

func TestCustomTagger(t *testing.T) {
	c := codec.NewWithTagger(fixedTagger{tag: "CUSTOMTAG0000000"})
	rec := c.CreateTicket("EVT-1", "USR-1", "VIP", "Launch Night", "Jane Doe", 100, "NGN")
	if rec.IntegrityTag != "CUSTOMTAG0000000" {
		t.Errorf("custom tagger not used: %q", rec.IntegrityTag)
	}

	payload, err := codec.Serialize(rec)
	if err != nil {
		t.Fatalf("failed to serialize: %v", err)
	}
	if _, err := c.DecodeAndVerify(payload); err != nil {
		t.Errorf("record tagged by the custom tagger should verify: %v", err)
	}

	// The default codec must reject it: different tagger, different tags.
	if _, err := codec.New().DecodeAndVerify(payload); !errors.Is(err, codec.ErrTagMismatch) {
		t.Errorf("expected tag mismatch under the default tagger, got %v", err)
	}
}

func TestIsExpired(t *testing.T) {
	rec := newLaunchTicket(t)
	if codec.IsExpired(rec, time.Now().Add(time.Hour)) {
		t.Error("ticket should not be expired before the event instant")
	}
	if !codec.IsExpired(rec, time.Now().Add(-time.Hour)) {
		t.Error("ticket should be expired after the event instant")
	}
}
