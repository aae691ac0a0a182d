package codec

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/skip2/go-qrcode"

	"evoke-ticketing/internal/models"
)

// ParseRecoveryLevel maps a config string to a QR recovery level.
func ParseRecoveryLevel(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(s) {
	case "low":
		return qrcode.Low, nil
	case "", "medium":
		return qrcode.Medium, nil
	case "high":
		return qrcode.High, nil
	case "highest":
		return qrcode.Highest, nil
	}
	return qrcode.Medium, fmt.Errorf("unknown recovery level %q", s)
}

// RenderOptions controls the QR rendering. Level trades redundancy against
// payload capacity: a record that overflows at qrcode.Highest may still fit
// at qrcode.Low.
type RenderOptions struct {
	Size          int
	Level         qrcode.RecoveryLevel
	Foreground    color.Color
	Background    color.Color
	DisableBorder bool
}

func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Size:  256,
		Level: qrcode.Medium,
	}
}

// BulkRenderItem is one record's outcome in a bulk render. Exactly one of
// PNG and Err is set.
type BulkRenderItem struct {
	TicketID string
	PNG      []byte
	Err      error
}

// RenderTicket serializes the record and encodes it as a QR PNG.
func RenderTicket(rec models.TicketRecord, opts RenderOptions) ([]byte, error) {
	payload, err := Serialize(rec)
	if err != nil {
		return nil, err
	}

	q, err := qrcode.New(payload, opts.Level)
	if err != nil {
		// The encoder only fails when the payload overflows the symbol
		// capacity for the requested recovery level.
		return nil, fmt.Errorf("%w: %v", ErrPayloadTooLarge, err)
	}

	if opts.Foreground != nil {
		q.ForegroundColor = opts.Foreground
	}
	if opts.Background != nil {
		q.BackgroundColor = opts.Background
	}
	q.DisableBorder = opts.DisableBorder

	size := opts.Size
	if size <= 0 {
		size = DefaultRenderOptions().Size
	}
	return q.PNG(size)
}

// RenderBulk renders each record independently, preserving input order. One
// oversized record does not abort the batch; its entry carries the error and
// every other entry carries its PNG.
func RenderBulk(records []models.TicketRecord, opts RenderOptions) []BulkRenderItem {
	items := make([]BulkRenderItem, 0, len(records))
	for _, rec := range records {
		png, err := RenderTicket(rec, opts)
		items = append(items, BulkRenderItem{
			TicketID: rec.TicketID,
			PNG:      png,
			Err:      err,
		})
	}
	return items
}
