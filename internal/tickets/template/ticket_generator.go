package template

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/signintech/gopdf"

	"evoke-ticketing/internal/models"
)

type TicketPDFGenerator struct {
	FontPath string
}

func NewTicketPDFGenerator() *TicketPDFGenerator {
	return &TicketPDFGenerator{FontPath: "./fonts/DejaVuSans.ttf"}
}

// Generate renders a printable A4 ticket: the business fields plus the
// scannable QR.
func (g *TicketPDFGenerator) Generate(ticket models.Ticket) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := pdf.AddTTFFont("dejavu", g.FontPath); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	if err := pdf.SetFont("dejavu", "", 14); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}

	addHeader(pdf, ticket)

	pdf.SetY(60)
	addTicketInfo(pdf, ticket)

	if len(ticket.QRCode) > 0 {
		pdf.SetY(pdf.GetY() + 20)
		addQRCode(pdf, ticket.QRCode)
	}

	pdf.SetY(260)
	addFooter(pdf)

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func addHeader(pdf *gopdf.GoPdf, ticket models.Ticket) {
	pdf.SetX(40)
	pdf.SetY(30)
	pdf.Cell(nil, ticket.EventName)
}

func addTicketInfo(pdf *gopdf.GoPdf, ticket models.Ticket) {
	info := []struct {
		Label string
		Value string
	}{
		{"Ticket ID", ticket.TicketID},
		{"Attendee", ticket.AttendeeName},
		{"Type", ticket.TicketType},
		{"Price", fmt.Sprintf("%.2f %s", ticket.Price, ticket.Currency)},
		{"Purchased", ticket.PurchaseDate.Format("2006-01-02 15:04")},
	}

	for _, item := range info {
		pdf.Cell(nil, item.Label+": "+item.Value)
		pdf.Br(20)
	}
}

func addQRCode(pdf *gopdf.GoPdf, qrCode []byte) {
	img, err := png.Decode(bytes.NewReader(qrCode))
	if err != nil {
		pdf.Cell(nil, "Failed to load QR code")
		return
	}

	rect := &gopdf.Rect{W: 100, H: 100}
	if err := pdf.ImageFrom(img, 100, pdf.GetY(), rect); err != nil {
		pdf.Cell(nil, "Failed to draw QR code")
	}
}

func addFooter(pdf *gopdf.GoPdf) {
	pdf.SetX(50)
	pdf.Cell(nil, "Present this ticket at the entrance. One scan per ticket.")
}
