package ticket_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"evoke-ticketing/internal/codec"
	"evoke-ticketing/internal/logger"
	tickets "evoke-ticketing/internal/tickets/service"
	"evoke-ticketing/internal/tickets/template"
	"evoke-ticketing/internal/utils"
)

type Handler struct {
	TicketService *tickets.TicketService
	PDFGenerator  *template.TicketPDFGenerator
	Logger        *logger.Logger
}

func NewHandler(service *tickets.TicketService, log *logger.Logger) *Handler {
	return &Handler{
		TicketService: service,
		PDFGenerator:  template.NewTicketPDFGenerator(),
		Logger:        log,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/tickets", h.IssueTicket)
	r.Get("/tickets/{ticketID}", h.GetTicket)
	r.Get("/tickets/{ticketID}/qr", h.TicketQR)
	r.Get("/tickets/{ticketID}/pdf", h.TicketPDF)
	r.Delete("/tickets/{ticketID}", h.CancelTicket)
	r.Get("/events/{eventID}/tickets/qr", h.EventTicketsQR)
	r.Get("/users/{userID}/tickets", h.UserTickets)
}

// IssueTicket creates, renders and stores a ticket from the caller-supplied
// business fields.
func (h *Handler) IssueTicket(w http.ResponseWriter, r *http.Request) {
	var req tickets.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	if req.EventID == "" || req.UserID == "" {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("eventId and userId are required", ""))
		return
	}

	ticket, err := h.TicketService.IssueTicket(req)
	if err != nil {
		if errors.Is(err, codec.ErrPayloadTooLarge) {
			h.writeJSON(w, http.StatusUnprocessableEntity, utils.ErrorResponse("ticket payload too large for QR options", err.Error()))
			return
		}
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to issue ticket", err.Error()))
		return
	}

	h.Logger.LogTicket("ISSUE", ticket.TicketID, fmt.Sprintf("event=%s user=%s", ticket.EventID, ticket.UserID))
	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("ticket issued", map[string]interface{}{
		"ticket": ticket.Record(),
		"qr":     ticket.QRCode,
	}))
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	ticket, err := h.TicketService.GetTicket(ticketID)
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("ticket not found", err.Error()))
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("ticket", ticket.Record()))
}

// TicketQR serves the ticket's QR image for display or download.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	png, err := h.TicketService.TicketQR(ticketID)
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("ticket not found", err.Error()))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// TicketPDF serves a printable ticket with the QR embedded.
func (h *Handler) TicketPDF(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	ticket, err := h.TicketService.GetTicket(ticketID)
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("ticket not found", err.Error()))
		return
	}

	pdfBytes, err := h.PDFGenerator.Generate(*ticket)
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to generate PDF", err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", ticketID))
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}

func (h *Handler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	if err := h.TicketService.CancelTicket(ticketID); err != nil {
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("ticket not found", err.Error()))
		return
	}
	h.Logger.LogTicket("CANCEL", ticketID, "ticket cancelled")
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("ticket cancelled", nil))
}

type bulkQRItem struct {
	TicketID string `json:"ticketId"`
	QR       []byte `json:"qr,omitempty"`
	Error    string `json:"error,omitempty"`
}

// EventTicketsQR bulk-renders every ticket of an event. Records that don't
// fit the requested options come back as per-item errors alongside the
// successful renders.
func (h *Handler) EventTicketsQR(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	opts := h.TicketService.Options
	if levelParam := r.URL.Query().Get("level"); levelParam != "" {
		level, err := codec.ParseRecoveryLevel(levelParam)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid recovery level", err.Error()))
			return
		}
		opts.Level = level
	}

	items, err := h.TicketService.RenderEventTickets(eventID, opts)
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("no tickets for event", err.Error()))
		return
	}

	out := make([]bulkQRItem, 0, len(items))
	failures := 0
	for _, item := range items {
		entry := bulkQRItem{TicketID: item.TicketID, QR: item.PNG}
		if item.Err != nil {
			entry.Error = item.Err.Error()
			failures++
		}
		out = append(out, entry)
	}

	h.Logger.LogTicket("BULK_QR", eventID, fmt.Sprintf("%d rendered, %d failed", len(out)-failures, failures))
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("event tickets rendered", out))
}

func (h *Handler) UserTickets(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	userTickets, err := h.TicketService.GetTicketsByUser(userID)
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("no tickets for user", err.Error()))
		return
	}

	records := make([]interface{}, 0, len(userTickets))
	for i := range userTickets {
		records = append(records, userTickets[i].Record())
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("user tickets", records))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
