package scan_api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"evoke-ticketing/internal/auth"
	"evoke-ticketing/internal/logger"
	"evoke-ticketing/internal/scan"
	"evoke-ticketing/internal/utils"
)

type Handler struct {
	ScanService *scan.Service
	Logger      *logger.Logger
	RequireAuth bool
}

func NewHandler(service *scan.Service, log *logger.Logger, requireAuth bool) *Handler {
	return &Handler{ScanService: service, Logger: log, RequireAuth: requireAuth}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/checkin", h.Checkin)
	r.Get("/tickets/{ticketID}/consumed", h.IsConsumed)
}

// Operator-facing messages per rejection category. Malformed and missing
// read as a scanning glitch; a tag mismatch is a different message because
// it points at tampering rather than a bad read.
var categoryMessages = map[scan.Category]string{
	scan.CategoryAccepted:         "entry granted",
	scan.CategoryAlreadyUsed:      "ticket already redeemed",
	scan.CategoryExpired:          "ticket expired for this event",
	scan.CategoryTagMismatch:      "invalid ticket",
	scan.CategoryMissingField:     "unreadable code, please retry",
	scan.CategoryMalformedPayload: "unreadable code, please retry",
}

var categoryStatus = map[scan.Category]int{
	scan.CategoryAccepted:         http.StatusOK,
	scan.CategoryAlreadyUsed:      http.StatusConflict,
	scan.CategoryExpired:          http.StatusGone,
	scan.CategoryTagMismatch:      http.StatusBadRequest,
	scan.CategoryMissingField:     http.StatusBadRequest,
	scan.CategoryMalformedPayload: http.StatusBadRequest,
}

// Checkin runs one payload through the scan pipeline.
// Expected POST body: {"payload": "<text decoded from the QR>"}
func (h *Handler) Checkin(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Payload string `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	if requestBody.Payload == "" {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("payload is required", ""))
		return
	}

	scannerID := ""
	if h.RequireAuth {
		tokenString, err := auth.ExtractTokenFromRequest(r)
		if err != nil {
			h.writeJSON(w, http.StatusUnauthorized, utils.ErrorResponse("authorization required", err.Error()))
			return
		}
		scannerID, err = auth.ExtractUserIDFromJWT(tokenString)
		if err != nil {
			h.writeJSON(w, http.StatusUnauthorized, utils.ErrorResponse("invalid token", err.Error()))
			return
		}
	}

	result, err := h.ScanService.Scan(r.Context(), requestBody.Payload, scannerID)
	if err != nil {
		// Store failure: the scan is undecided, not rejected.
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("checkin failed", err.Error()))
		return
	}

	status := categoryStatus[result.Category]
	message := categoryMessages[result.Category]
	if result.Accepted() {
		h.writeJSON(w, status, utils.SuccessResponse(message, result))
		return
	}
	response := utils.ErrorResponse(message, result.Reason)
	response.Data = result
	h.writeJSON(w, status, response)
}

// IsConsumed is the read-only probe, useful before retrying a timed-out
// checkin.
func (h *Handler) IsConsumed(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	consumed, err := h.ScanService.Guard.IsConsumed(r.Context(), ticketID)
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("store probe failed", err.Error()))
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("consumed state", map[string]interface{}{
		"ticketId": ticketID,
		"consumed": consumed,
	}))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
