package api

import (
	"fmt"
	"net/http"

	"ms-parking/internal/models"
	"ms-parking/internal/parking"
	"ms-parking/internal/utils"

	"github.com/go-chi/chi/v5"
)

type checkInRequest struct {
	GateID         string `json:"gateId"`
	ZoneID         string `json:"zoneId"`
	Type           string `json:"type"`
	SubscriptionID string `json:"subscriptionId"`
}

type checkoutRequest struct {
	TicketID              string `json:"ticketId"`
	QR                    string `json:"qr"`
	ForceConvertToVisitor bool   `json:"forceConvertToVisitor"`
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeBadRequest(w, err)
		return
	}

	res, err := h.Service.CheckIn(parking.CheckInRequest{
		GateID:         req.GateID,
		ZoneID:         req.ZoneID,
		Type:           models.TicketType(req.Type),
		SubscriptionID: req.SubscriptionID,
	})
	if err != nil {
		h.Logger.Debug("TICKET", fmt.Sprintf("Check-in at %s/%s rejected: %v", req.GateID, req.ZoneID, err))
		h.writeServiceError(w, r, err)
		return
	}

	h.Logger.LogTicket("CHECKIN", res.Ticket.ID, fmt.Sprintf("%s entered %s via %s", res.Ticket.Type, res.Ticket.ZoneID, res.Ticket.GateID))
	utils.WriteJSON(w, http.StatusCreated, res)
}

// Checkout accepts either a ticket id or the encrypted payload scanned from
// a printed ticket.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeBadRequest(w, err)
		return
	}

	ticketID := req.TicketID
	if ticketID == "" && req.QR != "" {
		payload, err := h.QR.Decrypt(req.QR)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid QR code")
			return
		}
		ticketID = payload.TicketID
	}

	res, err := h.Service.Checkout(parking.CheckoutRequest{
		TicketID:              ticketID,
		ForceConvertToVisitor: req.ForceConvertToVisitor,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.Logger.LogTicket("CHECKOUT", res.TicketID, fmt.Sprintf("billed %s %.2f for %.4fh", res.BillingType, res.Amount, res.DurationHours))
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.Service.GetTicket(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, ticket)
}

// GetTicketQR renders the printable QR code of a ticket.
func (h *Handler) GetTicketQR(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.Service.GetTicket(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	png, err := h.QR.Encode(*ticket)
	if err != nil {
		h.writeServiceError(w, r, fmt.Errorf("failed to render QR for %s: %w", ticket.ID, err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
