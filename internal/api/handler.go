// Package api exposes the parking service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-parking/internal/auth"
	"ms-parking/internal/logger"
	"ms-parking/internal/parking"
	"ms-parking/internal/tickets/qr"
	"ms-parking/internal/utils"
)

// Handler holds the dependencies shared by every endpoint.
type Handler struct {
	Service *parking.Service
	Auth    *auth.Authenticator
	QR      *qr.QRGenerator
	Logger  *logger.Logger
}

// decodeJSON reads the request body into v. An empty body leaves v zeroed.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// statusFor maps a domain error kind to an HTTP status.
func statusFor(err error) int {
	switch parking.KindOf(err) {
	case parking.KindNotFound:
		return http.StatusNotFound
	case parking.KindConflict:
		return http.StatusConflict
	case parking.KindInvalidInput:
		return http.StatusBadRequest
	case parking.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s %s failed: %v", r.Method, r.URL.Path, err))
		message = "Internal server error"
	}
	utils.WriteError(w, status, message)
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, err error) {
	var perr *parking.Error
	if errors.As(err, &perr) {
		utils.WriteError(w, http.StatusBadRequest, perr.Message)
		return
	}
	utils.WriteError(w, http.StatusBadRequest, err.Error())
}
