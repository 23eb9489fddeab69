// Package handler provides the HTTP API for the Biblio server.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/service"
)

// response is the envelope every API endpoint answers with.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Total   *int64 `json:"total,omitempty"`
	Page    *int   `json:"page,omitempty"`
	Pages   *int   `json:"pages,omitempty"`
	Data    any    `json:"data,omitempty"`
	Summary any    `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeData writes a single-object success envelope.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, response{Success: true, Data: data})
}

// writeMessage writes a success envelope carrying a message and
// optionally the affected object.
func writeMessage(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, response{Success: true, Message: message, Data: data})
}

// writeList writes a collection envelope with count.
func writeList(w http.ResponseWriter, count int, data any) {
	writeJSON(w, http.StatusOK, response{Success: true, Count: &count, Data: data})
}

// writePage writes a paginated collection envelope.
func writePage(w http.ResponseWriter, count int, total int64, page, limit int, data any) {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	writeJSON(w, http.StatusOK, response{
		Success: true,
		Count:   &count,
		Total:   &total,
		Page:    &page,
		Pages:   &pages,
		Data:    data,
	})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidPassword),
		errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrBookNotFound),
		errors.Is(err, domain.ErrBorrowNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrISBNTaken),
		errors.Is(err, domain.ErrBookHasActiveBorrows),
		errors.Is(err, domain.ErrAlreadyReturned):
		return http.StatusConflict
	case errors.Is(err, domain.ErrIneligibleBorrower),
		errors.Is(err, domain.ErrBookUnavailable),
		errors.Is(err, domain.ErrCannotRenewOverdue),
		errors.Is(err, domain.ErrUserInactive):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError converts a service error into the error envelope. Internal
// errors are logged and replaced with a generic message so store
// details never leak to clients.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status := statusFor(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
		message = "internal server error"
	}

	writeJSON(w, status, response{Success: false, Error: message})
}

func errInvalidID(name string) error {
	return domain.Validationf("invalid %s parameter", name)
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Validationf("invalid request body: %v", err)
	}
	return nil
}
