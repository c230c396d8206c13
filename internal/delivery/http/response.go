package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bluebuff/storefront/internal/catalog"
	"github.com/bluebuff/storefront/internal/entity"
	"github.com/bluebuff/storefront/internal/repository"
	"github.com/bluebuff/storefront/internal/service"
	"github.com/bluebuff/storefront/internal/storeapi"
)

// envelope mirrors the upstream API's response shape.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

const genericMessage = "Something went wrong. Please try again."

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// writeError maps an error to its status and shopper-facing message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := genericMessage

	var ue *service.UserError
	var apiErr *storeapi.APIError
	switch {
	case errors.As(err, &ue):
		message = ue.Message
	case errors.As(err, &apiErr) && apiErr.Message != "":
		message = apiErr.Message
	case status < http.StatusInternalServerError:
		message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "path", r.URL.Path, "status", status, "err", err)
	} else {
		slog.Info("Request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeMessage(w, status, message)
}

func statusFor(err error) int {
	var apiErr *storeapi.APIError
	switch {
	case errors.Is(err, entity.ErrNoPaymentMethod),
		errors.Is(err, entity.ErrUnknownPaymentMethod),
		errors.Is(err, entity.ErrPhoneMissing),
		errors.Is(err, entity.ErrItemRequired),
		errors.Is(err, entity.ErrInvalidDiscount):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrCheckoutNotFound),
		errors.Is(err, service.ErrGameNotFound),
		errors.Is(err, catalog.ErrUnknownItem),
		errors.Is(err, catalog.ErrUnknownListing),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInsufficientBalance),
		errors.Is(err, entity.ErrSubmissionInFlight),
		errors.Is(err, entity.ErrInvalidTransition),
		errors.Is(err, entity.ErrPaymentCodeUnavailable),
		errors.Is(err, repository.ErrConcurrency):
		return http.StatusConflict
	case errors.As(err, &apiErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storeapi.ErrTransport),
		errors.Is(err, entity.ErrUnknownRole):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
