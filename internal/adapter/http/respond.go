package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/backend"
	"github.com/YelzhanWeb/refugio-pos/internal/app/menugen"
	"github.com/YelzhanWeb/refugio-pos/internal/app/order"
	"github.com/YelzhanWeb/refugio-pos/internal/app/tablesync"
	"github.com/YelzhanWeb/refugio-pos/internal/app/views"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

type ErrorResponse struct {
	Error   string                `json:"error"`
	Pending *PendingOrderResponse `json:"pending,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, statusFor(err), ErrorResponse{Error: err.Error()})
}

// statusFor maps service errors onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, order.ErrResyncFailed):
		// the change itself went through
		return http.StatusAccepted
	case errors.Is(err, domain.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, views.ErrViewNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnknownOrder), errors.Is(err, interfaces.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, domain.ErrUnconfirmedOrder),
		errors.Is(err, tablesync.ErrNotFailed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrNegativeAmount),
		errors.Is(err, domain.ErrInvalidOrderType),
		errors.Is(err, domain.ErrUnknownTable),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, menugen.ErrEmptyConcept):
		return http.StatusBadRequest
	case errors.Is(err, backend.ErrRejected),
		errors.Is(err, backend.ErrTransport),
		errors.Is(err, backend.ErrSchema):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return decode(r, dst, false)
}

// decodeOptionalJSON accepts an empty body
func decodeOptionalJSON(r *http.Request, dst interface{}) error {
	return decode(r, dst, true)
}

func decode(r *http.Request, dst interface{}, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return nil
	}
	return fmt.Errorf("%w: invalid request body", domain.ErrValidation)
}
