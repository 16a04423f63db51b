package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/infrastructure/store"
	"github.com/example/plantshop/internal/order"
	"github.com/example/plantshop/internal/role"
	"github.com/example/plantshop/internal/stock"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

func isValidationError(err error) bool {
	return errors.Is(err, domain.ErrEmptyOrder) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidPrice) ||
		errors.Is(err, domain.ErrMissingProduct) ||
		errors.Is(err, domain.ErrMissingUser)
}

// writeDomainError maps error kinds to status codes. Order placement maps an
// unknown product to 422 rather than 404: the route exists, the payload
// references a product that does not.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, stock.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, stock.ErrProductNotFound):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, role.ErrDenied):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, order.ErrFulfillment):
		writeError(w, http.StatusServiceUnavailable, "order could not be completed, try again")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
