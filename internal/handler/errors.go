package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/foodcourt/api/internal/app"
	"github.com/foodcourt/api/internal/auth"
	"github.com/foodcourt/api/internal/catalog"
	"github.com/foodcourt/api/internal/records"
	"github.com/foodcourt/api/internal/service"
)

func isValidationError(err error) bool {
	return app.IsValidationError(err) ||
		service.IsValidationError(err) ||
		auth.IsValidationError(err) ||
		catalog.IsValidationError(err) ||
		errors.Is(err, records.ErrInvalidRecord)
}

// writeServiceError maps a service error to a status code. op names the
// failed operation in logs.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, records.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, records.ErrUnknownTable):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown table"})
	case errors.Is(err, records.ErrConflict), errors.Is(err, service.ErrUserExists):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrPersist):
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": service.ErrPersist.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
