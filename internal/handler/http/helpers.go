package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/mpavlenko/kitchen-backend/internal/order"
	"github.com/mpavlenko/kitchen-backend/internal/product"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondWithValidationErrors(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make(map[string]string, len(validationErrors))
		for _, fieldErr := range validationErrors {
			details[fieldErr.Field()] = "failed on " + fieldErr.Tag()
		}
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed",
			Details: details,
		})
		return
	}

	log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
	respondWithError(w, http.StatusInternalServerError, "Internal validation error")
}

// mapErrorToStatusCode keeps the error taxonomy's response categories
// apart: not-found vs. conflict vs. bad-input vs. unavailable.
func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, product.ErrNameExists),
		errors.Is(err, product.ErrNotModified),
		errors.Is(err, order.ErrNotModified):
		return http.StatusConflict
	case errors.Is(err, product.ErrInvalidProduct),
		errors.Is(err, order.ErrInvalidOrder),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrProductNotResolved):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseListQuery reads optional offset/limit query parameters. Absent
// or zero limit means no limit.
func parseListQuery(r *http.Request) (offset, limit int, err error) {
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, errors.New("invalid offset parameter")
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return 0, 0, errors.New("invalid limit parameter")
		}
	}
	return offset, limit, nil
}
