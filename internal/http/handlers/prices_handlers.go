package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"carburapp/internal/http/middleware"
	"carburapp/internal/models"
	"carburapp/internal/repository"
	"carburapp/internal/service"
)

// PricesHandlers exposes the price report and confirmation endpoints.
type PricesHandlers struct {
	prices *service.PriceService
	logger *zap.Logger
}

// NewPricesHandlers builds handlers.
func NewPricesHandlers(prices *service.PriceService, logger *zap.Logger) *PricesHandlers {
	return &PricesHandlers{prices: prices, logger: logger}
}

type submitPriceRequest struct {
	StationName string          `json:"station_name"`
	FuelType    string          `json:"fuel_type"`
	Value       decimal.Decimal `json:"value"`
}

// Submit records a new price report for the station in the path.
func (h *PricesHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req submitPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fuel, err := models.ParseFuelType(req.FuelType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.prices.Submit(r.Context(), r.PathValue("id"), req.StationName, fuel, req.Value, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPrice), errors.Is(err, service.ErrStationRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, "unknown user")
		default:
			h.logger.Error("price submit failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not store price report")
		}
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

type confirmPriceRequest struct {
	FuelType string `json:"fuel_type"`
}

// Confirm applies an at-most-once confirmation for the caller. A repeat
// confirmation is not an error; it reports already_confirmed.
func (h *PricesHandlers) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req confirmPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fuel, err := models.ParseFuelType(req.FuelType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.prices.Confirm(r.Context(), r.PathValue("id"), fuel, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyConfirmed):
			writeJSON(w, http.StatusOK, map[string]string{"status": "already_confirmed"})
		case errors.Is(err, repository.ErrPriceNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrStationRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, "unknown user")
		default:
			h.logger.Error("price confirm failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not confirm price")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "applied",
		"entry":  entry,
	})
}
