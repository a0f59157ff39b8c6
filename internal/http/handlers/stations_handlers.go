package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"carburapp/internal/models"
	"carburapp/internal/places"
	"carburapp/internal/service"
)

// StationsHandlers serves station search with ledger prices merged in.
type StationsHandlers struct {
	places *places.Service
	prices *service.PriceService
	logger *zap.Logger
}

// NewStationsHandlers builds handlers.
func NewStationsHandlers(placesSvc *places.Service, prices *service.PriceService, logger *zap.Logger) *StationsHandlers {
	return &StationsHandlers{places: placesSvc, prices: prices, logger: logger}
}

// Search resolves stations by ?city= or ?lat=&lon= and attaches known prices.
func (h *StationsHandlers) Search(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	coord, err := parseCoordinate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stations, err := h.places.Search(r.Context(), city, coord)
	if err != nil {
		if errors.Is(err, places.ErrAmbiguousQuery) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("station search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	if len(stations) > 0 {
		ids := make([]string, 0, len(stations))
		for _, st := range stations {
			ids = append(ids, st.ID)
		}
		priceMap, err := h.prices.PricesForStations(r.Context(), ids)
		if err != nil {
			// Search results remain useful without prices.
			h.logger.Warn("price merge failed", zap.Error(err))
		} else {
			for i := range stations {
				stations[i].Prices = priceMap[stations[i].ID]
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stations": stations,
		"count":    len(stations),
	})
}

func parseCoordinate(r *http.Request) (*models.Coordinate, error) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, errors.New("both lat and lon are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, errors.New("invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, errors.New("invalid lon")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, errors.New("coordinate out of range")
	}
	return &models.Coordinate{Lat: lat, Lon: lon}, nil
}
