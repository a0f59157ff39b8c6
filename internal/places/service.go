package places

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"carburapp/internal/models"
)

// ErrAmbiguousQuery is returned when both a city and a coordinate are given.
var ErrAmbiguousQuery = errors.New("places: provide either a city or a coordinate, not both")

// Searcher is the provider contract, implemented by Client.
type Searcher interface {
	SearchByCity(ctx context.Context, city string) ([]models.Station, error)
	SearchNearby(ctx context.Context, coord models.Coordinate) ([]models.Station, error)
}

// Cache stores search results by input key.
type Cache interface {
	Get(ctx context.Context, input string) ([]models.Station, bool, error)
	Set(ctx context.Context, input string, stations []models.Station) error
}

// Service runs station lookups with caching. Provider failures never reach
// the caller; they are logged and yield an empty result.
type Service struct {
	searcher Searcher
	cache    Cache
	logger   *zap.Logger
}

// NewService builds places service.
func NewService(searcher Searcher, cache Cache, logger *zap.Logger) *Service {
	return &Service{searcher: searcher, cache: cache, logger: logger}
}

// Search resolves stations for a city name or a coordinate. With neither
// input it returns an empty list without touching the provider or the cache.
func (s *Service) Search(ctx context.Context, city string, coord *models.Coordinate) ([]models.Station, error) {
	city = strings.TrimSpace(city)
	if city == "" && coord == nil {
		return nil, nil
	}
	if city != "" && coord != nil {
		return nil, ErrAmbiguousQuery
	}

	input := cacheKey(city, coord)
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, input); err != nil {
			s.logger.Warn("places cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	var (
		stations []models.Station
		err      error
	)
	if city != "" {
		stations, err = s.searcher.SearchByCity(ctx, city)
	} else {
		stations, err = s.searcher.SearchNearby(ctx, *coord)
	}
	if err != nil {
		s.logger.Warn("places lookup failed", zap.String("input", input), zap.Error(err))
		return nil, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, input, stations); err != nil {
			s.logger.Warn("places cache write failed", zap.Error(err))
		}
	}
	return stations, nil
}

func cacheKey(city string, coord *models.Coordinate) string {
	if city != "" {
		return "city:" + strings.ToLower(city)
	}
	return fmt.Sprintf("near:%.4f,%.4f", coord.Lat, coord.Lon)
}
