package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"carburapp/internal/models"
)

// Fixed point rewards credited inside the ledger transaction.
const (
	submitReward  = 10
	confirmReward = 2
)

var (
	// ErrInvalidPrice is returned for non-positive price values.
	ErrInvalidPrice = errors.New("price: value must be positive")
	// ErrStationRequired is returned when the station id is missing.
	ErrStationRequired = errors.New("price: station id required")
)

// PriceLedger is the storage contract for community price reports.
type PriceLedger interface {
	SubmitReport(ctx context.Context, stationID, stationName string, fuel models.FuelType, value decimal.Decimal, userID int64, reward int) (*models.PriceEntry, error)
	Confirm(ctx context.Context, stationID string, fuel models.FuelType, userID int64, reward int) (*models.PriceEntry, error)
	ListByStationIDs(ctx context.Context, stationIDs []string) (map[string][]models.PriceEntry, error)
}

// EventPublisher pushes accepted ledger events to live subscribers.
type EventPublisher interface {
	Publish(event models.PriceEvent)
}

// SearchInvalidator drops cached station searches after a price write.
type SearchInvalidator interface {
	Invalidate(ctx context.Context) error
}

// PriceService orchestrates the price update protocol: validation, the
// transactional ledger write, cache invalidation and the live broadcast.
type PriceService struct {
	ledger      PriceLedger
	events      EventPublisher
	invalidator SearchInvalidator
	logger      *zap.Logger
}

// NewPriceService builds service.
func NewPriceService(ledger PriceLedger, events EventPublisher, invalidator SearchInvalidator, logger *zap.Logger) *PriceService {
	return &PriceService{
		ledger:      ledger,
		events:      events,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Submit records a new price report. The previous entry for the same
// (station, fuel) is fully replaced; other fuels are untouched. The reporter
// earns the submit reward in the same transaction.
func (s *PriceService) Submit(ctx context.Context, stationID, stationName string, fuel models.FuelType, value decimal.Decimal, userID int64) (*models.PriceEntry, error) {
	if strings.TrimSpace(stationID) == "" {
		return nil, ErrStationRequired
	}
	if _, err := models.ParseFuelType(string(fuel)); err != nil {
		return nil, err
	}
	if !value.IsPositive() {
		return nil, ErrInvalidPrice
	}

	entry, err := s.ledger.SubmitReport(ctx, stationID, stationName, fuel, value, userID, submitReward)
	if err != nil {
		return nil, err
	}

	s.logger.Info("price submitted",
		zap.String("station_id", stationID),
		zap.String("fuel", string(fuel)),
		zap.String("value", value.String()),
		zap.Int64("user_id", userID),
	)
	s.afterWrite(ctx, models.PriceEventSubmitted, entry)
	return entry, nil
}

// Confirm applies an at-most-once-per-user confirmation and credits the
// confirmer. Returns repository.ErrAlreadyConfirmed or
// repository.ErrPriceNotFound unchanged for the handler to map.
func (s *PriceService) Confirm(ctx context.Context, stationID string, fuel models.FuelType, userID int64) (*models.PriceEntry, error) {
	if strings.TrimSpace(stationID) == "" {
		return nil, ErrStationRequired
	}
	if _, err := models.ParseFuelType(string(fuel)); err != nil {
		return nil, err
	}

	entry, err := s.ledger.Confirm(ctx, stationID, fuel, userID, confirmReward)
	if err != nil {
		return nil, err
	}

	s.logger.Info("price confirmed",
		zap.String("station_id", stationID),
		zap.String("fuel", string(fuel)),
		zap.Int("confirmations", entry.ConfirmationCount),
		zap.Int64("user_id", userID),
	)
	s.afterWrite(ctx, models.PriceEventConfirmed, entry)
	return entry, nil
}

// PricesForStations reads all ledger entries for the given station ids.
func (s *PriceService) PricesForStations(ctx context.Context, stationIDs []string) (map[string][]models.PriceEntry, error) {
	return s.ledger.ListByStationIDs(ctx, stationIDs)
}

func (s *PriceService) afterWrite(ctx context.Context, kind models.PriceEventKind, entry *models.PriceEntry) {
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.logger.Warn("search cache invalidation failed", zap.Error(err))
		}
	}
	if s.events != nil {
		s.events.Publish(models.PriceEvent{
			Kind:              kind,
			StationID:         entry.StationID,
			FuelType:          entry.FuelType,
			Value:             entry.Value,
			ConfirmationCount: entry.ConfirmationCount,
		})
	}
}
