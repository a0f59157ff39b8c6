package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceEntry is one community-reported price for a (station, fuel) pair.
// ConfirmationCount always equals len(Confirmers); both are written together
// in a single statement by the repository.
type PriceEntry struct {
	StationID         string          `json:"station_id"`
	StationName       string          `json:"station_name"`
	FuelType          FuelType        `json:"fuel_type"`
	Value             decimal.Decimal `json:"value"`
	ConfirmationCount int             `json:"confirmation_count"`
	Confirmers        []int64         `json:"confirmers"`
	InsertedAt        time.Time       `json:"inserted_at"`
	LastUpdated       time.Time       `json:"last_updated"`
}

// PriceEventKind distinguishes broadcast ledger events.
type PriceEventKind string

const (
	PriceEventSubmitted PriceEventKind = "submitted"
	PriceEventConfirmed PriceEventKind = "confirmed"
)

// PriceEvent is pushed to websocket subscribers after an accepted write.
type PriceEvent struct {
	Kind              PriceEventKind  `json:"kind"`
	StationID         string          `json:"station_id"`
	FuelType          FuelType        `json:"fuel_type"`
	Value             decimal.Decimal `json:"value"`
	ConfirmationCount int             `json:"confirmation_count"`
}
