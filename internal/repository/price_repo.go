package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"carburapp/internal/models"
)

var (
	// ErrPriceNotFound is returned when confirming a (station, fuel) pair
	// that has no reported price yet.
	ErrPriceNotFound = errors.New("price entry not found")
	// ErrAlreadyConfirmed is returned when the user already confirmed this entry.
	ErrAlreadyConfirmed = errors.New("price already confirmed by user")
)

// PriceRepository owns the prezzi_segnalati table. Ledger writes and the
// matching utenti points updates run inside one database transaction, so a
// report can never be recorded without its reward.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository returns repository instance.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// SubmitReport overwrites the entry for (stationID, fuel) with a fresh report
// and credits the reporter in the same transaction. Entries for other fuels at
// the same station are untouched.
func (r *PriceRepository) SubmitReport(ctx context.Context, stationID, stationName string, fuel models.FuelType, value decimal.Decimal, userID int64, reward int) (*models.PriceEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	confirmers, err := json.Marshal([]int64{userID})
	if err != nil {
		return nil, err
	}

	const upsert = `
		INSERT INTO prezzi_segnalati
			(station_id, station_name, fuel_type, value, confirmation_count, confirmers, inserted_at, last_updated)
		VALUES ($1, $2, $3, $4, 1, CAST($5 AS jsonb), NOW(), NOW())
		ON CONFLICT (station_id, fuel_type) DO UPDATE SET
			station_name = EXCLUDED.station_name,
			value = EXCLUDED.value,
			confirmation_count = 1,
			confirmers = EXCLUDED.confirmers,
			inserted_at = NOW(),
			last_updated = NOW()
		RETURNING value::text, inserted_at, last_updated
	`
	entry := &models.PriceEntry{
		StationID:         stationID,
		StationName:       stationName,
		FuelType:          fuel,
		ConfirmationCount: 1,
		Confirmers:        []int64{userID},
	}
	var rawValue string
	if err := tx.QueryRowContext(ctx, upsert, stationID, stationName, string(fuel), value, string(confirmers)).
		Scan(&rawValue, &entry.InsertedAt, &entry.LastUpdated); err != nil {
		return nil, err
	}
	if entry.Value, err = decimal.NewFromString(rawValue); err != nil {
		return nil, fmt.Errorf("repository: parse stored value: %w", err)
	}

	if err := creditUser(ctx, tx, userID, reward, true); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Confirm applies an at-most-once-per-user confirmation. The guard and the
// counter increment live in a single conditional UPDATE, so concurrent
// confirmations from the same user collapse to one while distinct users are
// all counted.
func (r *PriceRepository) Confirm(ctx context.Context, stationID string, fuel models.FuelType, userID int64, reward int) (*models.PriceEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const update = `
		UPDATE prezzi_segnalati
		SET confirmation_count = confirmation_count + 1,
			confirmers = confirmers || to_jsonb($3::bigint),
			last_updated = NOW()
		WHERE station_id = $1 AND fuel_type = $2
			AND NOT (confirmers @> to_jsonb($3::bigint))
		RETURNING station_name, value::text, confirmation_count, confirmers, inserted_at, last_updated
	`
	entry := &models.PriceEntry{StationID: stationID, FuelType: fuel}
	var (
		rawValue      string
		rawConfirmers []byte
	)
	err = tx.QueryRowContext(ctx, update, stationID, string(fuel), userID).Scan(
		&entry.StationName,
		&rawValue,
		&entry.ConfirmationCount,
		&rawConfirmers,
		&entry.InsertedAt,
		&entry.LastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		const probe = `SELECT EXISTS (SELECT 1 FROM prezzi_segnalati WHERE station_id = $1 AND fuel_type = $2)`
		if probeErr := tx.QueryRowContext(ctx, probe, stationID, string(fuel)).Scan(&exists); probeErr != nil {
			return nil, probeErr
		}
		if exists {
			return nil, ErrAlreadyConfirmed
		}
		return nil, ErrPriceNotFound
	}
	if err != nil {
		return nil, err
	}
	if entry.Value, err = decimal.NewFromString(rawValue); err != nil {
		return nil, fmt.Errorf("repository: parse stored value: %w", err)
	}
	if err := json.Unmarshal(rawConfirmers, &entry.Confirmers); err != nil {
		return nil, fmt.Errorf("repository: decode confirmers: %w", err)
	}

	if err := creditUser(ctx, tx, userID, reward, false); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListByStationIDs fetches all entries for the given stations, for merging
// into search results.
func (r *PriceRepository) ListByStationIDs(ctx context.Context, stationIDs []string) (map[string][]models.PriceEntry, error) {
	result := make(map[string][]models.PriceEntry)
	if len(stationIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(stationIDs))
	args := make([]interface{}, len(stationIDs))
	for i, id := range stationIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT station_id, station_name, fuel_type, value::text, confirmation_count, confirmers, inserted_at, last_updated
		FROM prezzi_segnalati
		WHERE station_id IN (%s)
		ORDER BY station_id, fuel_type
	`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entry         models.PriceEntry
			rawValue      string
			rawConfirmers []byte
		)
		if err := rows.Scan(
			&entry.StationID,
			&entry.StationName,
			&entry.FuelType,
			&rawValue,
			&entry.ConfirmationCount,
			&rawConfirmers,
			&entry.InsertedAt,
			&entry.LastUpdated,
		); err != nil {
			return nil, err
		}
		if entry.Value, err = decimal.NewFromString(rawValue); err != nil {
			return nil, fmt.Errorf("repository: parse stored value: %w", err)
		}
		if err := json.Unmarshal(rawConfirmers, &entry.Confirmers); err != nil {
			return nil, fmt.Errorf("repository: decode confirmers: %w", err)
		}
		result[entry.StationID] = append(result[entry.StationID], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func creditUser(ctx context.Context, tx *sql.Tx, userID int64, points int, countReport bool) error {
	query := `UPDATE utenti SET points = points + $2 WHERE id = $1`
	if countReport {
		query = `UPDATE utenti SET points = points + $2, report_count = report_count + 1 WHERE id = $1`
	}
	res, err := tx.ExecContext(ctx, query, userID, points)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
