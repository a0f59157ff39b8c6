package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"carburapp/internal/models"
)

// ErrUserNotFound represents missing utenti rows.
var ErrUserNotFound = errors.New("user not found")

// UserRepository handles CRUD for the utenti table.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository returns repository instance.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	const query = `
		INSERT INTO utenti (email, password_hash, privacy_accepted, verified, points, report_count)
		VALUES ($1, $2, $3, FALSE, 0, 0)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.PrivacyAccepted).
		Scan(&user.ID, &user.CreatedAt)
}

// GetByEmail fetches a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `
		SELECT id, email, password_hash, privacy_accepted, verified, points, report_count, created_at
		FROM utenti
		WHERE email = $1
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	const query = `
		SELECT id, email, password_hash, privacy_accepted, verified, points, report_count, created_at
		FROM utenti
		WHERE id = $1
		LIMIT 1
	`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// SetVerified marks the user's email as verified.
func (r *UserRepository) SetVerified(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE utenti SET verified = TRUE WHERE id = $1`, id)
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

// Delete removes the user's profile row. Confirmation sets keep the opaque
// numeric id so historical counts stay honest.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM utenti WHERE id = $1`, id)
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

// Leaderboard returns the top contributors, points descending with user id as
// the deterministic tie-break.
func (r *UserRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardRow, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT id, email, points
		FROM utenti
		ORDER BY points DESC, id ASC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var board []models.LeaderboardRow
	for rows.Next() {
		var row models.LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.Email, &row.Points); err != nil {
			return nil, err
		}
		board = append(board, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return board, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.PrivacyAccepted,
		&user.Verified,
		&user.Points,
		&user.ReportCount,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
