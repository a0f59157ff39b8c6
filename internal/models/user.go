package models

import "time"

// User is a registered contributor, stored in the utenti table.
type User struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	PrivacyAccepted bool      `json:"privacy_accepted"`
	Verified        bool      `json:"verified"`
	Points          int       `json:"points"`
	ReportCount     int       `json:"report_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// LeaderboardRow is one entry of the top contributors ranking.
type LeaderboardRow struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Points int    `json:"points"`
}
