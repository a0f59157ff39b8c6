package service

import (
	"context"

	"carburapp/internal/models"
)

// Level is a contributor rank derived from accumulated points.
type Level struct {
	Title string `json:"title"`
	Badge string `json:"badge"`
}

// levelBands maps minimum points to ranks, ascending. Lower bound inclusive,
// upper bound exclusive.
var levelBands = []struct {
	min   int
	level Level
}{
	{0, Level{Title: "Novice", Badge: "novice"}},
	{50, Level{Title: "Active Contributor", Badge: "contributor"}},
	{150, Level{Title: "Refueling Expert", Badge: "expert"}},
	{500, Level{Title: "Road King", Badge: "road-king"}},
	{1000, Level{Title: "Fuel Legend", Badge: "legend"}},
}

// LevelFor returns the rank for a points total. Total over non-negative
// integers; negative input clamps to the first band.
func LevelFor(points int) Level {
	level := levelBands[0].level
	for _, band := range levelBands {
		if points >= band.min {
			level = band.level
		}
	}
	return level
}

// LeaderboardSource reads ranked contributors from storage.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardRow, error)
}

const defaultLeaderboardSize = 10

// GamificationService exposes the derived ranking views.
type GamificationService struct {
	users LeaderboardSource
}

// NewGamificationService builds service.
func NewGamificationService(users LeaderboardSource) *GamificationService {
	return &GamificationService{users: users}
}

// RankedRow is a leaderboard row enriched with the contributor's level.
type RankedRow struct {
	models.LeaderboardRow
	Level Level `json:"level"`
}

// Leaderboard returns the top-n contributors with levels attached.
func (s *GamificationService) Leaderboard(ctx context.Context, n int) ([]RankedRow, error) {
	if n <= 0 {
		n = defaultLeaderboardSize
	}
	rows, err := s.users.Leaderboard(ctx, n)
	if err != nil {
		return nil, err
	}
	ranked := make([]RankedRow, 0, len(rows))
	for _, row := range rows {
		ranked = append(ranked, RankedRow{LeaderboardRow: row, Level: LevelFor(row.Points)})
	}
	return ranked, nil
}
