package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oiyahen/scrim-scheduler/models"
)

// StatsRepository отвечает за агрегатные запросы для дашборда команды.
type StatsRepository interface {
	CountHosted(ctx context.Context, teamID int) (int, error)
	CountClaimed(ctx context.Context, teamID int) (int, error)
	CountUpcomingConfirmed(ctx context.Context, teamID int, now time.Time) (int, error)
	CountPlayed(ctx context.Context, teamID int, now time.Time) (int, error)
	CountCancelled(ctx context.Context, teamID int) (int, error)
}

type postgresStatsRepository struct {
	db *sql.DB
}

func NewPostgresStatsRepository(db *sql.DB) StatsRepository {
	return &postgresStatsRepository{db: db}
}

func (r *postgresStatsRepository) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count slots: %w", err)
	}
	return n, nil
}

func (r *postgresStatsRepository) CountHosted(ctx context.Context, teamID int) (int, error) {
	return r.count(ctx,
		`SELECT COUNT(*) FROM scrim_slots WHERE host_team_id = $1`, teamID)
}

func (r *postgresStatsRepository) CountClaimed(ctx context.Context, teamID int) (int, error) {
	return r.count(ctx,
		`SELECT COUNT(*) FROM scrim_slots WHERE opponent_team_id = $1`, teamID)
}

func (r *postgresStatsRepository) CountUpcomingConfirmed(ctx context.Context, teamID int, now time.Time) (int, error) {
	return r.count(ctx, `
		SELECT COUNT(*) FROM scrim_slots
		WHERE (host_team_id = $1 OR opponent_team_id = $1)
		  AND status = $2 AND start_time > $3`,
		teamID, models.SlotStatusConfirmed, now)
}

func (r *postgresStatsRepository) CountPlayed(ctx context.Context, teamID int, now time.Time) (int, error) {
	return r.count(ctx, `
		SELECT COUNT(*) FROM scrim_slots
		WHERE (host_team_id = $1 OR opponent_team_id = $1)
		  AND status = $2 AND end_time <= $3`,
		teamID, models.SlotStatusConfirmed, now)
}

func (r *postgresStatsRepository) CountCancelled(ctx context.Context, teamID int) (int, error) {
	return r.count(ctx, `
		SELECT COUNT(*) FROM scrim_slots
		WHERE (host_team_id = $1 OR opponent_team_id = $1) AND status = $2`,
		teamID, models.SlotStatusCancelled)
}
