package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/oiyahen/scrim-scheduler/models"
)

var (
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrNotificationTeamInvalid = errors.New("notification team conflict or invalid")
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByTeam(ctx context.Context, teamID int, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, teamID int) error
}

type postgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (team_id, slot_id, type, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, read, created_at`

	err := r.db.QueryRowContext(ctx, query,
		n.TeamID,
		n.SlotID,
		n.Type,
		n.Message,
	).Scan(&n.ID, &n.Read, &n.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrNotificationTeamInvalid
		}
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *postgresNotificationRepository) ListByTeam(ctx context.Context, teamID int, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, team_id, slot_id, type, message, read, created_at
		FROM notifications
		WHERE team_id = $1`
	args := []interface{}{teamID}
	argID := 2

	if unreadOnly {
		query += " AND read = FALSE"
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for team %d: %w", teamID, err)
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if scanErr := rows.Scan(
			&n.ID, &n.TeamID, &n.SlotID, &n.Type, &n.Message, &n.Read, &n.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", scanErr)
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return notifications, nil
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, id, teamID int) error {
	// team_id в предикате не даёт пометить чужое уведомление.
	query := `UPDATE notifications SET read = TRUE WHERE id = $1 AND team_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, teamID)
	if err != nil {
		return fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	return checkAffectedRows(result, ErrNotificationNotFound)
}
