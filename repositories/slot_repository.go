package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/oiyahen/scrim-scheduler/models"
)

var (
	ErrSlotNotFound     = errors.New("scrim slot not found")
	ErrSlotNotClaimable = errors.New("scrim slot not claimable")
	ErrSlotHostInvalid  = errors.New("slot host team conflict or invalid")
	ErrSlotGameInvalid  = errors.New("invalid game reference")
)

type ListSlotsFilter struct {
	GameID        *int
	Region        *models.Region
	Status        *models.ScrimSlotStatus
	StartAfter    *time.Time
	StartBefore   *time.Time
	ExcludeTeamID *int
	Limit         int
	Offset        int
}

type SlotRepository interface {
	Create(ctx context.Context, slot *models.ScrimSlot) error
	GetByID(ctx context.Context, id int) (*models.ScrimSlot, error)
	List(ctx context.Context, filter ListSlotsFilter) ([]models.ScrimSlot, error)
	ListByTeam(ctx context.Context, teamID int) ([]models.ScrimSlot, error)

	// Claim attempts the open -> confirmed transition with a single
	// conditional UPDATE. The predicate re-checks status, the absent
	// opponent and the host at write time, so under concurrent claims the
	// database serializes exactly one winner. Zero affected rows map to
	// ErrSlotNotClaimable; the caller disambiguates with a follow-up read
	// if it needs a user-facing reason.
	Claim(ctx context.Context, slotID, claimingTeamID int) (*models.ScrimSlot, error)

	// UpdateStatus performs a guarded status transition: the row is only
	// updated when its current status matches fromStatus. Used for
	// pending -> open (publish) and * -> cancelled transitions.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.ScrimSlotStatus) error

	// CancelExpired cancels open and pending slots whose start time has
	// passed. Returns the ids of the cancelled slots.
	CancelExpired(ctx context.Context, exec SQLExecutor, now time.Time) ([]int, error)

	CountNonCancelledByTeam(ctx context.Context, teamID int) (int, error)
}

type postgresSlotRepository struct {
	db *sql.DB
}

func NewPostgresSlotRepository(db *sql.DB) SlotRepository {
	return &postgresSlotRepository{db: db}
}

func (r *postgresSlotRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const slotColumns = `id, host_team_id, opponent_team_id, game_id, region, status, start_time, end_time, notes, created_at, updated_at`

func scanSlot(rowScanner interface {
	Scan(dest ...interface{}) error
}, s *models.ScrimSlot) error {
	return rowScanner.Scan(
		&s.ID,
		&s.HostTeamID,
		&s.OpponentTeamID,
		&s.GameID,
		&s.Region,
		&s.Status,
		&s.StartTime,
		&s.EndTime,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
}

func (r *postgresSlotRepository) Create(ctx context.Context, slot *models.ScrimSlot) error {
	query := `
		INSERT INTO scrim_slots (host_team_id, game_id, region, status, start_time, end_time, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		slot.HostTeamID,
		slot.GameID,
		slot.Region,
		slot.Status,
		slot.StartTime,
		slot.EndTime,
		slot.Notes,
	).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)

	return r.handleSlotError(err)
}

func (r *postgresSlotRepository) GetByID(ctx context.Context, id int) (*models.ScrimSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM scrim_slots WHERE id = $1`

	slot := &models.ScrimSlot{}
	err := scanSlot(r.db.QueryRowContext(ctx, query, id), slot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to get scrim slot %d: %w", id, err)
	}
	return slot, nil
}

func (r *postgresSlotRepository) Claim(ctx context.Context, slotID, claimingTeamID int) (*models.ScrimSlot, error) {
	// Single compare-and-swap write. Никакого read-then-write: предикат
	// перепроверяет состояние строки в момент записи.
	query := `
		UPDATE scrim_slots
		SET status = $1, opponent_team_id = $2, updated_at = now()
		WHERE id = $3
		  AND status = $4
		  AND opponent_team_id IS NULL
		  AND host_team_id <> $2
		RETURNING ` + slotColumns

	slot := &models.ScrimSlot{}
	err := scanSlot(r.db.QueryRowContext(ctx, query,
		models.SlotStatusConfirmed,
		claimingTeamID,
		slotID,
		models.SlotStatusOpen,
	), slot)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Slot taken, cancelled, missing, or the claimer is the host.
			// One sentinel by contract; no write happened.
			return nil, ErrSlotNotClaimable
		}
		return nil, fmt.Errorf("failed to claim scrim slot %d: %w", slotID, err)
	}
	return slot, nil
}

func (r *postgresSlotRepository) List(ctx context.Context, filter ListSlotsFilter) ([]models.ScrimSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM scrim_slots WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.GameID != nil {
		query += fmt.Sprintf(" AND game_id = $%d", argID)
		args = append(args, *filter.GameID)
		argID++
	}
	if filter.Region != nil {
		query += fmt.Sprintf(" AND region = $%d", argID)
		args = append(args, *filter.Region)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.StartAfter != nil {
		query += fmt.Sprintf(" AND start_time >= $%d", argID)
		args = append(args, *filter.StartAfter)
		argID++
	}
	if filter.StartBefore != nil {
		query += fmt.Sprintf(" AND start_time <= $%d", argID)
		args = append(args, *filter.StartBefore)
		argID++
	}
	if filter.ExcludeTeamID != nil {
		query += fmt.Sprintf(" AND host_team_id <> $%d", argID)
		args = append(args, *filter.ExcludeTeamID)
		argID++
	}

	query += " ORDER BY start_time ASC, created_at ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scrim slots: %w", err)
	}
	defer rows.Close()

	return collectSlots(rows)
}

func (r *postgresSlotRepository) ListByTeam(ctx context.Context, teamID int) ([]models.ScrimSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM scrim_slots
		WHERE host_team_id = $1 OR opponent_team_id = $1
		ORDER BY start_time DESC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scrim slots for team %d: %w", teamID, err)
	}
	defer rows.Close()

	return collectSlots(rows)
}

func collectSlots(rows *sql.Rows) ([]models.ScrimSlot, error) {
	slots := make([]models.ScrimSlot, 0)
	for rows.Next() {
		var s models.ScrimSlot
		if scanErr := scanSlot(rows, &s); scanErr != nil {
			return nil, fmt.Errorf("failed to scan scrim slot row: %w", scanErr)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scrim slot rows: %w", err)
	}
	return slots, nil
}

func (r *postgresSlotRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.ScrimSlotStatus) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE scrim_slots
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`

	result, err := executor.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return r.handleSlotError(err)
	}
	// Zero rows here means the row is gone or no longer in the expected
	// status; both surface as the not-found sentinel and the service layer
	// re-reads for detail.
	return checkAffectedRows(result, ErrSlotNotFound)
}

func (r *postgresSlotRepository) CancelExpired(ctx context.Context, exec SQLExecutor, now time.Time) ([]int, error) {
	executor := r.getExecutor(exec)
	query := `
		UPDATE scrim_slots
		SET status = $1, updated_at = now()
		WHERE status IN ($2, $3) AND start_time <= $4
		RETURNING id`

	rows, err := executor.QueryContext(ctx, query,
		models.SlotStatusCancelled,
		models.SlotStatusOpen,
		models.SlotStatusPending,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel expired scrim slots: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan expired slot id: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired slot rows: %w", err)
	}
	return ids, nil
}

func (r *postgresSlotRepository) CountNonCancelledByTeam(ctx context.Context, teamID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM scrim_slots
		WHERE (host_team_id = $1 OR opponent_team_id = $1) AND status <> $2`

	var count int
	err := r.db.QueryRowContext(ctx, query, teamID, models.SlotStatusCancelled).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count slots for team %d: %w", teamID, err)
	}
	return count, nil
}

func (r *postgresSlotRepository) handleSlotError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23503" { // foreign_key_violation
			switch pqErr.Constraint {
			case "scrim_slots_host_team_id_fkey", "scrim_slots_opponent_team_id_fkey":
				return ErrSlotHostInvalid
			case "scrim_slots_game_id_fkey":
				return ErrSlotGameInvalid
			}
		}
	}
	return err
}
