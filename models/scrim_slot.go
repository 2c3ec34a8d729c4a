package models

import "time"

// ScrimSlotStatus представляет статусы скрим-слота, соответствующие ENUM в БД.
type ScrimSlotStatus string

const (
	// SlotStatusPending is a host-side draft: visible to the host team only,
	// never matched by the claim predicate.
	SlotStatusPending   ScrimSlotStatus = "pending"
	SlotStatusOpen      ScrimSlotStatus = "open"
	SlotStatusConfirmed ScrimSlotStatus = "confirmed"
	SlotStatusCancelled ScrimSlotStatus = "cancelled"
)

// ScrimSlot — объявление о скриме. Слот создаётся хост-командой и может быть
// забран ровно одной командой-соперником через условное обновление в БД.
type ScrimSlot struct {
	ID             int             `json:"id" db:"id"`
	HostTeamID     int             `json:"host_team_id" db:"host_team_id"`
	OpponentTeamID *int            `json:"opponent_team_id,omitempty" db:"opponent_team_id"`
	GameID         int             `json:"game_id" db:"game_id"`
	Region         Region          `json:"region" db:"region"`
	Status         ScrimSlotStatus `json:"status" db:"status"`
	StartTime      time.Time       `json:"start_time" db:"start_time"`
	EndTime        time.Time       `json:"end_time" db:"end_time"`
	Notes          *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`

	HostTeam     *Team `json:"host_team,omitempty" db:"-"`
	OpponentTeam *Team `json:"opponent_team,omitempty" db:"-"`
	Game         *Game `json:"game,omitempty" db:"-"`
}

// Claimed reports whether the slot has an opponent assigned. status=confirmed
// and a non-nil opponent always move together (enforced by the conditional
// update in the repository).
func (s *ScrimSlot) Claimed() bool {
	return s.OpponentTeamID != nil
}
