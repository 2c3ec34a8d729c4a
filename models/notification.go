package models

import "time"

type NotificationType string

const (
	NotificationSlotConfirmed NotificationType = "slot_confirmed"
	NotificationSlotCancelled NotificationType = "slot_cancelled"
)

type Notification struct {
	ID        int              `json:"id" db:"id"`
	TeamID    int              `json:"team_id" db:"team_id"`
	SlotID    *int             `json:"slot_id,omitempty" db:"slot_id"`
	Type      NotificationType `json:"type" db:"type"`
	Message   string           `json:"message" db:"message"`
	Read      bool             `json:"read" db:"read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
