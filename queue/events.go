// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer plumbing around them.
package queue

import "time"

// Routing keys on the scrims topic exchange.
const (
	ExchangeName       = "scrims"
	KeySlotConfirmed   = "scrim.confirmed"
	KeySlotCancelled   = "scrim.cancelled"
	confirmedQueueName = "scrim.confirmed.log"
)

// SlotConfirmedEvent is published when a team successfully claims an open
// scrim slot. It carries enough information for downstream consumers to log
// or notify without querying the primary database.
type SlotConfirmedEvent struct {
	SlotID         int       `json:"slot_id"`
	HostTeamID     int       `json:"host_team_id"`
	OpponentTeamID int       `json:"opponent_team_id"`
	GameID         int       `json:"game_id"`
	Region         string    `json:"region"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
}

// SlotCancelledEvent is published when a slot is cancelled, either by a host
// action or by the expiry sweep.
type SlotCancelledEvent struct {
	SlotID         int       `json:"slot_id"`
	HostTeamID     int       `json:"host_team_id"`
	OpponentTeamID *int      `json:"opponent_team_id,omitempty"`
	CancelledAt    time.Time `json:"cancelled_at"`
}
