package models

type TeamDashboard struct {
	TeamID            int `json:"team_id"`
	HostedTotal       int `json:"hosted_total"`
	ClaimedTotal      int `json:"claimed_total"`
	UpcomingConfirmed int `json:"upcoming_confirmed"`
	PlayedTotal       int `json:"played_total"`
	CancelledTotal    int `json:"cancelled_total"`
}
