package dto

import "time"

type ErrorResponse struct {
	Message string `json:"message"`
	// Reason distinguishes outcomes of the same kind, e.g. NOT_ENROLLED vs EXPIRED.
	Reason      string     `json:"reason,omitempty"`
	Details     []string   `json:"details,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
