package api

import (
	"time"

	"github.com/mattjoyce/planview/internal/reaper"
)

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status           string `json:"status"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	PendingDeletions int    `json:"pending_deletions"`
	EventSubscribers int    `json:"event_subscribers"`
}

// PendingResponse is returned by GET /api/export/pending.
type PendingResponse struct {
	Now     time.Time                `json:"now"`
	Pending []reaper.PendingDeletion `json:"pending"`
}
