package janitor

import (
	"context"
	"time"

	"github.com/mattjoyce/planview/internal/artifact"
)

//go:generate mockgen -destination=mocks/mock_janitor.go -package=mocks github.com/mattjoyce/planview/internal/janitor Sweeper,Ledger

// Sweeper removes stale artifacts from disk.
type Sweeper interface {
	Sweep(ctx context.Context, olderThan time.Duration, keep func(path string) bool) (artifact.SweepReport, error)
}

// Tracker reports whether an artifact still has a pending deletion owned by
// the reaper.
type Tracker interface {
	Tracked(id string) bool
}

// Forgetter is implemented by trackers that remember deleted artifacts so
// they are never deleted twice. The janitor lets them forget artifacts that
// have been gone longer than the sweep horizon.
type Forgetter interface {
	ForgetRetired(olderThan time.Duration) int
}

// Ledger records artifacts removed outside the reaper.
type Ledger interface {
	MarkDeleted(ctx context.Context, fileName string, at time.Time, lastError string) error
}
