package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mattjoyce/planview/internal/artifact"
	"github.com/mattjoyce/planview/internal/events"
)

const sweptReason = "swept by janitor"

// Config controls the sweep cadence.
type Config struct {
	// Interval between sweeps. Zero disables the loop; Start still sweeps once.
	Interval time.Duration
	// OlderThan is the minimum artifact age before a sweep removes it.
	OlderThan time.Duration
	Clock     clockwork.Clock
}

// Janitor removes export artifacts the reaper no longer knows about, such as
// files left behind by a previous process.
type Janitor struct {
	cfg     Config
	sweeper Sweeper
	tracker Tracker
	ledger  Ledger
	events  *events.Hub
	logger  *slog.Logger
	stopCh  chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// New creates a Janitor. tracker and ledger may be nil.
func New(cfg Config, sweeper Sweeper, tracker Tracker, ledger Ledger, hub *events.Hub, logger *slog.Logger) *Janitor {
	if hub == nil {
		hub = events.NewHub(32)
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Janitor{
		cfg:     cfg,
		sweeper: sweeper,
		tracker: tracker,
		ledger:  ledger,
		events:  hub,
		logger:  logger.With("component", "janitor"),
		stopCh:  make(chan struct{}),
	}
}

// Start performs the startup sweep and begins the sweep loop.
func (j *Janitor) Start(ctx context.Context) error {
	j.logger.Info("Starting janitor", "interval", j.cfg.Interval, "older_than", j.cfg.OlderThan)

	if _, err := j.SweepOnce(ctx); err != nil {
		return fmt.Errorf("janitor startup sweep failed: %w", err)
	}

	if j.cfg.Interval <= 0 {
		j.logger.Info("Janitor sweep loop disabled")
		return nil
	}

	j.wg.Add(1)
	go j.tickLoop(ctx)
	return nil
}

// Stop gracefully stops the sweep loop.
func (j *Janitor) Stop() {
	j.logger.Info("Stopping janitor")
	j.once.Do(func() { close(j.stopCh) })
	j.wg.Wait()
	j.logger.Info("Janitor stopped")
}

func (j *Janitor) tickLoop(ctx context.Context) {
	defer j.wg.Done()

	ticker := j.cfg.Clock.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if _, err := j.SweepOnce(ctx); err != nil {
				j.logger.Error("Artifact sweep failed", "error", err)
			}
		case <-j.stopCh:
			return
		case <-ctx.Done():
			j.logger.Warn("Janitor context cancelled, stopping sweep loop")
			return
		}
	}
}

// SweepOnce runs a single sweep pass, skipping artifacts the reaper tracks.
func (j *Janitor) SweepOnce(ctx context.Context) (artifact.SweepReport, error) {
	var keep func(string) bool
	if j.tracker != nil {
		keep = j.tracker.Tracked
	}

	report, err := j.sweeper.Sweep(ctx, j.cfg.OlderThan, keep)
	if err != nil {
		return report, err
	}

	now := j.cfg.Clock.Now().UTC()
	for _, path := range report.Removed {
		name := filepath.Base(path)
		if j.ledger != nil {
			if err := j.ledger.MarkDeleted(ctx, name, now, sweptReason); err != nil {
				j.logger.Warn("Failed to record swept artifact", "artifact", name, "error", err)
			}
		}
		j.logger.Info("Swept stale artifact", "artifact", name)
	}

	if f, ok := j.tracker.(Forgetter); ok && j.cfg.OlderThan > 0 {
		if n := f.ForgetRetired(j.cfg.OlderThan); n > 0 {
			j.logger.Debug("Forgot deleted artifacts", "count", n)
		}
	}

	j.events.Publish("janitor.sweep", map[string]any{
		"deleted": report.Deleted,
		"kept":    report.Kept,
	})
	j.logger.Debug("Janitor sweep", "deleted", report.Deleted, "kept", report.Kept)
	return report, nil
}
