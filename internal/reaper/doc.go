// Package reaper deletes generated export artifacts after a delay.
//
// Every artifact handed to Schedule gets exactly one pending timer. When the
// timer fires the reaper calls its Deleter once and keeps a tombstone so the
// artifact is never scheduled again. ForgetRetired drops old tombstones; the
// janitor calls it with the sweep horizon. Touch pushes a pending deletion back by a full delay window, which is
// how re-served exports stay alive while people are still opening them.
//
// Per-artifact states:
//
//	Unscheduled --Schedule--> Pending --delay elapses--> Firing --> Gone
//	Pending --Touch / Schedule--> Pending (new deadline)
//	Pending --Cancel--> Unscheduled
//
// Touch and Schedule on a Firing or Gone artifact are no-ops. Whether a Touch
// that races a firing timer wins is decided by the timer's Stop result while
// the reaper lock is held, so exactly one of "deferred" or "deleted" happens.
//
// Example usage:
//
//	r := reaper.New(store, reaper.WithNotifier(hub), reaper.WithLogger(logger))
//	defer r.Close()
//
//	if err := r.Schedule(path, 15*time.Minute); err != nil {
//		return err
//	}
//	// later, when the file is served again
//	r.Touch(path)
package reaper
