package export

import "time"

// SetServiceClock pins the time and file suffix a Service uses.
func SetServiceClock(s *Service, now func() time.Time, suffix func() (string, error)) {
	s.now = now
	s.suffix = suffix
}
