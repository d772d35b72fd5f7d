package harvest

import (
	"sync/atomic"
	"time"
)

// Stats tracks harvest run counters.
type Stats struct {
	Pages     atomic.Int64
	Metas     atomic.Int64
	Fetched   atomic.Int64
	Extracted atomic.Int64
	Dropped   atomic.Int64
	Stored    atomic.Int64
	Failed    atomic.Int64
	StartTime time.Time
}

// Snapshot returns a copy of stats safe for reading.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"pages":     s.Pages.Load(),
		"metas":     s.Metas.Load(),
		"fetched":   s.Fetched.Load(),
		"extracted": s.Extracted.Load(),
		"dropped":   s.Dropped.Load(),
		"stored":    s.Stored.Load(),
		"failed":    s.Failed.Load(),
		"elapsed":   time.Since(s.StartTime).String(),
	}
}
