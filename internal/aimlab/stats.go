package aimlab

import "time"

// RunStats accumulates shot counters for one run. Accuracy is derived, never stored.
type RunStats struct {
	ShotsFired int           `json:"shotsFired"`
	Hits       int           `json:"hits"`
	StartedAt  time.Duration `json:"-"`
}

func (s *RunStats) Record(o Outcome) {
	s.ShotsFired++
	if o.Hit() {
		s.Hits++
	}
}

// Accuracy is hits/shots as a percentage, 0 when nothing was fired.
func (s RunStats) Accuracy() float64 {
	if s.ShotsFired == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.ShotsFired) * 100
}

func (s RunStats) Summary(id string, mode Mode, now time.Duration, createdAt time.Time) PerformanceRecord {
	elapsed := now - s.StartedAt
	if elapsed < 0 {
		elapsed = 0
	}
	return PerformanceRecord{
		ID:                id,
		Mode:              mode,
		TimeToEliminateMs: elapsed.Milliseconds(),
		ShotsFired:        s.ShotsFired,
		Accuracy:          s.Accuracy(),
		CreatedAt:         createdAt,
	}
}
