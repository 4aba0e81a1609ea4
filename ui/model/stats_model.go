package model

import (
	"time"
)

// StatsModel accumulates backend request outcomes for the status panel.
// It is decoupled from the UI; presenters should poll Values() and update views.
// The zero value is ready to use.
type StatsModel struct {
	requests    int
	failures    int
	last        time.Duration
	accumulated time.Duration
	lastAt      time.Time
}

// NewStatsModel returns a pointer to a ready-to-use StatsModel.
func NewStatsModel() *StatsModel { return &StatsModel{} }

// Record adds one finished request taking elapsed, completed at now.
func (m *StatsModel) Record(elapsed time.Duration, failed bool, now time.Time) {
	if m == nil {
		return
	}
	m.requests++
	if failed {
		m.failures++
	}
	m.last = elapsed
	m.accumulated += elapsed
	m.lastAt = now
}

// Stats is a snapshot of the model.
type Stats struct {
	Requests int
	Failures int
	Last     time.Duration
	Total    time.Duration
	Average  time.Duration
	LastAt   time.Time
}

// Values returns the current counters.
func (m *StatsModel) Values() Stats {
	if m == nil {
		return Stats{}
	}
	s := Stats{
		Requests: m.requests,
		Failures: m.failures,
		Last:     m.last,
		Total:    m.accumulated,
		LastAt:   m.lastAt,
	}
	if m.requests > 0 {
		s.Average = m.accumulated / time.Duration(m.requests)
	}
	return s
}
