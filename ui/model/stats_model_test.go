package model

import (
	"testing"
	"time"
)

func TestStatsModel_Record(t *testing.T) {
	m := NewStatsModel()
	base := time.Unix(0, 0)
	m.Record(2*time.Second, false, base)
	m.Record(4*time.Second, true, base.Add(time.Minute))
	s := m.Values()
	if s.Requests != 2 || s.Failures != 1 {
		t.Fatalf("unexpected counts %+v", s)
	}
	if s.Last != 4*time.Second || s.Total != 6*time.Second || s.Average != 3*time.Second {
		t.Fatalf("unexpected durations %+v", s)
	}
	if !s.LastAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected last time %v", s.LastAt)
	}
	var nilModel *StatsModel
	nilModel.Record(time.Second, false, base)
	if nilModel.Values() != (Stats{}) {
		t.Fatalf("nil model should be empty")
	}
}
