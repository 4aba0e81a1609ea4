package view

import (
	"fmt"
	"time"

	"github.com/soocke/print-prep-go/ui/model"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// RequestStats shows backend request counters.
type RequestStats interface {
	Set(s model.Stats)
}

type requestStats struct {
	countLbl  *LabelWidget
	timingLbl *LabelWidget
}

// NewRequestStats creates the counter and timing labels at (row, startCol)
// and (row, startCol+1). If parent is nil, labels are positioned relative to
// the App root.
func NewRequestStats(parent *FrameWidget, row, startCol int) RequestStats {
	s := &requestStats{countLbl: Label(Width(20)), timingLbl: Label(Width(26))}
	if parent != nil {
		Grid(s.countLbl, In(parent), Row(row), Column(startCol), Sticky("w"), Padx("0.2m"))
		Grid(s.timingLbl, In(parent), Row(row), Column(startCol+1), Sticky("w"), Padx("0.2m"))
	} else {
		Grid(s.countLbl, Row(row), Column(startCol), Sticky("w"), Padx("0.2m"))
		Grid(s.timingLbl, Row(row), Column(startCol+1), Sticky("w"), Padx("0.2m"))
	}
	s.Set(model.Stats{})
	return s
}

func (s *requestStats) Set(st model.Stats) {
	if s == nil || s.countLbl == nil {
		return
	}
	s.countLbl.Configure(Txt(countText(st)))
	s.timingLbl.Configure(Txt(timingText(st)))
}

func countText(st model.Stats) string {
	return fmt.Sprintf("Requests: %d (%d failed)", st.Requests, st.Failures)
}

func timingText(st model.Stats) string {
	if st.Requests == 0 {
		return "Last: -  Avg: -"
	}
	return fmt.Sprintf("Last: %s  Avg: %s", seconds(st.Last), seconds(st.Average))
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
