package presenter

import (
	"testing"
	"time"

	"github.com/soocke/print-prep-go/domain/workflow"
	"github.com/soocke/print-prep-go/ui/model"
)

type stubState struct{ s workflow.State }

func (s stubState) Current() workflow.State { return s.s }

type labelView struct {
	calls int
	label string
}

func (v *labelView) SetStateLabel(s string) { v.calls++; v.label = s }

func TestFSMPresenter_ShowsInitialAndLatest(t *testing.T) {
	view := &labelView{}
	p := NewFSMPresenter(stubState{workflow.StateEmpty}, view)
	p.Tick(time.Now())
	if view.label != "State: empty" {
		t.Fatalf("unexpected initial label %q", view.label)
	}
	p.OnTransition(workflow.Transition{From: workflow.StateEmpty, To: workflow.StateLoaded})
	p.OnTransition(workflow.Transition{From: workflow.StateLoaded, To: workflow.StateSubmitting})
	p.OnTransition(workflow.Transition{From: workflow.StateSubmitting, To: workflow.StateFailed, Detail: "status 500"})
	p.Tick(time.Now())
	if view.label != "State: failed (status 500)" || view.calls != 2 {
		t.Fatalf("expected only the latest transition, got %q after %d calls", view.label, view.calls)
	}
	p.Tick(time.Now())
	if view.calls != 2 {
		t.Fatalf("idle tick should not touch the view")
	}
}

func TestFSMPresenter_QueueOverflowKeepsLatest(t *testing.T) {
	view := &labelView{}
	p := NewFSMPresenter(stubState{}, view)
	for i := 0; i < 100; i++ {
		p.OnTransition(workflow.Transition{To: workflow.StateLoaded})
	}
	p.OnTransition(workflow.Transition{To: workflow.StateDone, Detail: "ok"})
	p.Tick(time.Now())
	if view.label != "State: done (ok)" {
		t.Fatalf("unexpected label %q", view.label)
	}
}

type statsView struct {
	calls int
	last  model.Stats
}

func (v *statsView) SetStats(s model.Stats) { v.calls++; v.last = s }

func TestStatsPresenter_PushesChanges(t *testing.T) {
	stats := model.NewStatsModel()
	view := &statsView{}
	p := NewStatsPresenter(stats, view)
	stats.Record(time.Second, false, time.Unix(10, 0))
	p.Tick(time.Now())
	p.Tick(time.Now())
	if view.calls != 1 || view.last.Requests != 1 {
		t.Fatalf("expected one update, got %d %+v", view.calls, view.last)
	}
}

type tickCounter struct{ n int }

func (c *tickCounter) Tick(time.Time) { c.n++ }

func TestLoop_TickDrivesPresenters(t *testing.T) {
	view := &labelView{}
	wf := &tickCounter{}
	scheduled := 0
	l := NewLoop(nil, NewFSMPresenter(stubState{workflow.StateLoaded}, view), nil, wf, func() { scheduled++ })
	l.Tick()
	if wf.n != 1 || scheduled != 1 || view.label != "State: loaded" {
		t.Fatalf("loop did not drive everything: wf=%d scheduled=%d label=%q", wf.n, scheduled, view.label)
	}
	var nilLoop *Loop
	nilLoop.Tick()
}
