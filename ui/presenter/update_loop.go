package presenter

import "time"

// Ticker is advanced once per loop iteration.
type Ticker interface{ Tick(now time.Time) }

// Loop aggregates feature presenters and drives periodic updates.
//
// It drains backend results, advances the workflow timers and the
// label presenters, and invokes a scheduler callback. The zero value is
// usable (methods are nil-safe).
type Loop struct {
	Crop     *CropPresenter
	FSM      *FSMPresenter
	Stats    *StatsPresenter
	Workflow Ticker
	Schedule func()
}

func NewLoop(crop *CropPresenter, fsm *FSMPresenter, stats *StatsPresenter, workflow Ticker, schedule func()) *Loop {
	return &Loop{Crop: crop, FSM: fsm, Stats: stats, Workflow: workflow, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	if l.Crop != nil {
		l.Crop.Drain()
	}
	if l.Workflow != nil {
		l.Workflow.Tick(now)
	}
	// Drive FSM presenter so it can flush pending transitions to the view.
	if l.FSM != nil {
		l.FSM.Tick(now)
	}
	if l.Stats != nil {
		l.Stats.Tick(now)
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}
