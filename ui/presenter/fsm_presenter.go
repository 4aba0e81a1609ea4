package presenter

import (
	"time"

	"github.com/soocke/print-prep-go/domain/workflow"
)

// FSMSource provides the workflow methods the presenter requires.
type FSMSource interface {
	Current() workflow.State
}

// StateView sets the state label in the view.
type StateView interface{ SetStateLabel(string) }

// FSMPresenter receives workflow transitions and updates the view on tick.
// Listeners run on the machine goroutine, so transitions are handed over
// through a small buffered channel.
type FSMPresenter struct {
	eng     FSMSource
	view    StateView
	latest  workflow.Transition // last reflected transition
	shown   bool
	pending chan workflow.Transition
}

func NewFSMPresenter(eng FSMSource, view StateView) *FSMPresenter {
	return &FSMPresenter{eng: eng, view: view, pending: make(chan workflow.Transition, 32)}
}

// OnTransition queues a transition from the workflow listener. When the
// queue is full the oldest entry is dropped; only the latest is shown.
//
// The latest queued transition will be reflected on the next Tick.
func (p *FSMPresenter) OnTransition(t workflow.Transition) {
	if p == nil {
		return
	}
	for {
		select {
		case p.pending <- t:
			return
		default:
			select {
			case <-p.pending:
			default:
			}
		}
	}
}

// Tick processes queued transitions and updates the view with the most recent one.
func (p *FSMPresenter) Tick(now time.Time) {
	if p == nil || p.eng == nil || p.view == nil {
		return
	}
	last, ok := p.drain()
	if !ok {
		if p.shown {
			return
		}
		last = workflow.Transition{To: p.eng.Current()}
	}
	if p.shown && last == p.latest {
		return
	}
	p.latest, p.shown = last, true
	p.view.SetStateLabel(stateText(last))
}

func (p *FSMPresenter) drain() (workflow.Transition, bool) {
	var last workflow.Transition
	got := false
	for {
		select {
		case t := <-p.pending:
			last, got = t, true
		default:
			return last, got
		}
	}
}

func stateText(t workflow.Transition) string {
	s := "State: " + t.To.String()
	if t.Detail != "" {
		s += " (" + t.Detail + ")"
	}
	return s
}
