package workflow

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Machine serialises workflow events through a single goroutine and notifies
// listeners of every transition. Current may be read from any goroutine.
type Machine struct {
	state     atomic.Int32
	logger    *slog.Logger
	timeout   time.Duration
	submitted time.Time
	events    chan any
	done      chan struct{}
	closeOnce sync.Once
	listeners []Listener
}

// New constructs and starts the event loop. A positive submitTimeout fails
// a submission that has not finished by the next Tick after it elapsed.
func New(logger *slog.Logger, submitTimeout time.Duration) *Machine {
	m := &Machine{logger: logger, timeout: submitTimeout, events: make(chan any, 64), done: make(chan struct{})}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				if logger != nil {
					logger.Error("workflow panic", "error", r, "stack", stack)
				}
			}
		}()
		m.loop()
	}()
	return m
}

type (
	evtLoaded           struct{}
	evtCropped          struct{}
	evtSelectionCleared struct{}
	evtSubmit           struct{ at time.Time }
	evtSucceeded        struct{ summary string }
	evtFailed           struct{ err error }
	evtReset            struct{}
	evtTick             struct{ now time.Time }
	evtAddListener      struct{ l Listener }
)

func (m *Machine) loop() {
	for {
		select {
		case <-m.done:
			return
		case ev := <-m.events:
			m.handle(ev)
		}
	}
}

func (m *Machine) handle(ev any) {
	cur := m.Current()
	switch e := ev.(type) {
	case evtAddListener:
		m.listeners = append(m.listeners, e.l)
	case evtLoaded:
		m.transition(StateLoaded, "")
	case evtCropped:
		switch cur {
		case StateLoaded, StateCropped, StateDone, StateFailed:
			m.transition(StateCropped, "")
		}
	case evtSelectionCleared:
		if cur == StateCropped {
			m.transition(StateLoaded, "")
		}
	case evtSubmit:
		switch cur {
		case StateLoaded, StateCropped, StateDone, StateFailed:
			m.submitted = e.at
			m.transition(StateSubmitting, "")
		}
	case evtSucceeded:
		if cur == StateSubmitting {
			m.transition(StateDone, e.summary)
		}
	case evtFailed:
		if cur == StateSubmitting {
			detail := ""
			if e.err != nil {
				detail = e.err.Error()
			}
			m.transition(StateFailed, detail)
		}
	case evtReset:
		m.transition(StateEmpty, "")
	case evtTick:
		if cur == StateSubmitting && m.timeout > 0 && e.now.Sub(m.submitted) > m.timeout {
			m.transition(StateFailed, "request timed out")
		}
	}
}

func (m *Machine) transition(next State, detail string) {
	prev := m.Current()
	if prev == next && detail == "" {
		return
	}
	m.state.Store(int32(next))
	if m.logger != nil {
		m.logger.Debug("workflow state transition", "from", prev.String(), "to", next.String(), "detail", detail)
	}
	t := Transition{From: prev, To: next, Detail: detail}
	for _, l := range m.listeners {
		func() {
			defer recoverLog(m.logger, "workflow listener panic")
			l(t)
		}()
	}
}

// Public API implements contracts
func (m *Machine) AddListener(l Listener)        { m.send(evtAddListener{l: l}) }
func (m *Machine) Current() State                { return State(m.state.Load()) }
func (m *Machine) EventLoaded()                  { m.send(evtLoaded{}) }
func (m *Machine) EventCropped()                 { m.send(evtCropped{}) }
func (m *Machine) EventSelectionCleared()        { m.send(evtSelectionCleared{}) }
func (m *Machine) EventSubmit()                  { m.send(evtSubmit{at: time.Now()}) }
func (m *Machine) EventSucceeded(summary string) { m.send(evtSucceeded{summary: summary}) }
func (m *Machine) EventFailed(err error)         { m.send(evtFailed{err: err}) }
func (m *Machine) EventReset()                   { m.send(evtReset{}) }
func (m *Machine) Tick(now time.Time)            { m.send(evtTick{now: now}) }

// Close stops the event loop. Events sent afterwards are dropped.
func (m *Machine) Close() { m.closeOnce.Do(func() { close(m.done) }) }

func (m *Machine) send(ev any) {
	select {
	case <-m.done:
	case m.events <- ev:
	}
}

func recoverLog(logger *slog.Logger, msg string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Error(msg, "error", r)
		}
	}
}

// Ensure contract satisfaction
var _ Contract = (*Machine)(nil)
