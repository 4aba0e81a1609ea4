package model

import (
	"sync/atomic"
)

// BusyModel tracks whether a backend request is in flight. The zero value is idle and usable.
// Concurrency-safe via atomic Bool because UI callbacks and worker goroutines may race.
type BusyModel struct{ busy atomic.Bool }

// Busy reports whether a request is running.
func (m *BusyModel) Busy() bool {
	if m == nil {
		return false
	}
	return m.busy.Load()
}

// TryAcquire marks the model busy. It returns false if it already was.
func (m *BusyModel) TryAcquire() bool {
	if m == nil {
		return false
	}
	return m.busy.CompareAndSwap(false, true)
}

// Release marks the model idle.
func (m *BusyModel) Release() {
	if m == nil {
		return
	}
	m.busy.Store(false)
}
