package workflow

// State enumerates the stages of preparing one image.
type State int32

const (
	StateEmpty State = iota
	StateLoaded
	StateCropped
	StateSubmitting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateCropped:
		return "cropped"
	case StateSubmitting:
		return "submitting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transition describes one state change. Detail carries the failure message
// or a short summary of the finished request.
type Transition struct {
	From, To State
	Detail   string
}

// Listener is called on each successful state transition, from the machine's
// goroutine.
type Listener func(Transition)

// Interface slices for consumers (presenters).
type StateSource interface{ Current() State }
type ImageEvents interface {
	EventLoaded()
	EventCropped()
	EventSelectionCleared()
	EventReset()
}
type SubmitEvents interface {
	EventSubmit()
	EventSucceeded(summary string)
	EventFailed(err error)
}

// Contract aggregate for DI.
type Contract interface {
	StateSource
	ImageEvents
	SubmitEvents
	AddListener(Listener)
	Close()
}
