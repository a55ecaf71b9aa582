package app

import "fmt"

// State is a bootstrap phase. Transitions only move forward.
type State int32

const (
	StateUnstarted State = iota
	StateComposing
	StateLaunching
	StateRunning
	// StateFailed is terminal: the runtime reported a startup failure.
	StateFailed
	// StateExited means the runtime returned after a normal session end.
	StateExited
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateComposing:
		return "composing"
	case StateLaunching:
		return "launching"
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	case StateExited:
		return "exited"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}
