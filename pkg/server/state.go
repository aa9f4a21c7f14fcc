package server

// State is the lifecycle state of a Server.
type State int

const (
	StateIdle State = iota
	StateAccepting
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccepting:
		return "accepting"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
