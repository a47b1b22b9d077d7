package worker

// The lifecycle state of a worker.
type State uint8

const (
	Init State = iota
	ImportingScene
	Planning
	Executing
	Draining
	Terminated
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case ImportingScene:
		return "importing scene"
	case Planning:
		return "planning"
	case Executing:
		return "executing"
	case Draining:
		return "draining"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}
