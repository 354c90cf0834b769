// Package publish drives the build, validate and deploy pipeline.
package publish

// State is one stage of the publish pipeline.
type State int

const (
	StateBuilding State = iota
	StateValidating
	StateRejected
	StateReadyToPublish
	StateProductionDeploy
	StatePreviewDeploy
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateBuilding:         "Building",
	StateValidating:       "Validating",
	StateRejected:         "Rejected",
	StateReadyToPublish:   "ReadyToPublish",
	StateProductionDeploy: "ProductionDeploy",
	StatePreviewDeploy:    "PreviewDeploy",
	StateDone:             "Done",
	StateFailed:           "Failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Terminal reports whether the pipeline halts in this state. Terminal
// states are final; the pipeline never retries on its own.
func (s State) Terminal() bool {
	switch s {
	case StateRejected, StateDone, StateFailed:
		return true
	}
	return false
}

// Result records one pipeline run: every state visited in order, plus
// the error that ended it when the terminal state is Rejected or
// Failed.
type Result struct {
	States []State
	Err    error
}

func (r *Result) visit(s State) {
	r.States = append(r.States, s)
}

func (r *Result) fail(err error) *Result {
	r.Err = err
	r.visit(StateFailed)
	return r
}

func (r *Result) reject(err error) *Result {
	r.Err = err
	r.visit(StateRejected)
	return r
}

// Final returns the state the run ended in.
func (r *Result) Final() State {
	if len(r.States) == 0 {
		return StateFailed
	}
	return r.States[len(r.States)-1]
}

// Succeeded reports whether the run reached Done.
func (r *Result) Succeeded() bool {
	return r.Final() == StateDone
}
