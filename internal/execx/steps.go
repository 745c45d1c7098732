package execx

import (
	"context"
	"fmt"
)

// Action tells the sequence driver what to do after a step completes.
type Action int

const (
	// ActionNext advances to the step at Decision.Next.
	ActionNext Action = iota
	// ActionDone finishes the sequence successfully.
	ActionDone
	// ActionAbort finishes the sequence with the current step marked failed.
	ActionAbort
)

// Decision is returned by a pure decision function examining one step result.
// Keeping the sequencing policy (retry-once-after-repo-update and friends) in
// a pure function makes it testable without spawning processes.
type Decision struct {
	Action Action
	Next   int
}

func Next(i int) Decision { return Decision{Action: ActionNext, Next: i} }
func Done() Decision      { return Decision{Action: ActionDone} }
func Abort() Decision     { return Decision{Action: ActionAbort} }

// DecisionFunc inspects the index of the step that just ran and its result,
// and decides how the sequence continues. It must not have side effects.
type DecisionFunc func(step int, res Result) Decision

// Sequence runs steps[0] and then follows the decision function until Done or
// Abort. Replaces nested completion-callback chains: the steps are data, the
// policy is one function, and the executor is the only side effect.
//
// On Abort the failing step's command and result are returned so failures can
// be reported with full detail. An executor error (command could not start)
// also aborts.
func Sequence(ctx context.Context, exec Executor, steps []Cmd, decide DecisionFunc) (Cmd, Result, error) {
	if len(steps) == 0 {
		return Cmd{}, Result{}, nil
	}
	i := 0
	for {
		if i < 0 || i >= len(steps) {
			return Cmd{}, Result{}, fmt.Errorf("sequence: decision points at step %d of %d", i, len(steps))
		}
		cmd := steps[i]
		res, err := exec.Run(ctx, cmd)
		if err != nil {
			return cmd, res, err
		}
		switch d := decide(i, res); d.Action {
		case ActionDone:
			return cmd, res, nil
		case ActionAbort:
			return cmd, res, FailureError(cmd, res)
		default:
			i = d.Next
		}
	}
}
