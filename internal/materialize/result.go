package materialize

import "fmt"

// Outcome is the per-artifact result of materialization.
type Outcome int

const (
	OutcomeAlreadyPresent Outcome = iota
	OutcomeFetched
	OutcomeFetchFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadyPresent:
		return "already present"
	case OutcomeFetched:
		return "fetched"
	default:
		return "fetch failed"
	}
}

// ArtifactResult is one artifact's outcome. Failed fetches carry the failing
// command, exit status and captured output so the failure can be diagnosed
// without rerunning anything.
type ArtifactResult struct {
	Key      string
	Outcome  Outcome
	Command  string
	ExitCode int
	Output   string
	Reason   string
}

func (a ArtifactResult) failureText() string {
	msg := fmt.Sprintf("%s: %s", a.Key, a.Reason)
	if a.Command != "" {
		msg += fmt.Sprintf(" (command %q exited %d", a.Command, a.ExitCode)
		if a.Output != "" {
			msg += ": " + a.Output
		}
		msg += ")"
	}
	return msg
}

// Result aggregates every artifact's outcome. One artifact failing never
// removes the others from the report.
type Result struct {
	Artifacts []ArtifactResult
}

func (r Result) OK() bool {
	for _, a := range r.Artifacts {
		if a.Outcome == OutcomeFetchFailed {
			return false
		}
	}
	return true
}

// Failures returns only the failed artifacts, in order.
func (r Result) Failures() []ArtifactResult {
	var out []ArtifactResult
	for _, a := range r.Artifacts {
		if a.Outcome == OutcomeFetchFailed {
			out = append(out, a)
		}
	}
	return out
}

// Warnings renders the failures as user-visible strings.
func (r Result) Warnings() []string {
	var out []string
	for _, a := range r.Failures() {
		out = append(out, a.failureText())
	}
	return out
}
