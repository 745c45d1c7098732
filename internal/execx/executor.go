package execx

import (
	"context"
	"fmt"
	"strings"
)

// Cmd describes one external command invocation. Env entries are KEY=VALUE
// pairs appended to the inherited environment; Dir scopes the working
// directory.
type Cmd struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

func (c Cmd) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the bounded, observable completion of a command: an exit code and
// the captured output. A command that could not even start is reported via
// the error return, not a Result.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Output condenses captured output for failure messages.
func (r Result) Output() string {
	out := strings.TrimSpace(r.Stdout)
	if errOut := strings.TrimSpace(r.Stderr); errOut != "" {
		if out != "" {
			out += "\n"
		}
		out += errOut
	}
	return out
}

// Executor runs external tools. The synchronous form blocks until completion;
// the asynchronous form returns immediately and signals completion through the
// callback, for host environments that forbid long synchronous blocking.
// Implementations own process lifecycles; callers only ever see completed
// results.
type Executor interface {
	Run(ctx context.Context, cmd Cmd) (Result, error)
	RunAsync(ctx context.Context, cmd Cmd, onComplete func(Result, error))
}

// FailureError renders a command failure with enough detail to diagnose it.
func FailureError(cmd Cmd, res Result) error {
	return fmt.Errorf("command %q exited with status %d: %s", cmd.String(), res.ExitCode, res.Output())
}
