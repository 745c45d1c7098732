package execx

import (
	"context"
	"sync"
)

// Fake is a scripted Executor for tests. Results are matched by command name
// (first token); unmatched commands succeed with empty output.
type Fake struct {
	mu      sync.Mutex
	scripts map[string][]scripted
	// Invocations records every command in run order.
	Invocations []Cmd
}

type scripted struct {
	res Result
	err error
}

func NewFake() *Fake {
	return &Fake{scripts: make(map[string][]scripted)}
}

// Script queues a result for the next invocation of name. Repeated calls for
// the same name queue consecutive results; the last one repeats thereafter.
func (f *Fake) Script(name string, res Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[name] = append(f.scripts[name], scripted{res: res})
}

// ScriptError queues a start failure for the next invocation of name.
func (f *Fake) ScriptError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[name] = append(f.scripts[name], scripted{err: err})
}

func (f *Fake) Run(_ context.Context, cmd Cmd) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Invocations = append(f.Invocations, cmd)

	queue := f.scripts[cmd.Name]
	if len(queue) == 0 {
		return Result{}, nil
	}
	next := queue[0]
	if len(queue) > 1 {
		f.scripts[cmd.Name] = queue[1:]
	}
	return next.res, next.err
}

func (f *Fake) RunAsync(ctx context.Context, cmd Cmd, onComplete func(Result, error)) {
	go func() {
		onComplete(f.Run(ctx, cmd))
	}()
}

// Ran returns the command strings in invocation order.
func (f *Fake) Ran() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Invocations))
	for _, c := range f.Invocations {
		out = append(out, c.String())
	}
	return out
}
