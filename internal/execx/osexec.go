package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// OSExecutor runs commands with os/exec. Package-manager CLIs (pod, gem)
// misbehave under non-UTF-8 locales, so a sane LANG is injected unless the
// caller overrides it.
type OSExecutor struct {
	log *zap.Logger
}

func NewOSExecutor(log *zap.Logger) *OSExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	return &OSExecutor{log: log}
}

func (e *OSExecutor) Run(ctx context.Context, cmd Cmd) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), "LANG=en_US.UTF-8")
	c.Env = append(c.Env, cmd.Env...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	e.log.Debug("running command", zap.String("cmd", cmd.String()), zap.String("dir", cmd.Dir))
	err := c.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return Result{}, fmt.Errorf("start %q: %w", cmd.String(), err)
	}
	return res, nil
}

// RunAsync runs the command on its own goroutine and reports through
// onComplete. The command is never forcibly killed by a superseding pass; it
// runs to completion and stale results are discarded by the caller.
func (e *OSExecutor) RunAsync(ctx context.Context, cmd Cmd, onComplete func(Result, error)) {
	go func() {
		onComplete(e.Run(ctx, cmd))
	}()
}
