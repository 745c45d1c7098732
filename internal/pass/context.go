package pass

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anvil-platform/depstage/internal/deps"
	"github.com/anvil-platform/depstage/internal/resolver"
	"github.com/anvil-platform/depstage/internal/source"
)

// Context owns the working state of exactly one resolution pass. It is
// constructed by the runner, threaded through the pipeline, and discarded
// when the pass ends; nothing in it is shared across passes, which is what
// makes the single-flight discipline safe.
type Context struct {
	// ID correlates all log lines of one pass.
	ID  string
	Log *zap.Logger

	Providers []source.Provider

	Batch  source.Batch
	Set    *deps.ResolvedSet
	Report resolver.Report

	warnings []string
}

func newContext(log *zap.Logger, providers []source.Provider) *Context {
	id := uuid.NewString()
	return &Context{
		ID:        id,
		Log:       log.With(zap.String("pass", id)),
		Providers: providers,
	}
}

// Warn appends user-visible warnings, preserving order of occurrence.
func (c *Context) Warn(msgs ...string) {
	c.warnings = append(c.warnings, msgs...)
}

// Warnings returns the ordered warning list accumulated so far.
func (c *Context) Warnings() []string {
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)
	return out
}
