package execx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceRunsToDone(t *testing.T) {
	fake := NewFake()
	steps := []Cmd{
		{Name: "first"},
		{Name: "second"},
	}

	_, _, err := Sequence(context.Background(), fake, steps, func(step int, res Result) Decision {
		if step == 0 {
			return Next(1)
		}
		return Done()
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, fake.Ran())
}

func TestSequenceAbortReportsFailingCommand(t *testing.T) {
	fake := NewFake()
	fake.Script("flaky", Result{ExitCode: 31, Stderr: "boom"})

	cmd, res, err := Sequence(context.Background(), fake, []Cmd{{Name: "flaky", Args: []string{"install"}}},
		func(step int, res Result) Decision {
			if !res.OK() {
				return Abort()
			}
			return Done()
		})
	require.Error(t, err)
	assert.Equal(t, "flaky install", cmd.String())
	assert.Equal(t, 31, res.ExitCode)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "status 31")
}

// retryOncePolicy models the materializer's policy: on first failure run a
// recovery step, retry once, and treat a second failure as terminal.
func retryOncePolicy() DecisionFunc {
	retried := false
	return func(step int, res Result) Decision {
		switch step {
		case 0: // install
			if res.OK() {
				return Done()
			}
			if retried {
				return Abort()
			}
			retried = true
			return Next(1)
		default: // recovery
			return Next(0)
		}
	}
}

func TestSequenceRetryOncePolicyRecovers(t *testing.T) {
	fake := NewFake()
	fake.Script("install", Result{ExitCode: 1, Stderr: "index stale"})
	fake.Script("install", Result{ExitCode: 0})

	steps := []Cmd{{Name: "install"}, {Name: "recover"}}
	_, _, err := Sequence(context.Background(), fake, steps, retryOncePolicy())
	require.NoError(t, err)
	assert.Equal(t, []string{"install", "recover", "install"}, fake.Ran())
}

func TestSequenceRetryOncePolicySecondFailureIsTerminal(t *testing.T) {
	fake := NewFake()
	fake.Script("install", Result{ExitCode: 1, Stderr: "still broken"})

	steps := []Cmd{{Name: "install"}, {Name: "recover"}}
	_, _, err := Sequence(context.Background(), fake, steps, retryOncePolicy())
	require.Error(t, err)
	// install, recover, install — never a third install.
	assert.Equal(t, []string{"install", "recover", "install"}, fake.Ran())
}

func TestSequenceExecutorErrorAborts(t *testing.T) {
	fake := NewFake()
	fake.ScriptError("missing-tool", errors.New("executable not found"))

	cmd, _, err := Sequence(context.Background(), fake, []Cmd{{Name: "missing-tool"}},
		func(step int, res Result) Decision { return Done() })
	require.Error(t, err)
	assert.Equal(t, "missing-tool", cmd.Name)
}

func TestSequenceRejectsOutOfRangeDecision(t *testing.T) {
	fake := NewFake()
	_, _, err := Sequence(context.Background(), fake, []Cmd{{Name: "only"}},
		func(step int, res Result) Decision { return Next(5) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decision points at step 5")
}

func TestRunAsyncReportsThroughCallback(t *testing.T) {
	fake := NewFake()
	fake.Script("pod", Result{ExitCode: 0, Stdout: "installed"})

	done := make(chan Result, 1)
	fake.RunAsync(context.Background(), Cmd{Name: "pod", Args: []string{"install"}}, func(res Result, err error) {
		require.NoError(t, err)
		done <- res
	})
	res := <-done
	assert.Equal(t, "installed", res.Stdout)
	assert.Equal(t, []string{"pod install"}, fake.Ran())
}

func TestResultOutputCombinesStreams(t *testing.T) {
	r := Result{Stdout: "out\n", Stderr: "err\n"}
	assert.Equal(t, "out\nerr", r.Output())
	assert.Equal(t, "err", Result{Stderr: "err"}.Output())
}
