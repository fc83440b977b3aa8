package compress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerCapturesOutput(t *testing.T) {
	runner := NewExecRunner(5 * time.Second)

	stdout, stderr, err := runner.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")

	require.NoError(t, err)
	assert.Equal(t, "out\n", stdout)
	assert.Equal(t, "err\n", stderr)
}

func TestExecRunnerReportsExitStatus(t *testing.T) {
	runner := NewExecRunner(5 * time.Second)

	_, stderr, err := runner.Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")

	require.Error(t, err)
	assert.Equal(t, "boom\n", stderr)
}

func TestExecRunnerEnforcesTimeout(t *testing.T) {
	runner := NewExecRunner(50 * time.Millisecond)

	_, _, err := runner.Run(context.Background(), "sleep", "5")

	assert.Error(t, err)
}
