package toolexec

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRunReturnsStdout(t *testing.T) {
	requireShell(t)
	r := NewRunner(zap.NewNop(), Config{Concurrency: 1})

	out, err := r.Run(context.Background(), "sh", "-c", "printf hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}

func TestRunNonZeroExit(t *testing.T) {
	requireShell(t)
	r := NewRunner(zap.NewNop(), Config{Concurrency: 1})

	_, err := r.Run(context.Background(), "sh", "-c", "echo first >&2; echo 'bad input' >&2; exit 3")

	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 3, te.ExitCode)
	assert.False(t, te.TimedOut)
	assert.Contains(t, te.Stderr, "bad input")
	assert.Equal(t, "sh exited with code 3: bad input", te.Error())
}

func TestRunTimeout(t *testing.T) {
	requireShell(t)
	r := NewRunner(zap.NewNop(), Config{Concurrency: 1, Timeout: 100 * time.Millisecond})

	start := time.Now()
	_, err := r.Run(context.Background(), "sh", "-c", "sleep 5 & sleep 5")

	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.True(t, te.TimedOut)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunMissingBinary(t *testing.T) {
	r := NewRunner(zap.NewNop(), Config{})

	_, err := r.Run(context.Background(), "definitely-not-a-real-tool-binary")

	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 0, te.ExitCode)
	assert.Error(t, te.Err)
}

func TestRunHonoursConcurrencyLimit(t *testing.T) {
	requireShell(t)
	r := NewRunner(zap.NewNop(), Config{Concurrency: 2})

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Run(context.Background(), "sh", "-c", "sleep 0.2")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// four 200ms jobs through two slots need at least two rounds
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
}

func TestRunCancelledWhileWaitingForSlot(t *testing.T) {
	requireShell(t)
	r := NewRunner(zap.NewNop(), Config{Concurrency: 1})

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = r.Run(context.Background(), "sh", "-c", "sleep 0.3")
	}()
	<-started
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := r.Run(ctx, "sh", "-c", "true")

	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, te.TimedOut)
}

func TestTailKeepsEnd(t *testing.T) {
	long := make([]byte, stderrLimit+10)
	for i := range long {
		long[i] = 'a'
	}
	long[len(long)-1] = 'z'
	got := tail(string(long))
	assert.Len(t, got, stderrLimit)
	assert.Equal(t, byte('z'), got[len(got)-1])
}
