package background

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Go(t *testing.T) {
	var buf bytes.Buffer
	r := NewRunner(time.Second, zerolog.New(&buf))

	parent, cancel := context.WithCancel(context.Background())
	var ran atomic.Bool
	r.Go(parent, "survives-cancel", func(ctx context.Context) error {
		cancel()
		time.Sleep(10 * time.Millisecond)
		ran.Store(ctx.Err() == nil)
		return nil
	})
	r.Go(context.Background(), "fails", func(context.Context) error { return errors.New("boom") })
	r.Go(context.Background(), "panics", func(context.Context) error { panic("bad") })
	r.Wait()

	assert.True(t, ran.Load())
	assert.Contains(t, buf.String(), `"task":"fails"`)
	assert.Contains(t, buf.String(), `"task":"panics"`)
	assert.Contains(t, buf.String(), "panic: bad")
}

func TestRunner_Every(t *testing.T) {
	r := NewRunner(time.Second, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	r.Every(ctx, "tick", 10*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	r.Wait()
}
