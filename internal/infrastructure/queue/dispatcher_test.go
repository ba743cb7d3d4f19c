package queue

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magmutual/users-api/internal/core/ports"
)

type stubImporter struct {
	running    atomic.Int32
	maxRunning atomic.Int32
	delay      time.Duration
	err        error
}

func (s *stubImporter) ImportCSV(ctx context.Context, r io.Reader, _ string) (*ports.ImportResult, error) {
	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		m := s.maxRunning.Load()
		if n <= m || s.maxRunning.CompareAndSwap(m, n) {
			break
		}
	}

	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if s.err != nil {
		return nil, s.err
	}
	b, _ := io.ReadAll(r)
	return &ports.ImportResult{Imported: strings.Count(string(b), "\n")}, nil
}

func TestDispatcher_ReturnsServiceResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(1, &stubImporter{}, zerolog.Nop())
	d.Start(ctx)

	res, err := d.ImportCSV(context.Background(), strings.NewReader("h\na\nb\n"), "")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
}

func TestDispatcher_PropagatesErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boom := errors.New("row 1 rejected")
	d := NewDispatcher(1, &stubImporter{err: boom}, zerolog.Nop())
	d.Start(ctx)

	_, err := d.ImportCSV(context.Background(), strings.NewReader(""), "")
	assert.ErrorIs(t, err, boom)
}

func TestDispatcher_BoundsConcurrency(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &stubImporter{delay: 20 * time.Millisecond}
	d := NewDispatcher(2, svc, zerolog.Nop())
	d.Start(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.ImportCSV(context.Background(), strings.NewReader("x\n"), "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, svc.maxRunning.Load(), int32(2))
}

func TestDispatcher_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(1, &stubImporter{delay: time.Second}, zerolog.Nop())
	d.Start(ctx)

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer reqCancel()

	_, err := d.ImportCSV(reqCtx, strings.NewReader(""), "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatcher_Stopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(1, &stubImporter{}, zerolog.Nop())
	d.Start(ctx)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case <-d.stopped:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	// A fresh request context never expires, so only the stop signal can end the call.
	_, err := d.ImportCSV(context.Background(), strings.NewReader(""), "")
	if err != nil {
		assert.ErrorIs(t, err, ErrStopped)
	}
}
