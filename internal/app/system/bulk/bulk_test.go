package bulk

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunIsolatesFailures(t *testing.T) {
	errBad := errors.New("bad item")
	results := Run(context.Background(), 5, 3, func(_ context.Context, i int) (int, error) {
		if i == 2 {
			return 0, errBad
		}
		return i * 10, nil
	})

	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("results[%d].Index = %d", i, r.Index)
		}
		if i == 2 {
			if !errors.Is(r.Err, errBad) {
				t.Errorf("results[2].Err = %v, want errBad", r.Err)
			}
			continue
		}
		if r.Err != nil || r.Value != i*10 {
			t.Errorf("results[%d] = %+v", i, r)
		}
	}
	if ok, failed := Counts(results); ok != 4 || failed != 1 {
		t.Errorf("Counts = %d/%d, want 4/1", ok, failed)
	}
}

func TestRunRespectsWorkerLimit(t *testing.T) {
	var inFlight, peak int32
	Run(context.Background(), 20, 4, func(_ context.Context, _ int) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	})
	if peak > 4 {
		t.Errorf("peak concurrency = %d, want <= 4", peak)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	results := Run(ctx, 3, 2, func(_ context.Context, _ int) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	})
	if calls != 0 {
		t.Errorf("fn called %d times after cancel", calls)
	}
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("results[%d].Err = %v, want context.Canceled", r.Index, r.Err)
		}
	}
}

func TestRunEmpty(t *testing.T) {
	if got := Run(context.Background(), 0, 4, func(context.Context, int) (int, error) { return 0, nil }); len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
}
