package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/amityadav/researchcrew/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuns struct {
	used    int
	err     error
	since   time.Time
	limit   int
	created int
}

func (f *fakeRuns) CreateWithinLimit(ctx context.Context, run *store.Run, since time.Time, limit int) (int, error) {
	f.since = since
	f.limit = limit
	if f.err != nil {
		return f.used, f.err
	}
	if limit > 0 && f.used >= limit {
		return f.used, store.ErrLimitReached
	}
	f.created++
	return f.used, nil
}

func TestLimiterDisabled(t *testing.T) {
	runs := &fakeRuns{used: 100}
	l := NewLimiter(runs, 0)

	require.NoError(t, l.Create(context.Background(), &store.Run{Recipient: "ada@example.com"}))
	assert.Equal(t, 1, runs.created)
	assert.Equal(t, 0, runs.limit)
}

func TestLimiterUnderLimit(t *testing.T) {
	runs := &fakeRuns{used: 2}
	l := NewLimiter(runs, 3)
	l.now = func() time.Time { return time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC) }

	require.NoError(t, l.Create(context.Background(), &store.Run{Recipient: "ada@example.com"}))
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), runs.since)
	assert.Equal(t, 1, runs.created)
}

func TestLimiterExceeded(t *testing.T) {
	runs := &fakeRuns{used: 3}
	l := NewLimiter(runs, 3)

	err := l.Create(context.Background(), &store.Run{Recipient: "ada@example.com"})
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "3 of 3")
	assert.Equal(t, 0, runs.created)
}

func TestLimiterStoreError(t *testing.T) {
	l := NewLimiter(&fakeRuns{err: errors.New("db down")}, 3)

	err := l.Create(context.Background(), &store.Run{Recipient: "ada@example.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "db down")
}

func TestLimiterConcurrentCreates(t *testing.T) {
	st := store.NewMemoryStore()
	l := NewLimiter(st, 2)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- l.Create(context.Background(), &store.Run{Topic: "Go", Recipient: "Ada@example.com"})
		}()
	}
	wg.Wait()
	close(errs)

	rejected := 0
	for err := range errs {
		if err != nil {
			require.ErrorIs(t, err, ErrQuotaExceeded)
			rejected++
		}
	}
	assert.Equal(t, 8, rejected)

	count, err := st.CountSince(context.Background(), "ada@example.com", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
