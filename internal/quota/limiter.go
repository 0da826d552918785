package quota

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/amityadav/researchcrew/internal/store"
)

// ErrQuotaExceeded is returned when a recipient has used up the daily run limit
var ErrQuotaExceeded = errors.New("daily run limit reached")

// RunCreator creates a run only while its recipient is below a limit
type RunCreator interface {
	CreateWithinLimit(ctx context.Context, run *store.Run, since time.Time, limit int) (int, error)
}

// Limiter enforces a per-recipient daily run limit. A limit of 0 disables it.
type Limiter struct {
	runs  RunCreator
	limit int
	now   func() time.Time
}

func NewLimiter(runs RunCreator, dailyLimit int) *Limiter {
	return &Limiter{
		runs:  runs,
		limit: dailyLimit,
		now:   time.Now,
	}
}

// Limit returns the configured daily limit
func (l *Limiter) Limit() int {
	return l.limit
}

// Create records the run, or returns ErrQuotaExceeded when its recipient
// already has limit runs today. The count and the insert happen atomically
// in the store.
func (l *Limiter) Create(ctx context.Context, run *store.Run) error {
	used, err := l.runs.CreateWithinLimit(ctx, run, startOfDay(l.now()), l.limit)
	if errors.Is(err, store.ErrLimitReached) {
		log.Printf("[Quota] %s reached the daily limit (%d/%d)", run.Recipient, used, l.limit)
		return fmt.Errorf("%w: you've used %d of %d runs today, try again tomorrow", ErrQuotaExceeded, used, l.limit)
	}
	if err != nil {
		log.Printf("[Quota] Failed to record run for %s: %v", run.Recipient, err)
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
