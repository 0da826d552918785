package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps runs in process memory; used when no database is configured
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]*Run),
		now:  time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.create(run)
	return nil
}

func (s *MemoryStore) CreateWithinLimit(ctx context.Context, run *Run, since time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := s.countSince(run.Recipient, since)
	if limit > 0 && used >= limit {
		return used, ErrLimitReached
	}
	s.create(run)
	return used, nil
}

func (s *MemoryStore) create(run *Run) {
	now := s.now()
	run.ID = uuid.NewString()
	run.Status = StatusPending
	run.CreatedAt = now
	run.UpdatedAt = now

	stored := *run
	s.runs[run.ID] = &stored
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (s *MemoryStore) update(id string, fn func(*Run)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return ErrNotFound
	}
	fn(run)
	run.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) UpdateProgress(ctx context.Context, id string, percent int, stage, message string) error {
	return s.update(id, func(r *Run) {
		r.Status = StatusRunning
		r.Progress = percent
		r.Stage = stage
		r.Message = message
	})
}

func (s *MemoryStore) Complete(ctx context.Context, id, research, summary, emailStatus string) error {
	return s.update(id, func(r *Run) {
		r.Status = StatusCompleted
		r.Progress = 100
		r.Stage = "done"
		r.Research = research
		r.Summary = summary
		r.EmailStatus = emailStatus
	})
}

func (s *MemoryStore) Fail(ctx context.Context, id, errMsg string) error {
	return s.update(id, func(r *Run) {
		r.Status = StatusFailed
		r.Progress = 0
		r.Stage = "failed"
		r.Error = errMsg
	})
}

func (s *MemoryStore) CountSince(ctx context.Context, recipient string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.countSince(recipient, since), nil
}

func (s *MemoryStore) countSince(recipient string, since time.Time) int {
	count := 0
	for _, r := range s.runs {
		if strings.EqualFold(r.Recipient, recipient) && !r.CreatedAt.Before(since) {
			count++
		}
	}
	return count
}

func (s *MemoryStore) Close() {}
