package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/amityadav/researchcrew/internal/core"
	"github.com/amityadav/researchcrew/internal/store"
)

const storeWriteTimeout = 10 * time.Second

// Runner executes a research request
type Runner interface {
	Run(ctx context.Context, req core.Request, onProgress core.ProgressFunc) (*core.Result, error)
}

// Quota records a run only while its recipient is under the run limit
type Quota interface {
	Create(ctx context.Context, run *store.Run) error
}

// ResearchService records research runs in the store, executes them with a
// deadline and broadcasts their progress.
type ResearchService struct {
	runner  Runner
	store   store.Store
	quota   Quota
	hub     *Hub
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewResearchService creates a new ResearchService
func NewResearchService(r Runner, s store.Store, q Quota, hub *Hub, timeout time.Duration) *ResearchService {
	return &ResearchService{
		runner:  r,
		store:   s,
		quota:   q,
		hub:     hub,
		timeout: timeout,
	}
}

// Subscribe streams progress updates for a run
func (s *ResearchService) Subscribe(runID string) (<-chan core.Progress, func()) {
	return s.hub.Subscribe(runID)
}

// Get returns a stored run
func (s *ResearchService) Get(ctx context.Context, runID string) (*store.Run, error) {
	return s.store.Get(ctx, runID)
}

// Submit validates the request, checks the quota, records a PENDING run and
// executes it in the background.
func (s *ResearchService) Submit(ctx context.Context, req core.Request) (*store.Run, error) {
	run, err := s.create(ctx, &req)
	if err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(run.ID, req)
	}()
	return run, nil
}

// RunSync records a run and executes it before returning its final state
func (s *ResearchService) RunSync(ctx context.Context, req core.Request) (*store.Run, error) {
	run, err := s.create(ctx, &req)
	if err != nil {
		return nil, err
	}
	s.execute(run.ID, req)
	return s.store.Get(ctx, run.ID)
}

// Wait blocks until all background runs have finished
func (s *ResearchService) Wait() {
	s.wg.Wait()
}

func (s *ResearchService) create(ctx context.Context, req *core.Request) (*store.Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	run := &store.Run{
		Topic:      req.Topic,
		Recipient:  req.Recipient,
		Format:     req.Format,
		NumResults: req.NumResults,
	}
	if s.quota != nil {
		if err := s.quota.Create(ctx, run); err != nil {
			return nil, err
		}
	} else if err := s.store.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	log.Printf("[Service.Research] Run %s created for %s", run.ID, req.Recipient)
	return run, nil
}

func (s *ResearchService) execute(runID string, req core.Request) {
	defer s.hub.Finish(runID)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.runner.Run(ctx, req, func(p core.Progress) {
		s.writeStore(runID, func(ctx context.Context) error {
			return s.store.UpdateProgress(ctx, runID, p.Percent, p.Stage, p.Message)
		})
		s.hub.Publish(runID, p)
	})
	if err != nil {
		log.Printf("[Service.Research] Run %s failed after %v: %v", runID, time.Since(start), err)
		s.writeStore(runID, func(ctx context.Context) error {
			return s.store.Fail(ctx, runID, err.Error())
		})
		return
	}

	log.Printf("[Service.Research] Run %s completed in %v", runID, time.Since(start))
	s.writeStore(runID, func(ctx context.Context) error {
		return s.store.Complete(ctx, runID, result.Research, result.Summary, result.EmailStatus)
	})
}

func (s *ResearchService) writeStore(runID string, write func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
	defer cancel()
	if err := write(ctx); err != nil {
		log.Printf("[Service.Research] Failed to update run %s: %v", runID, err)
	}
}
