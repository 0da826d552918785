package service

import (
	"sync"

	"github.com/amityadav/researchcrew/internal/core"
)

const subscriberBuffer = 32

// Hub fans progress updates of a run out to its subscribers
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan core.Progress]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan core.Progress]struct{})}
}

// Subscribe returns a channel of progress updates for runID, closed when the
// run finishes, and a function that cancels the subscription.
func (h *Hub) Subscribe(runID string) (<-chan core.Progress, func()) {
	ch := make(chan core.Progress, subscriberBuffer)

	h.mu.Lock()
	if h.subs[runID] == nil {
		h.subs[runID] = make(map[chan core.Progress]struct{})
	}
	h.subs[runID][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if subs, ok := h.subs[runID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.subs, runID)
			}
		}
	}
}

// Publish delivers p to every subscriber of runID. Slow subscribers miss updates.
func (h *Hub) Publish(runID string, p core.Progress) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[runID] {
		select {
		case ch <- p:
		default:
		}
	}
}

// Finish closes all subscriptions of runID
func (h *Hub) Finish(runID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[runID] {
		close(ch)
	}
	delete(h.subs, runID)
}

// Subscribers returns the number of open subscriptions for runID
func (h *Hub) Subscribers(runID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[runID])
}
