package services

import (
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Action groups stylist calls that may not overlap.
type Action string

const (
	ActionScan      Action = "scan"
	ActionRecommend Action = "recommend"
	ActionChat      Action = "chat"
)

var ErrActionBusy = errors.New("another request of this kind is already in progress")

// ActionGuard allows one in-flight call per action. A second caller is turned
// away instead of waiting.
type ActionGuard struct {
	mu   sync.Mutex
	sems map[Action]*semaphore.Weighted
}

func NewActionGuard() *ActionGuard {
	return &ActionGuard{sems: map[Action]*semaphore.Weighted{}}
}

// TryAcquire returns a release func, or ErrActionBusy when the action is taken.
func (g *ActionGuard) TryAcquire(action Action) (func(), error) {
	g.mu.Lock()
	sem, ok := g.sems[action]
	if !ok {
		sem = semaphore.NewWeighted(1)
		g.sems[action] = sem
	}
	g.mu.Unlock()

	if !sem.TryAcquire(1) {
		return nil, ErrActionBusy
	}
	var once sync.Once
	return func() { once.Do(func() { sem.Release(1) }) }, nil
}
