// Package respool implements a borrow/release pool over a fixed set of
// resources, such as connections or API clients that must never be used by
// two goroutines at once.
package respool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/go-crew/crew/pool"
)

// BorrowTimeoutError reports that no matching resource became available
// within the borrow timeout. It names the requester so contention shows up
// attributably in logs and error chains.
type BorrowTimeoutError struct {
	Pool      string
	Requester string
	Timeout   time.Duration
}

func (e *BorrowTimeoutError) Error() string {
	return fmt.Sprintf("resource pool %q: %s could not borrow within %v", e.Pool, e.Requester, e.Timeout)
}

// Pool hands out exclusive access to a fixed set of resources. A resource is
// either available or borrowed, never both; Borrow moves it out, Release
// moves it back. Waiting borrowers poll at a fixed interval until a resource
// frees up or their timeout elapses.
//
// R must be comparable so borrowed resources can be tracked by identity.
// The zero value of R cannot be used as a resource: Release of the zero
// value always reports false.
//
// All methods are safe for concurrent use.
type Pool[R comparable] struct {
	name string
	conf *settings
	log  *zap.Logger

	mu        sync.Mutex
	available []R
	borrowed  map[R]struct{}
}

// New creates an empty Pool. Add resources with Init before borrowing.
func New[R comparable](name string, opts ...Option) *Pool[R] {
	if name == "" {
		name = "resources"
	}
	conf := defaultSettings()
	for _, opt := range opts {
		opt(conf)
	}
	return &Pool[R]{
		name:     name,
		conf:     conf,
		log:      conf.logger,
		borrowed: make(map[R]struct{}),
	}
}

// Init adds resources to the available set. Meant to be called once, before
// any borrowing starts; calling it again grows the pool. Resources are
// tracked by identity, so zero values and values the pool already holds,
// available or borrowed, are skipped.
func (p *Pool[R]) Init(resources []R) {
	var zero R
	p.mu.Lock()
	added := 0
	for _, r := range resources {
		if r == zero || p.holds(r) {
			continue
		}
		p.available = append(p.available, r)
		added++
	}
	total := len(p.available) + len(p.borrowed)
	p.mu.Unlock()

	p.log.Debug("Resource pool initialized",
		zap.String("pool", p.name),
		zap.Int("added", added),
		zap.Int("total", total))
}

// holds reports whether r is already tracked by the pool. Callers must hold
// p.mu.
func (p *Pool[R]) holds(r R) bool {
	if _, ok := p.borrowed[r]; ok {
		return true
	}
	for _, a := range p.available {
		if a == r {
			return true
		}
	}
	return false
}

// Borrow takes any available resource, waiting up to the borrow timeout for
// one to free up. The requester is a label used in logs and errors. On
// timeout it returns *BorrowTimeoutError; if ctx is cancelled while waiting
// it returns *pool.InterruptedError.
func (p *Pool[R]) Borrow(ctx context.Context, requester string) (R, error) {
	return p.BorrowMatch(ctx, requester, nil)
}

// BorrowMatch is Borrow restricted to resources accepted by match. The first
// acceptable resource in iteration order is taken; there is no fairness
// between concurrent borrowers. A nil match accepts anything.
func (p *Pool[R]) BorrowMatch(ctx context.Context, requester string, match func(R) bool) (R, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var zero R
	start := time.Now()
	deadline := start.Add(p.conf.borrowTimeout)

	for {
		if r, ok := p.tryTake(match); ok {
			p.conf.metrics.RecordBorrowWait(p.name, time.Since(start), false)
			p.log.Debug("Resource borrowed",
				zap.String("pool", p.name),
				zap.String("requester", requester))
			return r, nil
		}
		if !time.Now().Before(deadline) {
			p.conf.metrics.RecordBorrowWait(p.name, time.Since(start), true)
			p.log.Warn("Borrow timed out",
				zap.String("pool", p.name),
				zap.String("requester", requester),
				zap.Duration("timeout", p.conf.borrowTimeout))
			return zero, &BorrowTimeoutError{
				Pool:      p.name,
				Requester: requester,
				Timeout:   p.conf.borrowTimeout,
			}
		}
		select {
		case <-ctx.Done():
			return zero, &pool.InterruptedError{Pool: p.name, Cause: ctx.Err()}
		case <-time.After(p.conf.pollInterval):
		}
	}
}

// Release returns a borrowed resource to the available set. It reports false
// when there is nothing to do: the zero value, or a resource this pool does
// not currently hold as borrowed.
func (p *Pool[R]) Release(r R) bool {
	var zero R
	if r == zero {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.borrowed[r]; !ok {
		return false
	}
	delete(p.borrowed, r)
	p.available = append(p.available, r)
	return true
}

// PerformAction borrows any resource, runs action with it and releases it
// again, on every path out of action. Borrow errors are returned as is;
// action errors are returned after the release.
func (p *Pool[R]) PerformAction(ctx context.Context, requester string, action func(R) error) error {
	return p.PerformActionMatch(ctx, requester, nil, action)
}

// PerformActionMatch is PerformAction restricted to resources accepted by
// match.
func (p *Pool[R]) PerformActionMatch(ctx context.Context, requester string, match func(R) bool, action func(R) error) error {
	r, err := p.BorrowMatch(ctx, requester, match)
	if err != nil {
		return err
	}
	defer p.Release(r)
	return action(r)
}

// AvailableSize returns the number of resources currently free.
func (p *Pool[R]) AvailableSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.available)
}

// BorrowedSize returns the number of resources currently out.
func (p *Pool[R]) BorrowedSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.borrowed)
}

// Size returns the total number of resources the pool manages.
func (p *Pool[R]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.available) + len(p.borrowed)
}

// Name returns the pool name.
func (p *Pool[R]) Name() string { return p.name }

// tryTake scans the available set in order and claims the first match. The
// scan and the move into borrowed happen under one lock acquisition, so a
// resource can never be handed to two borrowers.
func (p *Pool[R]) tryTake(match func(R) bool) (R, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, r := range p.available {
		if match == nil || match(r) {
			p.available = append(p.available[:i], p.available[i+1:]...)
			p.borrowed[r] = struct{}{}
			return r, true
		}
	}
	var zero R
	return zero, false
}
