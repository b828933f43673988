package onnx

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider"
)

// ErrPoolClosed is returned by Acquire after Destroy.
var ErrPoolClosed = errors.New("session pool is closed")

// Session is anything the pool can hand out and tear down.
type Session interface {
	Destroy() error
}

// Pool hands out a fixed set of sessions, one caller per session at a time.
type Pool[S Session] struct {
	name     string
	sessions chan S
	size     int
	mu       sync.RWMutex
	closed   bool
	metrics  *poolMetrics
}

type poolMetrics struct {
	mu              sync.Mutex
	inUse           int
	totalAcquired   int64
	totalReleased   int64
	acquireFailures int64
}

// NewPool builds size sessions up front with factory. Any failure destroys
// the sessions created so far.
func NewPool[S Session](name string, size int, factory func() (S, error)) (*Pool[S], error) {
	if size <= 0 {
		return nil, fmt.Errorf("%s pool: size must be positive, got %d", name, size)
	}

	pool := &Pool[S]{
		name:     name,
		sessions: make(chan S, size),
		size:     size,
		metrics:  &poolMetrics{},
	}

	for i := 0; i < size; i++ {
		session, err := factory()
		if err != nil {
			pool.Destroy()
			return nil, fmt.Errorf("%s pool: initialize session %d: %w", name, i, err)
		}
		pool.sessions <- session
	}

	return pool, nil
}

// Acquire blocks until a session is free or ctx ends.
func (p *Pool[S]) Acquire(ctx context.Context) (S, error) {
	var zero S

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return zero, ErrPoolClosed
	}

	select {
	case session, ok := <-p.sessions:
		if !ok {
			return zero, ErrPoolClosed
		}
		p.metrics.mu.Lock()
		p.metrics.inUse++
		p.metrics.totalAcquired++
		p.metrics.mu.Unlock()
		return session, nil
	case <-ctx.Done():
		p.metrics.mu.Lock()
		p.metrics.acquireFailures++
		p.metrics.mu.Unlock()
		return zero, fmt.Errorf("%s pool: acquire session: %w", p.name, ctx.Err())
	}
}

// Release returns a session. Sessions released after Destroy are torn down.
func (p *Pool[S]) Release(session S) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	p.metrics.mu.Lock()
	p.metrics.inUse--
	p.metrics.totalReleased++
	p.metrics.mu.Unlock()

	if p.closed {
		_ = session.Destroy()
		return
	}

	p.sessions <- session
}

// With runs fn with an exclusively held session.
func (p *Pool[S]) With(ctx context.Context, fn func(S) error) error {
	session, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(session)

	return fn(session)
}

// Destroy closes the pool and destroys every idle session.
func (p *Pool[S]) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true
	close(p.sessions)

	for session := range p.sessions {
		_ = session.Destroy()
	}
}

// PoolStats implements provider.StatsReporter.
func (p *Pool[S]) PoolStats() provider.PoolStats {
	p.metrics.mu.Lock()
	defer p.metrics.mu.Unlock()

	return provider.PoolStats{
		Name:            p.name,
		Size:            p.size,
		InUse:           p.metrics.inUse,
		TotalAcquired:   p.metrics.totalAcquired,
		TotalReleased:   p.metrics.totalReleased,
		AcquireFailures: p.metrics.acquireFailures,
	}
}
