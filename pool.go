package linecard

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("generator pool closed")

// GeneratorPool bounds concurrent generations. Each Generator owns its own
// browser for SVG logos, so pooled generators render in parallel.
// Generators are created lazily on first acquire to avoid startup delay.
type GeneratorPool struct {
	size    int
	factory func() (*Generator, error)
	gens    []*Generator
	sem     chan *Generator
	mu      sync.Mutex
	created int
	closed  bool
}

// NewGeneratorPool creates a pool with capacity for n generators built by
// factory.
func NewGeneratorPool(n int, factory func() (*Generator, error)) *GeneratorPool {
	if n < 1 {
		n = 1
	}

	return &GeneratorPool{
		size:    n,
		factory: factory,
		gens:    make([]*Generator, 0, n),
		sem:     make(chan *Generator, n),
	}
}

// Acquire gets a generator from the pool, creating one if needed.
// Blocks until one is released or ctx is done.
func (p *GeneratorPool) Acquire(ctx context.Context) (*Generator, error) {
	// Try to get an idle generator (non-blocking)
	select {
	case g, ok := <-p.sem:
		return p.take(g, ok)
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Build outside the lock
		g, err := p.factory()

		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			p.created--
			return nil, err
		}
		p.gens = append(p.gens, g)
		return g, nil
	}
	p.mu.Unlock()

	// All generators created, wait for one to be released
	select {
	case g, ok := <-p.sem:
		return p.take(g, ok)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// take rejects a generator received after Close started, since it is
// already closed or about to be.
func (p *GeneratorPool) take(g *Generator, ok bool) (*Generator, error) {
	if !ok {
		return nil, ErrPoolClosed
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	return g, nil
}

// Release returns a generator to the pool. The channel holds every
// generator the pool can create, so the send never blocks.
func (p *GeneratorPool) Release(g *Generator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- g
}

// Close releases all browser resources.
// Returns an aggregated error if multiple generators fail to close.
func (p *GeneratorPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	for range p.sem {
	}
	gens := p.gens
	p.mu.Unlock()

	var errs []error
	for _, g := range gens {
		if err := g.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *GeneratorPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
