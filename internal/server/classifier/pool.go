package classifier

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds concurrent inference. Each call runs on its own goroutine
// so the caller can give up on ctx while the model keeps computing.
type Pool struct {
	c   Classifier
	sem *semaphore.Weighted
}

func NewPool(c Classifier, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{c: c, sem: semaphore.NewWeighted(int64(workers))}
}

// Ready delegates to the wrapped classifier when it reports readiness.
func (p *Pool) Ready() bool {
	if r, ok := p.c.(interface{ Ready() bool }); ok {
		return r.Ready()
	}
	return true
}

func (p *Pool) Classify(ctx context.Context, t Tensor) (float64, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return 0, err
	}

	type result struct {
		score float64
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		defer p.sem.Release(1)
		s, err := p.c.Classify(ctx, t)
		ch <- result{s, err}
	}()

	select {
	case r := <-ch:
		return r.score, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
