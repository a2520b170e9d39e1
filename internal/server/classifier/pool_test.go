package classifier

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/deepcheck/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowClassifier struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func (s *slowClassifier) Classify(ctx context.Context, _ Tensor) (float64, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxSeen.Load()
		if n <= m || s.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(s.delay)
	return 0.6, nil
}

func TestPool_BoundsConcurrency(t *testing.T) {
	sc := &slowClassifier{delay: 10 * time.Millisecond}
	p := NewPool(sc, 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := p.Classify(context.Background(), Tensor{})
			assert.NoError(t, err)
			assert.Equal(t, 0.6, s)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, sc.maxSeen.Load(), int32(2))
	assert.GreaterOrEqual(t, sc.maxSeen.Load(), int32(1))
}

func TestPool_CallerGivesUpWhileWaiting(t *testing.T) {
	sc := &slowClassifier{delay: 200 * time.Millisecond}
	p := NewPool(sc, 1)

	go func() { _, _ = p.Classify(context.Background(), Tensor{}) }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.Classify(ctx, Tensor{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPool_Ready(t *testing.T) {
	h := NewHandle(logging.NewNop())
	p := NewPool(h, 0)
	assert.False(t, p.Ready())

	h.Set(fixedClassifier{score: 0.1})
	assert.True(t, p.Ready())

	s, err := p.Classify(context.Background(), Tensor{})
	require.NoError(t, err)
	assert.Equal(t, 0.1, s)

	assert.True(t, NewPool(fixedClassifier{}, 1).Ready())
}
