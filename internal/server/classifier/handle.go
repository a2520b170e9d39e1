package classifier

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/deepcheck/internal/common"
	"github.com/dmitrijs2005/deepcheck/internal/logging"
)

type loaded struct {
	c Classifier
}

// Handle holds the current model. It starts empty; until a model is set,
// Classify fails with common.ErrServiceUnavailable.
type Handle struct {
	cur       atomic.Pointer[loaded]
	log       logging.Logger
	readyOnce sync.Once
	readyC    chan struct{}
}

// loadModel is a seam for tests.
var loadModel = func(path string) (Classifier, error) {
	return LoadFile(path)
}

func NewHandle(log logging.Logger) *Handle {
	return &Handle{log: log, readyC: make(chan struct{})}
}

// Set installs c as the active model.
func (h *Handle) Set(c Classifier) {
	h.cur.Store(&loaded{c: c})
	h.readyOnce.Do(func() { close(h.readyC) })
}

// Ready reports whether a model is installed.
func (h *Handle) Ready() bool {
	return h.cur.Load() != nil
}

// ReadyC is closed once the first model is installed.
func (h *Handle) ReadyC() <-chan struct{} {
	return h.readyC
}

// Load reads weights from path and installs them. On failure the handle
// keeps whatever it held before.
func (h *Handle) Load(ctx context.Context, path string) error {
	m, err := loadModel(path)
	if err != nil {
		h.log.Warn(ctx, "model load failed", "path", path, "error", err)
		return err
	}
	h.Set(m)
	h.log.Info(ctx, "model loaded", "path", path)
	return nil
}

// Watch retries Load every interval until it succeeds or ctx is done.
// A non-positive interval means a single attempt. It always returns nil;
// a missing model is not fatal.
func (h *Handle) Watch(ctx context.Context, path string, interval time.Duration) error {
	if h.Ready() {
		return nil
	}
	if h.Load(ctx, path) == nil || interval <= 0 {
		return nil
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if h.Load(ctx, path) == nil {
				return nil
			}
		}
	}
}

func (h *Handle) Classify(ctx context.Context, t Tensor) (float64, error) {
	l := h.cur.Load()
	if l == nil {
		return 0, common.ErrServiceUnavailable
	}
	return l.c.Classify(ctx, t)
}
