// Package classifier turns image bytes into a Real/Fake verdict: it
// preprocesses images into tensors, runs a loaded model behind a bounded
// worker pool and applies the decision threshold.
package classifier

import "context"

const (
	ImageSize = 256
	Channels  = 3
	// InputLen is the number of values in a preprocessed tensor.
	InputLen = Channels * ImageSize * ImageSize
)

// Tensor is a dense float32 tensor in CHW order.
type Tensor struct {
	Shape []int
	Data  []float32
}

// Classifier scores a preprocessed image. The score is the probability that
// the image is real, in [0, 1].
type Classifier interface {
	Classify(ctx context.Context, t Tensor) (float64, error)
}
