package classifier

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

const (
	weightsMagic   = "DCLM"
	weightsVersion = 1
)

var ErrBadWeights = errors.New("bad weights file")

// LinearModel is a logistic model over the flattened tensor:
// score = sigmoid(Bias + sum(Weights[i] * x[i])).
type LinearModel struct {
	Bias    float32
	Weights []float32
}

func (m *LinearModel) Classify(ctx context.Context, t Tensor) (float64, error) {
	if len(t.Data) != len(m.Weights) {
		return 0, fmt.Errorf("tensor has %d values, model expects %d", len(t.Data), len(m.Weights))
	}

	z := float64(m.Bias)
	for i, w := range m.Weights {
		if i%ImageSize == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		z += float64(w) * float64(t.Data[i])
	}
	return 1 / (1 + math.Exp(-z)), nil
}

// ReadModel parses the weights format: magic "DCLM", uint32 version,
// uint32 n, float32 bias, n float32 weights, all little-endian.
func ReadModel(r io.Reader) (*LinearModel, error) {
	br := bufio.NewReader(r)

	magic := make([]byte, len(weightsMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadWeights, err)
	}
	if string(magic) != weightsMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadWeights, magic)
	}

	var hdr struct {
		Version uint32
		N       uint32
		Bias    float32
	}
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrBadWeights, err)
	}
	if hdr.Version != weightsVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadWeights, hdr.Version)
	}
	if hdr.N != InputLen {
		return nil, fmt.Errorf("%w: %d weights, want %d", ErrBadWeights, hdr.N, InputLen)
	}

	weights := make([]float32, hdr.N)
	if err := binary.Read(br, binary.LittleEndian, weights); err != nil {
		return nil, fmt.Errorf("%w: weights: %v", ErrBadWeights, err)
	}

	return &LinearModel{Bias: hdr.Bias, Weights: weights}, nil
}

// WriteModel serializes m in the format read by ReadModel.
func WriteModel(w io.Writer, m *LinearModel) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(weightsMagic); err != nil {
		return err
	}
	hdr := struct {
		Version uint32
		N       uint32
		Bias    float32
	}{weightsVersion, uint32(len(m.Weights)), m.Bias}
	if err := binary.Write(bw, binary.LittleEndian, hdr); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, m.Weights); err != nil {
		return err
	}
	return bw.Flush()
}

// LoadFile reads a weights file from disk.
func LoadFile(path string) (*LinearModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadModel(f)
}
