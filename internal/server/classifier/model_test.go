package classifier

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constModel(bias float32) *LinearModel {
	return &LinearModel{Bias: bias, Weights: make([]float32, InputLen)}
}

func writeModelFile(t *testing.T, dir string, m *LinearModel) string {
	t.Helper()
	path := filepath.Join(dir, "model.bin")
	var buf bytes.Buffer
	require.NoError(t, WriteModel(&buf, m))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestReadModel_RoundTripScores(t *testing.T) {
	m := constModel(0.25)
	m.Weights[0] = 2
	m.Weights[InputLen-1] = -1

	var buf bytes.Buffer
	require.NoError(t, WriteModel(&buf, m))

	got, err := ReadModel(&buf)
	require.NoError(t, err)

	in := Tensor{Shape: []int{3, 256, 256}, Data: make([]float32, InputLen)}
	in.Data[0] = 1
	in.Data[InputLen-1] = 1

	want, err := m.Classify(context.Background(), in)
	require.NoError(t, err)
	score, err := got.Classify(context.Background(), in)
	require.NoError(t, err)
	assert.InDelta(t, want, score, 1e-12)
}

func TestLinearModel_Classify(t *testing.T) {
	zeros := Tensor{Data: make([]float32, InputLen)}

	s, err := constModel(0).Classify(context.Background(), zeros)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, s, 1e-12)

	s, err = constModel(20).Classify(context.Background(), zeros)
	require.NoError(t, err)
	assert.Greater(t, s, 0.99)

	_, err = constModel(0).Classify(context.Background(), Tensor{Data: make([]float32, 3)})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = constModel(0).Classify(ctx, zeros)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadModel_Invalid(t *testing.T) {
	header := func(magic string, version, n uint32) []byte {
		var b bytes.Buffer
		b.WriteString(magic)
		_ = binary.Write(&b, binary.LittleEndian, []uint32{version, n})
		_ = binary.Write(&b, binary.LittleEndian, float32(0))
		return b.Bytes()
	}

	cases := map[string][]byte{
		"empty":       nil,
		"bad magic":   header("NOPE", 1, InputLen),
		"bad version": header(weightsMagic, 2, InputLen),
		"wrong n":     header(weightsMagic, 1, 10),
		"short body":  header(weightsMagic, 1, InputLen),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadModel(bytes.NewReader(data))
			assert.ErrorIs(t, err, ErrBadWeights)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := writeModelFile(t, t.TempDir(), constModel(1))
	m, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, float32(1), m.Bias)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}
