package quant_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanyuechuixue/rbasis/quant"
)

func coefficients(t *testing.T, vectors, dim int, seed int64) [][]complex128 {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	out := make([][]complex128, vectors)
	for i := range out {
		vec := make([]complex128, dim)
		for j := range vec {
			vec[j] = complex(rng.NormFloat64(), rng.NormFloat64())
		}
		out[i] = vec
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	for _, bits := range []int{-1, 0, 1, 9, 64} {
		_, err := quant.New(bits)
		require.ErrorIs(t, err, quant.ErrInvalidBits, "bits=%d", bits)
	}
	q, err := quant.New(8)
	require.NoError(t, err)
	assert.Equal(t, 8, q.Bits())
}

func TestQuantizer_RequiresTraining(t *testing.T) {
	q, err := quant.New(8)
	require.NoError(t, err)

	_, err = q.Encode([]complex128{1 + 2i})
	require.ErrorIs(t, err, quant.ErrNotTrained)
	_, err = q.Decode([]uint64{0}, 1)
	require.ErrorIs(t, err, quant.ErrNotTrained)
	_, err = q.MarshalBinary()
	require.ErrorIs(t, err, quant.ErrNotTrained)

	require.Error(t, q.Train(nil))
}

func TestQuantizer_RoundTripError(t *testing.T) {
	vecs := coefficients(t, 16, 10, 51)
	q, err := quant.New(8)
	require.NoError(t, err)
	require.NoError(t, q.Train(vecs))

	bound := q.QuantizationError() + 1e-12
	for _, vec := range vecs {
		words, err := q.Encode(vec)
		require.NoError(t, err)
		back, err := q.Decode(words, len(vec))
		require.NoError(t, err)
		require.Len(t, back, len(vec))
		for i := range vec {
			assert.InDelta(t, real(vec[i]), real(back[i]), bound)
			assert.InDelta(t, imag(vec[i]), imag(back[i]), bound)
		}
	}
}

func TestQuantizer_ClampsOutOfRange(t *testing.T) {
	q, err := quant.New(4)
	require.NoError(t, err)
	require.NoError(t, q.Train([][]complex128{{complex(-1, -1), complex(1, 1)}}))

	words, err := q.Encode([]complex128{complex(100, -100)})
	require.NoError(t, err)
	back, err := q.Decode(words, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1, real(back[0]), 1e-12)
	assert.InDelta(t, -1, imag(back[0]), 1e-12)
}

func TestQuantizer_DegenerateRange(t *testing.T) {
	q, err := quant.New(8)
	require.NoError(t, err)
	require.NoError(t, q.Train([][]complex128{{complex(0.5, 0.5), complex(0.5, 0.5)}}))

	words, err := q.Encode([]complex128{complex(0.5, 0.5)})
	require.NoError(t, err)
	back, err := q.Decode(words, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, real(back[0]), q.QuantizationError()+1e-12)
}

func TestQuantizer_DecodeShortStream(t *testing.T) {
	q, err := quant.New(8)
	require.NoError(t, err)
	require.NoError(t, q.Train(coefficients(t, 2, 4, 52)))

	_, err = q.Decode([]uint64{0}, 100)
	require.Error(t, err)
}

func TestQuantizer_MarshalRoundTrip(t *testing.T) {
	vecs := coefficients(t, 8, 6, 53)
	q, err := quant.New(6)
	require.NoError(t, err)
	require.NoError(t, q.Train(vecs))

	data, err := q.MarshalBinary()
	require.NoError(t, err)

	var restored quant.Quantizer
	require.NoError(t, restored.UnmarshalBinary(data))
	assert.Equal(t, q.Bits(), restored.Bits())

	// The restored quantizer decodes streams produced before persisting.
	words, err := q.Encode(vecs[0])
	require.NoError(t, err)
	fromOriginal, err := q.Decode(words, len(vecs[0]))
	require.NoError(t, err)
	fromRestored, err := restored.Decode(words, len(vecs[0]))
	require.NoError(t, err)
	assert.Equal(t, fromOriginal, fromRestored)

	require.Error(t, restored.UnmarshalBinary(data[:5]))
}
