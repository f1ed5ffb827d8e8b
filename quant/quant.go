// Package quant provides scalar quantization of basis coefficients for
// compact storage and transport. A trained quantizer maps each real and
// imaginary component to a small fixed-width code by linear min/max scaling,
// packed into a bit stream.
//
// This layers a second, independent lossy step on top of the SVD truncation:
// coefficients already live in a low-dimensional space, and quantization
// shrinks their byte size further.
package quant

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/yyyoichi/bitstream-go"
)

var (
	// ErrInvalidBits is returned for code widths outside [2, 8].
	ErrInvalidBits = errors.New("invalid quantizer code width")
	// ErrNotTrained is returned when Encode or Decode is called before
	// Train.
	ErrNotTrained = errors.New("quantizer is not trained")
)

// Quantizer quantizes complex coefficient vectors with a fixed number of
// bits per real component (two codes per complex coefficient). The value
// range is calibrated by Train.
type Quantizer struct {
	bits     int
	min, max float64
	trained  bool
}

// New creates a Quantizer with the given code width in bits, between 2 and 8.
func New(bits int) (*Quantizer, error) {
	if bits < 2 || bits > 8 {
		return nil, fmt.Errorf("%w: %d bits", ErrInvalidBits, bits)
	}
	return &Quantizer{bits: bits}, nil
}

// Bits returns the code width per real component.
func (q *Quantizer) Bits() int { return q.bits }

// Train calibrates the quantizer by finding the extreme real and imaginary
// values across all coefficient vectors.
func (q *Quantizer) Train(vectors [][]complex128) error {
	var seen bool
	min, max := math.Inf(1), math.Inf(-1)
	for _, vec := range vectors {
		for _, c := range vec {
			for _, val := range [2]float64{real(c), imag(c)} {
				seen = true
				if val < min {
					min = val
				}
				if val > max {
					max = val
				}
			}
		}
	}
	if !seen {
		return errors.New("no coefficients provided for training")
	}
	// Degenerate range: every component identical.
	if min == max {
		max = min + 1
	}
	q.min, q.max, q.trained = min, max, true
	return nil
}

// Encode quantizes a coefficient vector into a packed bit stream of
// 2*Bits() bits per coefficient. The returned words, together with the
// coefficient count, are the compressed representation.
func (q *Quantizer) Encode(v []complex128) ([]uint64, error) {
	if !q.trained {
		return nil, ErrNotTrained
	}
	w := bitstream.NewBitWriter[uint64](0, 0)
	levels := float64(int(1)<<q.bits - 1)
	scale := levels / (q.max - q.min)
	writeCode := func(val float64) {
		if val < q.min {
			val = q.min
		} else if val > q.max {
			val = q.max
		}
		code := uint8((val-q.min)*scale + 0.5)
		for b := q.bits - 1; b >= 0; b-- {
			w.WriteBool(code>>b&1 == 1)
		}
	}
	for _, c := range v {
		writeCode(real(c))
		writeCode(imag(c))
	}
	return w.Data(), nil
}

// Decode reconstructs n complex coefficients from a packed bit stream
// produced by Encode with the same code width and calibration.
func (q *Quantizer) Decode(words []uint64, n int) ([]complex128, error) {
	if !q.trained {
		return nil, ErrNotTrained
	}
	total := n * 2 * q.bits
	if max := len(words) * 64; total > max {
		return nil, fmt.Errorf("bit stream too short: need %d bits, have %d", total, max)
	}
	r := bitstream.NewBitReader(words, 0, 0)
	r.SetBits(total)
	levels := float64(int(1)<<q.bits - 1)
	scale := (q.max - q.min) / levels
	pos := 0
	readCode := func() float64 {
		var code uint8
		for b := 0; b < q.bits; b++ {
			code = code<<1 | r.Read8R(1, pos)
			pos++
		}
		return float64(code)*scale + q.min
	}
	out := make([]complex128, n)
	for i := range out {
		re := readCode()
		im := readCode()
		out[i] = complex(re, im)
	}
	return out, nil
}

// QuantizationError estimates the worst-case error per real component, half
// a quantization step.
func (q *Quantizer) QuantizationError() float64 {
	levels := float64(int(1)<<q.bits - 1)
	return (q.max - q.min) / levels / 2
}

// MarshalBinary implements encoding.BinaryMarshaler.
// Format (little-endian): [bits:uint8][min:float64][max:float64]
func (q *Quantizer) MarshalBinary() ([]byte, error) {
	if !q.trained {
		return nil, ErrNotTrained
	}
	b := make([]byte, 17)
	b[0] = uint8(q.bits)
	binary.LittleEndian.PutUint64(b[1:9], math.Float64bits(q.min))
	binary.LittleEndian.PutUint64(b[9:17], math.Float64bits(q.max))
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (q *Quantizer) UnmarshalBinary(data []byte) error {
	if len(data) != 17 {
		return errors.New("invalid quantizer binary length")
	}
	bits := int(data[0])
	if bits < 2 || bits > 8 {
		return fmt.Errorf("%w: %d bits", ErrInvalidBits, bits)
	}
	q.bits = bits
	q.min = math.Float64frombits(binary.LittleEndian.Uint64(data[1:9]))
	q.max = math.Float64frombits(binary.LittleEndian.Uint64(data[9:17]))
	q.trained = true
	return nil
}
