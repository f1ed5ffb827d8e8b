package rbasis

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"

	"github.com/yanyuechuixue/rbasis/store"
)

// Binary layout (little-endian):
//
//	magic    uint32
//	version  uint16
//	flags    uint16 (reserved, zero)
//	features uint64
//	n        uint64
//	nsing    uint64
//	V        features*n complex128 values, row-major, as (real, imag) float64 pairs
//	s        nsing float64 values
//	checksum uint32 (CRC32 IEEE over everything above)
//
// Only V and s are persisted. Vh and n are derived on load, so a stored
// basis can never carry stale derived state.
const (
	basisMagic   uint32 = 0x53414252 // "RBAS"
	basisVersion uint16 = 1
)

var (
	// ErrInvalidMagic is returned when stored data is not a basis blob.
	ErrInvalidMagic = errors.New("invalid basis magic")
	// ErrInvalidVersion is returned for unknown format versions.
	ErrInvalidVersion = errors.New("invalid basis format version")
	// ErrChecksumMismatch is returned when stored data is corrupted.
	ErrChecksumMismatch = errors.New("basis checksum mismatch")
)

// MarshalBinary implements encoding.BinaryMarshaler.
func (b *Basis) MarshalBinary() ([]byte, error) {
	features, n := b.v.Dims()
	var buf bytes.Buffer
	buf.Grow(32 + features*n*16 + len(b.s)*8 + 4)

	le := binary.LittleEndian
	var header [32]byte
	le.PutUint32(header[0:4], basisMagic)
	le.PutUint16(header[4:6], basisVersion)
	le.PutUint64(header[8:16], uint64(features))
	le.PutUint64(header[16:24], uint64(n))
	le.PutUint64(header[24:32], uint64(len(b.s)))
	buf.Write(header[:])

	var scratch [16]byte
	for i := 0; i < features; i++ {
		for j := 0; j < n; j++ {
			v := b.v.At(i, j)
			le.PutUint64(scratch[0:8], math.Float64bits(real(v)))
			le.PutUint64(scratch[8:16], math.Float64bits(imag(v)))
			buf.Write(scratch[:])
		}
	}
	for _, sv := range b.s {
		le.PutUint64(scratch[0:8], math.Float64bits(sv))
		buf.Write(scratch[:8])
	}

	sum := crc32.ChecksumIEEE(buf.Bytes())
	le.PutUint32(scratch[0:4], sum)
	buf.Write(scratch[:4])
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The conjugate
// transpose and the component count are rebuilt from the stored V.
func (b *Basis) UnmarshalBinary(data []byte) error {
	le := binary.LittleEndian
	if len(data) < 36 {
		return fmt.Errorf("%w: truncated blob (%d bytes)", ErrInvalidMagic, len(data))
	}
	if got := le.Uint32(data[0:4]); got != basisMagic {
		return fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, got)
	}
	if got := le.Uint16(data[4:6]); got != basisVersion {
		return fmt.Errorf("%w: got %d", ErrInvalidVersion, got)
	}
	body, tail := data[:len(data)-4], data[len(data)-4:]
	if sum := crc32.ChecksumIEEE(body); sum != le.Uint32(tail) {
		return fmt.Errorf("%w: computed 0x%08x, stored 0x%08x", ErrChecksumMismatch, sum, le.Uint32(tail))
	}

	// Each dimension is bounded by the payload size before any product is
	// formed, so crafted headers cannot overflow the length check.
	payload := len(data) - 36
	features := int(le.Uint64(data[8:16]))
	n := int(le.Uint64(data[16:24]))
	nsing := int(le.Uint64(data[24:32]))
	if features <= 0 || n <= 0 || nsing < 0 || nsing > payload/8 {
		return fmt.Errorf("%w: inconsistent dimensions", ErrChecksumMismatch)
	}
	vbytes := payload - nsing*8
	if rowBytes := features * 16; features > vbytes/16 ||
		vbytes%rowBytes != 0 || n != vbytes/rowBytes {
		return fmt.Errorf("%w: inconsistent dimensions", ErrChecksumMismatch)
	}

	v := mat.NewCDense(features, n, nil)
	off := 32
	for i := 0; i < features; i++ {
		for j := 0; j < n; j++ {
			re := math.Float64frombits(le.Uint64(data[off : off+8]))
			im := math.Float64frombits(le.Uint64(data[off+8 : off+16]))
			v.Set(i, j, complex(re, im))
			off += 16
		}
	}
	var s []float64
	if nsing > 0 {
		s = make([]float64, nsing)
		for i := range s {
			s[i] = math.Float64frombits(le.Uint64(data[off : off+8]))
			off += 8
		}
	}

	nb, err := NewBasis(v, s)
	if err != nil {
		return err
	}
	*b = *nb
	return nil
}

// Save marshals the basis, compresses it with zstd and writes it to the
// given store under name.
func (b *Basis) Save(ctx context.Context, st store.Store, name string) error {
	raw, err := b.MarshalBinary()
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	defer enc.Close()
	return st.Put(ctx, name, enc.EncodeAll(raw, nil))
}

// LoadBasis reads a basis previously written with Save. Vh and n are derived
// from the stored V before the basis is returned, never read from storage.
func LoadBasis(ctx context.Context, st store.Store, name string) (*Basis, error) {
	blob, err := st.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, err
	}
	b := new(Basis)
	if err := b.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return b, nil
}
