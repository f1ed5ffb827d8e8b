package rbasis_test

import (
	"context"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rbasis "github.com/yanyuechuixue/rbasis"
	"github.com/yanyuechuixue/rbasis/store"
)

func TestBasis_BinaryRoundTrip(t *testing.T) {
	training := rankMatrix(t, 20, 12, 12, 41)
	basis, err := rbasis.Fit(training, 6, rbasis.Exact{})
	require.NoError(t, err)

	data, err := basis.MarshalBinary()
	require.NoError(t, err)

	var restored rbasis.Basis
	require.NoError(t, restored.UnmarshalBinary(data))

	assert.Equal(t, basis.N(), restored.N())
	assert.Equal(t, basis.Features(), restored.Features())
	assert.Equal(t, basis.SingularValues(), restored.SingularValues())
	assert.Zero(t, maxAbsDiff(basis.V(), restored.V()))
	// Derived state is rebuilt, not read back.
	assert.Zero(t, maxAbsDiff(basis.Vh(), restored.Vh()))
}

func TestBasis_UnmarshalErrors(t *testing.T) {
	training := rankMatrix(t, 10, 8, 8, 42)
	basis, err := rbasis.Fit(training, 4, rbasis.Exact{})
	require.NoError(t, err)

	data, err := basis.MarshalBinary()
	require.NoError(t, err)

	var b rbasis.Basis
	require.ErrorIs(t, b.UnmarshalBinary(nil), rbasis.ErrInvalidMagic)
	require.ErrorIs(t, b.UnmarshalBinary([]byte("not a basis blob at all....")), rbasis.ErrInvalidMagic)

	bad := make([]byte, len(data))
	copy(bad, data)
	bad[4] ^= 0xFF // version field
	require.ErrorIs(t, b.UnmarshalBinary(bad), rbasis.ErrInvalidVersion)

	copy(bad, data)
	bad[40] ^= 0x01 // flip one payload bit
	require.ErrorIs(t, b.UnmarshalBinary(bad), rbasis.ErrChecksumMismatch)
}

func TestBasis_UnmarshalHeaderBounds(t *testing.T) {
	training := rankMatrix(t, 10, 8, 8, 44)
	basis, err := rbasis.Fit(training, 4, rbasis.Exact{})
	require.NoError(t, err)

	data, err := basis.MarshalBinary()
	require.NoError(t, err)

	// A feature count so large that multiplying the header dimensions wraps
	// around to the true payload size. The checksum is recomputed so the
	// dimension validation is what must reject the blob.
	bad := make([]byte, len(data))
	copy(bad, data)
	le := binary.LittleEndian
	le.PutUint64(bad[8:16], le.Uint64(bad[8:16])+1<<60)
	le.PutUint32(bad[len(bad)-4:], crc32.ChecksumIEEE(bad[:len(bad)-4]))

	var b rbasis.Basis
	require.ErrorIs(t, b.UnmarshalBinary(bad), rbasis.ErrChecksumMismatch)

	// Same for an oversized singular value count.
	copy(bad, data)
	le.PutUint64(bad[24:32], 1<<61)
	le.PutUint32(bad[len(bad)-4:], crc32.ChecksumIEEE(bad[:len(bad)-4]))
	require.ErrorIs(t, b.UnmarshalBinary(bad), rbasis.ErrChecksumMismatch)
}

func TestBasis_SaveLoad(t *testing.T) {
	training := rankMatrix(t, 30, 16, 16, 43)
	basis, err := rbasis.Fit(training, 8, rbasis.Randomized{})
	require.NoError(t, err)

	ctx := context.Background()
	for _, tt := range []struct {
		name string
		st   store.Store
	}{
		{name: "memory", st: store.NewMemoryStore()},
		{name: "local", st: store.NewLocalStore(t.TempDir())},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, basis.Save(ctx, tt.st, "basis.zst"))

			loaded, err := rbasis.LoadBasis(ctx, tt.st, "basis.zst")
			require.NoError(t, err)
			assert.Equal(t, basis.N(), loaded.N())
			assert.Equal(t, basis.SingularValues(), loaded.SingularValues())
			assert.Zero(t, maxAbsDiff(basis.V(), loaded.V()))
			assert.Zero(t, maxAbsDiff(basis.Vh(), loaded.Vh()))

			// A loaded basis is immediately usable for both transforms.
			coeff, err := loaded.Compress(training)
			require.NoError(t, err)
			_, err = loaded.Decompress(coeff)
			require.NoError(t, err)

			_, err = rbasis.LoadBasis(ctx, tt.st, "missing.zst")
			require.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}
