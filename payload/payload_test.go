package payload

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame(t *testing.T) {
	raw := []byte("hello, world")

	framed, err := Frame(raw, nil)
	require.NoError(t, err)

	require.Len(t, framed, HeaderSize+len(raw))
	assert.True(t, bytes.HasPrefix(framed, Magic))
	assert.Equal(t, uint64(len(raw)), binary.LittleEndian.Uint64(framed[4:]))
	assert.Equal(t, uint64(len(raw)), binary.LittleEndian.Uint64(framed[12:]))
	assert.Equal(t, raw, framed[HeaderSize:])
}

func TestUnframeTrimsPadding(t *testing.T) {
	raw := []byte("payload bytes that do not fill a whole frame")

	framed, err := Frame(raw, nil)
	require.NoError(t, err)

	// The decode side always recovers whole frames, so the container
	// arrives with trailing zero padding.
	recovered := append(append([]byte{}, framed...), make([]byte, 100)...)

	got, err := Unframe(recovered, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestUnframeManifestFallback(t *testing.T) {
	raw := []byte("no header on this one")

	recovered := append(append([]byte{}, raw...), make([]byte, 64)...)

	got, err := Unframe(recovered, nil, &Lengths{
		Compressed: uint64(len(raw)),
		Original:   uint64(len(raw)),
	})
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestUnframeHeaderWinsOverManifest(t *testing.T) {
	raw := []byte("header present")

	framed, err := Frame(raw, nil)
	require.NoError(t, err)

	// A stale manifest with wrong lengths must be ignored.
	got, err := Unframe(framed, nil, &Lengths{Compressed: 3, Original: 3})
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestUnframeNoHeaderNoManifest(t *testing.T) {
	_, err := Unframe([]byte("garbage with no magic"), nil, nil)
	assert.ErrorIs(t, err, ErrNoHeader)
}

// A stream cut off inside the header itself must come back as a
// truncation error, not a slice panic.
func TestUnframeTruncatedHeader(t *testing.T) {
	for _, table := range []struct {
		name      string
		recovered []byte
	}{
		{name: "magic_only", recovered: []byte("YTF1")},
		{name: "partial_lengths", recovered: []byte("YTF1abcd")},
		{name: "one_short", recovered: append([]byte("YTF1"), make([]byte, HeaderSize-len(Magic)-1)...)},
	} {
		t.Run(table.name, func(t *testing.T) {
			var got []byte
			var err error
			require.NotPanics(t, func() {
				got, err = Unframe(table.recovered, nil, nil)
			})
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrTruncated)
		})
	}
}

func TestUnframeTruncated(t *testing.T) {
	framed, err := Frame(make([]byte, 100), nil)
	require.NoError(t, err)

	_, err = Unframe(framed[:HeaderSize+50], nil, nil)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestUnframeTruncatedManifest(t *testing.T) {
	_, err := Unframe(make([]byte, 10), nil, &Lengths{Compressed: 50, Original: 50})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestZstdRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))

	// Compressible payload.
	raw := bytes.Repeat([]byte("0123456789abcdef"), 256)
	rnd.Read(raw[:64])

	z := NewZstd(10)

	framed, err := Frame(raw, z)
	require.NoError(t, err)

	compressedLen := binary.LittleEndian.Uint64(framed[4:])
	assert.Equal(t, uint64(len(framed)-HeaderSize), compressedLen)
	assert.Less(t, int(compressedLen), len(raw))
	assert.Equal(t, uint64(len(raw)), binary.LittleEndian.Uint64(framed[12:]))

	recovered := append(append([]byte{}, framed...), make([]byte, 500)...)

	got, err := Unframe(recovered, z, nil)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestZstdManifestFallback(t *testing.T) {
	raw := bytes.Repeat([]byte("wxyz"), 512)

	z := NewZstd(3)

	framed, err := Frame(raw, z)
	require.NoError(t, err)

	lengths := &Lengths{
		Compressed: binary.LittleEndian.Uint64(framed[4:]),
		Original:   uint64(len(raw)),
	}

	// Strip the header to force the manifest path.
	recovered := append(append([]byte{}, framed[HeaderSize:]...), make([]byte, 200)...)

	got, err := Unframe(recovered, z, lengths)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}
