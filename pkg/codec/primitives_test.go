package codec_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bifrost/pkg/codec"
)

func TestPrimitives_LittleEndianLayout(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, codec.WriteU8(&buf, 0xAB))
	require.NoError(t, codec.WriteU16(&buf, 0x0102))
	require.NoError(t, codec.WriteU32(&buf, 0x03040506))
	require.NoError(t, codec.WriteBool(&buf, true))

	require.Equal(t, []byte{0xAB, 0x02, 0x01, 0x06, 0x05, 0x04, 0x03, 0x01}, buf.Bytes())
}

func TestPrimitives_ReadBack(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, codec.WriteU64(&buf, 1<<40+7))
	require.NoError(t, codec.WriteI32(&buf, -42))
	require.NoError(t, codec.WriteF32(&buf, 1.5))
	require.NoError(t, codec.WriteBool(&buf, false))

	u, err := codec.ReadU64(&buf)
	require.NoError(t, err)
	require.Equal(t, uint64(1<<40+7), u)

	i, err := codec.ReadI32(&buf)
	require.NoError(t, err)
	require.Equal(t, int32(-42), i)

	f, err := codec.ReadF32(&buf)
	require.NoError(t, err)
	require.Equal(t, float32(1.5), f)

	b, err := codec.ReadBool(&buf)
	require.NoError(t, err)
	require.False(t, b)

	require.Zero(t, buf.Len())
}

func TestPrimitives_ShortRead(t *testing.T) {
	t.Parallel()

	_, err := codec.ReadU32(bytes.NewReader([]byte{1, 2}))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = codec.ReadU8(bytes.NewReader(nil))
	require.ErrorIs(t, err, io.EOF)
}
