package fast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterReader(t *testing.T) {
	require := require.New(t)

	w := NewWriter(make([]byte, 0, 8))
	for i := byte(0); i < 20; i++ {
		w.WriteByte(i)
	}
	w.Write([]byte{0xff, 0xfe})
	require.Equal(22, w.Len())

	r := NewReader(w.Bytes())
	require.False(r.Empty())
	for i := byte(0); i < 20; i++ {
		require.Equal(i, r.ReadByte())
	}
	require.Equal(20, r.Position())
	require.Equal([]byte{0xff, 0xfe}, r.Read(2))
	require.True(r.Empty())
}

func TestReaderPastEnd(t *testing.T) {
	r := NewReader([]byte{1})
	r.ReadByte()
	require.Panics(t, func() { r.ReadByte() })
	require.Panics(t, func() { NewReader(nil).Read(1) })
}
