package wire

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reassemble walks a chunked view and concatenates payload bytes up to (not
// including) the terminating zero-length chunk.
func reassemble(t *testing.T, view []byte) []byte {
	t.Helper()
	var out []byte
	i := 0
	for i < len(view) {
		require.LessOrEqual(t, i+2, len(view))
		n := int(binary.BigEndian.Uint16(view[i : i+2]))
		i += 2
		if n == 0 {
			return out
		}
		require.LessOrEqual(t, i+n, len(view))
		out = append(out, view[i:i+n]...)
		i += n
	}
	return out
}

func TestOutbox_SmallWriteRoundTrips(t *testing.T) {
	o := NewOutbox()
	payload := []byte("hello, bolt")
	o.Write(payload)
	o.Chunk()
	o.Chunk()
	assert.Equal(t, payload, reassemble(t, o.View()))
}

func TestOutbox_ChunkBoundaryCrossing(t *testing.T) {
	o := &Outbox{maxChunkSize: 4}
	o.Clear()
	payload := []byte("0123456789")
	o.Write(payload)
	o.Chunk()
	o.Chunk()
	assert.Equal(t, payload, reassemble(t, o.View()))
}

func TestOutbox_NoChunkExceedsMaxSize(t *testing.T) {
	o := &Outbox{maxChunkSize: 8}
	o.Clear()
	o.Write(make([]byte, 1000))
	o.Chunk()
	o.Chunk()

	view := o.View()
	i := 0
	for i < len(view) {
		n := int(binary.BigEndian.Uint16(view[i : i+2]))
		assert.LessOrEqual(t, n, 8)
		i += 2 + n
		if n == 0 {
			break
		}
	}
}

func TestOutbox_ClearResetsState(t *testing.T) {
	o := NewOutbox()
	o.Write([]byte("x"))
	o.Chunk()
	o.Chunk()
	o.Clear()
	assert.True(t, o.Empty())
}
