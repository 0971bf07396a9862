package conn

import (
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alxayo/boltgo/internal/bolt/packstream"
	"github.com/alxayo/boltgo/internal/bolt/wire"
)

// rawChunkReader mirrors the wire package's unexported chunk-loader so test
// code can decode arbitrary client->server request structures (INIT, RUN,
// ...), which wire.Inbox deliberately can't: it only knows the two
// server->client reply shapes (RECORD, SUCCESS/IGNORED/FAILURE).
type rawChunkReader struct {
	r   io.Reader
	rem int
}

func (c *rawChunkReader) Read(p []byte) (int, error) {
	for c.rem == 0 {
		var hdr [2]byte
		if _, err := io.ReadFull(c.r, hdr[:]); err != nil {
			return 0, err
		}
		c.rem = int(binary.BigEndian.Uint16(hdr[:]))
		if c.rem == 0 {
			return 0, io.EOF
		}
	}
	if len(p) > c.rem {
		p = p[:c.rem]
	}
	n, err := io.ReadFull(c.r, p)
	c.rem -= n
	return n, err
}

// fakeServer decodes every Bolt request message the Connection under test
// sends and writes back reply messages, via a net.Pipe so no real socket is
// needed.
type fakeServer struct {
	t    *testing.T
	conn net.Conn
}

func newFakeServer(t *testing.T, conn net.Conn) *fakeServer {
	return &fakeServer{t: t, conn: conn}
}

// recvStruct reads exactly one client request message (one PackStream
// structure, its zero-length terminator consumed).
func (f *fakeServer) recvStruct() packstream.Structure {
	f.t.Helper()
	chr := &rawChunkReader{r: f.conn}
	up := packstream.NewUnpacker(chr)
	size, sig, err := up.UnpackStructureHeader()
	require.NoError(f.t, err)
	fields := make([]any, size)
	for i := 0; i < size; i++ {
		v, err := up.Unpack()
		require.NoError(f.t, err)
		fields[i] = v
	}
	// drain the terminator chunk
	n, err := func() (int, error) {
		var hdr [2]byte
		if _, err := io.ReadFull(f.conn, hdr[:]); err != nil {
			return 0, err
		}
		return int(binary.BigEndian.Uint16(hdr[:])), nil
	}()
	require.NoError(f.t, err)
	require.Equal(f.t, 0, n)
	return packstream.Structure{Signature: sig, Fields: fields}
}

func (f *fakeServer) sendSuccess(metadata map[string]any) {
	f.t.Helper()
	f.sendStruct(0x70, metadata)
}

func (f *fakeServer) sendFailure(metadata map[string]any) {
	f.t.Helper()
	f.sendStruct(0x7F, metadata)
}

func (f *fakeServer) sendRecord(fields []any) {
	f.t.Helper()
	f.sendStruct(0x71, fields)
}

func (f *fakeServer) sendStruct(signature byte, field any) {
	f.t.Helper()
	o := wire.NewOutbox()
	p := packstream.NewPacker(o)
	require.NoError(f.t, p.PackStruct(signature, field))
	o.Chunk()
	_, err := f.conn.Write(o.View())
	require.NoError(f.t, err)
}

func newTestConnection(t *testing.T, protocolVersion uint8) (*Connection, *fakeServer) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	c := NewConnection(client, "127.0.0.1:7687", protocolVersion, -1)
	return c, newFakeServer(t, server)
}
