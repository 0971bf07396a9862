// Package integration drives the Wire Core, Connection and ConnectionPool
// together against an in-process fake Bolt server over a real loopback
// socket, end to end.
package integration

import (
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/alxayo/boltgo/internal/bolt/packstream"
	"github.com/alxayo/boltgo/internal/bolt/wire"
)

const (
	sigInitOrHello byte = 0x01
	sigGoodbye     byte = 0x02
	sigRun         byte = 0x10
	sigBegin       byte = 0x11
	sigCommit      byte = 0x12
	sigReset       byte = 0x0F
	sigDiscardAll  byte = 0x2F
	sigPullAll     byte = 0x3F

	sigRecord  byte = 0x71
	sigSuccess byte = 0x70
	sigFailure byte = 0x7F
)

// request is one fully-decoded client message: its signature and every
// positional field PackStream carried for it.
type request struct {
	signature byte
	fields    []any
}

// fakeServer plays the server side of one Bolt socket: the raw
// handshake exchange plus generic structure decode/encode so a test can
// script arbitrary SUCCESS/FAILURE/RECORD replies without needing a real
// graph database listening on the other end.
type fakeServer struct {
	t    *testing.T
	conn net.Conn
	chr  *rawChunkReader
	up   *packstream.Unpacker
}

// rawChunkReader mirrors the wire package's unexported chunkReader: it
// exists here only because wire.Inbox is shaped to decode server replies
// (RECORD/SUCCESS/IGNORED/FAILURE), not arbitrary client requests like
// INIT or RUN.
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
		n := int(binary.BigEndian.Uint16(hdr[:]))
		if n == 0 {
			return 0, io.EOF
		}
		c.rem = n
	}
	if len(p) > c.rem {
		p = p[:c.rem]
	}
	n, err := io.ReadFull(c.r, p)
	c.rem -= n
	return n, err
}

func newFakeServer(t *testing.T, conn net.Conn) *fakeServer {
	chr := &rawChunkReader{r: conn}
	return &fakeServer{t: t, conn: conn, chr: chr, up: packstream.NewUnpacker(chr)}
}

// handshake consumes the client's magic preamble + proposed versions and
// agrees to chosenVersion.
func (f *fakeServer) handshake(chosenVersion uint32) {
	f.t.Helper()
	var buf [20]byte
	if _, err := io.ReadFull(f.conn, buf[:]); err != nil {
		f.t.Fatalf("fakeServer: reading handshake preamble: %v", err)
	}
	if binary.BigEndian.Uint32(buf[0:4]) != wire.MagicPreamble {
		f.t.Fatalf("fakeServer: bad magic preamble")
	}
	var reply [4]byte
	binary.BigEndian.PutUint32(reply[:], chosenVersion)
	if _, err := f.conn.Write(reply[:]); err != nil {
		f.t.Fatalf("fakeServer: writing handshake reply: %v", err)
	}
}

// recv decodes exactly one client request: a structure header, that many
// fields, and the terminating zero-length chunk.
func (f *fakeServer) recv() request {
	f.t.Helper()
	f.chr.rem = 0
	size, sig, err := f.up.UnpackStructureHeader()
	if err != nil {
		f.t.Fatalf("fakeServer: decoding structure header: %v", err)
	}
	fields := make([]any, size)
	for i := 0; i < size; i++ {
		v, err := f.up.Unpack()
		if err != nil {
			f.t.Fatalf("fakeServer: decoding field %d: %v", i, err)
		}
		fields[i] = v
	}
	f.drainTerminator()
	return request{signature: sig, fields: fields}
}

func (f *fakeServer) drainTerminator() {
	f.t.Helper()
	for f.chr.rem > 0 {
		buf := make([]byte, f.chr.rem)
		if _, err := io.ReadFull(f.chr.r, buf); err != nil {
			f.t.Fatalf("fakeServer: draining trailing bytes: %v", err)
		}
		f.chr.rem = 0
	}
	var hdr [2]byte
	if _, err := io.ReadFull(f.conn, hdr[:]); err != nil {
		f.t.Fatalf("fakeServer: reading terminator chunk: %v", err)
	}
	if binary.BigEndian.Uint16(hdr[:]) != 0 {
		f.t.Fatalf("fakeServer: expected zero-length terminator chunk")
	}
}

func (f *fakeServer) sendStruct(signature byte, fields ...any) {
	f.t.Helper()
	out := wire.NewOutbox()
	p := packstream.NewPacker(out)
	if err := p.PackStruct(signature, fields...); err != nil {
		f.t.Fatalf("fakeServer: packing reply: %v", err)
	}
	out.Chunk()
	if _, err := f.conn.Write(out.View()); err != nil {
		f.t.Fatalf("fakeServer: writing reply: %v", err)
	}
}

func (f *fakeServer) sendSuccess(metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	f.sendStruct(sigSuccess, metadata)
}

func (f *fakeServer) sendFailure(metadata map[string]any) {
	f.sendStruct(sigFailure, metadata)
}

func (f *fakeServer) sendRecord(fields []any) {
	f.sendStruct(sigRecord, fields)
}

// listenOnePeer starts a one-shot TCP listener, returning the accepted
// server-side connection via acceptedCh once a client dials addr.
func listenOnePeer(t *testing.T) (addr string, acceptedCh <-chan net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	ch := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		ch <- c
	}()
	return ln.Addr().String(), ch
}
