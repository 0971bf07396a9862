// Package wire implements the Bolt Wire Core: chunked message framing
// (Outbox/Inbox) and the version-negotiation handshake (spec.md §4.1-§4.3).
// It knows nothing about message semantics — Connection owns that — only
// how to turn an opaque byte stream into length-prefixed chunks and back.
package wire

import (
	"encoding/binary"

	"github.com/alxayo/boltgo/internal/bufpool"
)

// DefaultMaxChunkSize is the largest payload a single chunk may carry
// (spec.md §3).
const DefaultMaxChunkSize = 16 * 1024

// Outbox is the write-side framing buffer. It accepts opaque byte writes
// from a message encoder and produces one contiguous slice a socket can
// send in a single syscall.
//
// Invariant (spec.md §3): header <= start == header+2 <= end; the two
// bytes at [header, header+2) always hold the big-endian length of the
// currently open chunk (end - start).
type Outbox struct {
	buf    []byte
	header int
	start  int
	end    int

	maxChunkSize int
}

// NewOutbox returns an Outbox with the default 16 KiB max chunk size.
func NewOutbox() *Outbox {
	o := &Outbox{maxChunkSize: DefaultMaxChunkSize}
	o.Clear()
	return o
}

// Write appends bytes to the current open chunk, opening new chunks as
// needed so that no chunk ever exceeds maxChunkSize. Implements io.Writer
// so a Packer can write structures directly into the Outbox.
func (o *Outbox) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		remaining := o.maxChunkSize - (o.end - o.start)
		toWrite := len(p)
		if remaining == 0 || (remaining > 0 && remaining < toWrite && toWrite <= o.maxChunkSize) {
			o.Chunk()
			remaining = o.maxChunkSize - (o.end - o.start)
		}
		n := toWrite
		if n > remaining {
			n = remaining
		}
		o.ensureCap(o.end + n)
		copy(o.buf[o.end:o.end+n], p[:n])
		o.end += n
		o.stampHeader()
		p = p[n:]
	}
	return total, nil
}

// Chunk closes the current chunk (its length is already stamped from the
// last Write) and opens a new, empty one.
func (o *Outbox) Chunk() {
	o.header = o.end
	o.ensureCap(o.header + 2)
	binary.BigEndian.PutUint16(o.buf[o.header:o.header+2], 0)
	o.start = o.header + 2
	o.end = o.start
}

// View returns the bytes ready to send: everything up to end if the
// current chunk has content, otherwise everything up to header (so a
// trailing zero-length chunk is included as the message terminator).
func (o *Outbox) View() []byte {
	if o.end > o.start {
		return o.buf[:o.end]
	}
	return o.buf[:o.header+2]
}

// Empty reports whether the Outbox is in its just-cleared state: nothing
// has been written since the last Clear.
func (o *Outbox) Empty() bool {
	return o.header == 0 && o.start == 2 && o.end == 2
}

// Clear resets the Outbox to its initial empty-chunk state, releasing the
// backing buffer back to the shared pool and taking a fresh one.
func (o *Outbox) Clear() {
	if o.buf != nil {
		bufpool.Put(o.buf)
	}
	o.buf = bufpool.Get(256)[:2]
	o.header = 0
	o.start = 2
	o.end = 2
	o.buf[0] = 0
	o.buf[1] = 0
}

func (o *Outbox) stampHeader() {
	binary.BigEndian.PutUint16(o.buf[o.header:o.header+2], uint16(o.end-o.start))
}

func (o *Outbox) ensureCap(n int) {
	if n <= len(o.buf) {
		return
	}
	grown := make([]byte, n, n*2)
	copy(grown, o.buf)
	o.buf = grown
}
