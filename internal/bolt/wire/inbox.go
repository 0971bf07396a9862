package wire

import (
	"encoding/binary"
	"io"

	boltErrors "github.com/alxayo/boltgo/internal/errors"
	"github.com/alxayo/boltgo/internal/bolt/packstream"
)

// Message is one fully-assembled Inbox message: either a RECORD detail
// (Details holds exactly one field, Signature/Metadata are zero) or a
// summary (SUCCESS/IGNORED/FAILURE; Details is empty).
type Message struct {
	Details  []any
	Signature byte
	Metadata map[string]any
	IsDetail bool
}

// chunkReader assembles a message's chunk stream into a single buffer the
// unpacker can read sequentially, per spec.md §4.2's chunk-loader
// contract: a 2-byte length prefix, its payload, repeated until a
// zero-length chunk terminates the message.
type chunkReader struct {
	r   io.Reader
	rem int // bytes remaining in the chunk currently being drained
}

func (c *chunkReader) Read(p []byte) (int, error) {
	for c.rem == 0 {
		n, err := c.nextChunkLen()
		if err != nil {
			return 0, err
		}
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

func (c *chunkReader) nextChunkLen() (int, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(c.r, hdr[:]); err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint16(hdr[:])), nil
}

// Inbox is the read-side framing buffer. It consumes bytes from a socket
// and yields fully-assembled Messages.
type Inbox struct {
	conn io.Reader
	chr  *chunkReader
	up   *packstream.Unpacker
}

// NewInbox returns an Inbox reading chunks from conn.
func NewInbox(conn io.Reader) *Inbox {
	chr := &chunkReader{r: conn}
	return &Inbox{conn: conn, chr: chr, up: packstream.NewUnpacker(chr)}
}

// Next reads and assembles exactly one message. Per spec.md §4.2, a RECORD
// and its enclosing summary are always separate messages, each terminated
// by its own zero-length chunk, so Next only ever decodes one PackStream
// structure per call.
func (ib *Inbox) Next() (Message, error) {
	ib.chr.rem = 0

	size, signature, err := ib.up.UnpackStructureHeader()
	if err != nil {
		return Message{}, boltErrors.NewServiceUnavailable("inbox.next", err)
	}

	if signature == 0x71 { // RECORD
		if size != 1 {
			return Message{}, boltErrors.NewProtocolError("inbox.record.size",
				errUnexpectedRecordSize(size))
		}
		field, err := ib.up.Unpack()
		if err != nil {
			return Message{}, boltErrors.NewServiceUnavailable("inbox.record.field", err)
		}
		if err := ib.drainToTerminator(); err != nil {
			return Message{}, err
		}
		return Message{Details: []any{field}, IsDetail: true}, nil
	}

	metadata, err := ib.up.UnpackMap()
	if err != nil {
		return Message{}, boltErrors.NewServiceUnavailable("inbox.summary.metadata", err)
	}
	if err := ib.drainToTerminator(); err != nil {
		return Message{}, err
	}
	return Message{Signature: signature, Metadata: metadata}, nil
}

// drainToTerminator consumes any chunks left in the current message after
// the PackStream structure has been fully unpacked (normally just the
// zero-length terminator, but a well-behaved encoder never leaves trailing
// bytes; this guards against a short read desynchronizing the stream).
func (ib *Inbox) drainToTerminator() error {
	for ib.chr.rem > 0 {
		buf := make([]byte, ib.chr.rem)
		if _, err := io.ReadFull(ib.chr.r, buf); err != nil {
			return boltErrors.NewServiceUnavailable("inbox.drain", err)
		}
		ib.chr.rem = 0
	}
	n, err := ib.chr.nextChunkLen()
	if err != nil {
		return boltErrors.NewServiceUnavailable("inbox.terminator", err)
	}
	if n != 0 {
		return boltErrors.NewProtocolError("inbox.terminator", errExpectedTerminator(n))
	}
	return nil
}
