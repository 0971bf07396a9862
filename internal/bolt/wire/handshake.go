package wire

import (
	"encoding/binary"
	"net"
	"time"

	boltErrors "github.com/alxayo/boltgo/internal/errors"
	"github.com/alxayo/boltgo/internal/logger"
)

// MagicPreamble identifies a Bolt handshake to a server expecting one
// (spec.md §4.3, §6).
const MagicPreamble uint32 = 0x6060B017

// httpMagic is what a server speaking plain HTTP on the same port replies
// with: the ASCII bytes "HTTP" read as a big-endian u32.
const httpMagic uint32 = 0x48545450

// ProposedVersions is the client's supported-versions vector in priority
// order, newest first.
var ProposedVersions = [4]uint32{3, 2, 1, 0}

const handshakePollInterval = 1 * time.Second

// Handshake runs the one-shot version-negotiation exchange on a freshly
// connected (and optionally TLS-wrapped) socket. It returns the agreed
// protocol version (1, 2 or 3).
func Handshake(conn net.Conn) (uint8, error) {
	log := logger.WithConn(logger.Logger().WithField("phase", "handshake"), "", conn.RemoteAddr().String())

	payload := make([]byte, 4+4*4)
	binary.BigEndian.PutUint32(payload[0:4], MagicPreamble)
	for i, v := range ProposedVersions {
		binary.BigEndian.PutUint32(payload[4+i*4:8+i*4], v)
	}
	if _, err := conn.Write(payload); err != nil {
		return 0, boltErrors.NewServiceUnavailable("handshake.write", err)
	}

	reply, err := readExactlyWithPoll(conn, 4)
	if err != nil {
		return 0, err
	}
	if len(reply) == 0 {
		return 0, boltErrors.NewServiceUnavailable("handshake.read", errServerClosed)
	}
	if len(reply) != 4 {
		return 0, boltErrors.NewProtocolError("handshake.read.short", errShortReply(len(reply)))
	}

	agreed := binary.BigEndian.Uint32(reply)
	switch {
	case agreed == 0:
		_ = conn.Close()
		return 0, boltErrors.NewServiceUnavailable("handshake.no_agreement", errNoVersionAgreement)
	case agreed == 1 || agreed == 2 || agreed == 3:
		log.WithField("version", agreed).Debug("handshake agreed")
		return uint8(agreed), nil
	case agreed == httpMagic:
		return 0, boltErrors.NewServiceUnavailable("handshake.http", errLooksLikeHTTP)
	default:
		return 0, boltErrors.NewProtocolError("handshake.unknown_version", errUnknownVersion(agreed))
	}
}

// readExactlyWithPoll reads n bytes from conn, retrying in
// handshakePollInterval slices instead of blocking indefinitely. This
// models spec.md §4.3's 1-second select() poll loop: Go has no raw
// select() primitive, so a repeatedly-extended read deadline stands in for
// it (documented design decision, see DESIGN.md).
func readExactlyWithPoll(conn net.Conn, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		if err := conn.SetReadDeadline(time.Now().Add(handshakePollInterval)); err != nil {
			return nil, boltErrors.NewServiceUnavailable("handshake.poll.deadline", err)
		}
		buf := make([]byte, n-len(out))
		read, err := conn.Read(buf)
		if read > 0 {
			out = append(out, buf[:read]...)
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			_ = conn.SetReadDeadline(time.Time{})
			if read == 0 && len(out) == 0 {
				return nil, boltErrors.NewServiceUnavailable("handshake.poll.read", err)
			}
			return out, nil
		}
	}
	_ = conn.SetReadDeadline(time.Time{})
	return out, nil
}
