package wire

import (
	"errors"
	"fmt"
)

func errUnexpectedRecordSize(size int) error {
	return fmt.Errorf("record structure has %d fields, want 1", size)
}

func errExpectedTerminator(chunkLen int) error {
	return fmt.Errorf("expected zero-length message terminator, got chunk of %d bytes", chunkLen)
}

var (
	errServerClosed       = errors.New("server closed the connection during handshake")
	errNoVersionAgreement = errors.New("server did not agree to any proposed protocol version")
	errLooksLikeHTTP      = errors.New("server appears to speak HTTP; check the port")
)

func errShortReply(n int) error {
	return fmt.Errorf("handshake reply was %d bytes, want 4", n)
}

func errUnknownVersion(v uint32) error {
	return fmt.Errorf("server proposed unrecognized protocol version 0x%08x", v)
}
