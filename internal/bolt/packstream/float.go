package packstream

import (
	"encoding/binary"
	"io"
	"math"
)

// EncodeFloat writes v as a PackStream FLOAT_64: marker followed by 8 bytes
// of IEEE 754 binary64, big-endian.
func EncodeFloat(w io.Writer, v float64) error {
	buf := make([]byte, 9)
	buf[0] = markerFloat
	binary.BigEndian.PutUint64(buf[1:], math.Float64bits(v))
	_, err := w.Write(buf)
	return wrapErr("encode.float", err)
}

// DecodeFloat reads the 8 payload bytes of a FLOAT_64 whose marker has
// already been consumed from r.
func DecodeFloat(r io.Reader) (float64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, wrapErr("decode.float", err)
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b[:])), nil
}
