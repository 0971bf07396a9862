package packstream

import (
	"encoding/binary"
	"io"
)

// EncodeBytes writes v as a PackStream byte array: BYTES_8, BYTES_16 or
// BYTES_32 depending on length. Unlike strings, bytes have no tiny form.
func EncodeBytes(w io.Writer, v []byte) error {
	n := len(v)
	switch {
	case n <= 0xFF:
		if _, err := w.Write([]byte{markerBytes8, byte(n)}); err != nil {
			return wrapErr("encode.bytes.8", err)
		}
	case n <= 0xFFFF:
		hdr := make([]byte, 3)
		hdr[0] = markerBytes16
		binary.BigEndian.PutUint16(hdr[1:], uint16(n))
		if _, err := w.Write(hdr); err != nil {
			return wrapErr("encode.bytes.16", err)
		}
	default:
		hdr := make([]byte, 5)
		hdr[0] = markerBytes32
		binary.BigEndian.PutUint32(hdr[1:], uint32(n))
		if _, err := w.Write(hdr); err != nil {
			return wrapErr("encode.bytes.32", err)
		}
	}
	if n == 0 {
		return nil
	}
	_, err := w.Write(v)
	return wrapErr("encode.bytes.body", err)
}

// DecodeBytes reads a byte array value whose marker has already been
// consumed from r and is supplied as marker.
func DecodeBytes(r io.Reader, marker byte) ([]byte, error) {
	var n int
	switch marker {
	case markerBytes8:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, wrapErr("decode.bytes.8", err)
		}
		n = int(b[0])
	case markerBytes16:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, wrapErr("decode.bytes.16", err)
		}
		n = int(binary.BigEndian.Uint16(b[:]))
	case markerBytes32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, wrapErr("decode.bytes.32", err)
		}
		n = int(binary.BigEndian.Uint32(b[:]))
	default:
		return nil, wrapErr("decode.bytes.marker", errMarker(marker))
	}
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, wrapErr("decode.bytes.body", err)
	}
	return buf, nil
}

func isBytesMarker(marker byte) bool {
	return marker == markerBytes8 || marker == markerBytes16 || marker == markerBytes32
}
