package packstream

import (
	"encoding/binary"
	"io"
)

// EncodeString writes v using the narrowest PackStream string
// representation that fits its byte length: TINY_STRING, STRING_8,
// STRING_16 or STRING_32.
func EncodeString(w io.Writer, v string) error {
	b := []byte(v)
	n := len(b)
	switch {
	case n <= 15:
		if _, err := w.Write([]byte{markerTinyStringBase + byte(n)}); err != nil {
			return wrapErr("encode.string.tiny", err)
		}
	case n <= 0xFF:
		if _, err := w.Write([]byte{markerString8, byte(n)}); err != nil {
			return wrapErr("encode.string.8", err)
		}
	case n <= 0xFFFF:
		hdr := make([]byte, 3)
		hdr[0] = markerString16
		binary.BigEndian.PutUint16(hdr[1:], uint16(n))
		if _, err := w.Write(hdr); err != nil {
			return wrapErr("encode.string.16", err)
		}
	default:
		hdr := make([]byte, 5)
		hdr[0] = markerString32
		binary.BigEndian.PutUint32(hdr[1:], uint32(n))
		if _, err := w.Write(hdr); err != nil {
			return wrapErr("encode.string.32", err)
		}
	}
	if n == 0 {
		return nil
	}
	_, err := w.Write(b)
	return wrapErr("encode.string.body", err)
}

// stringLength reads the length of a string whose marker has already been
// consumed from r and is supplied as marker.
func stringLength(r io.Reader, marker byte) (int, error) {
	switch {
	case marker >= markerTinyStringBase && marker < markerTinyStringBase+16:
		return int(marker - markerTinyStringBase), nil
	case marker == markerString8:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, wrapErr("decode.string.8", err)
		}
		return int(b[0]), nil
	case marker == markerString16:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, wrapErr("decode.string.16", err)
		}
		return int(binary.BigEndian.Uint16(b[:])), nil
	case marker == markerString32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, wrapErr("decode.string.32", err)
		}
		return int(binary.BigEndian.Uint32(b[:])), nil
	default:
		return 0, wrapErr("decode.string.marker", errMarker(marker))
	}
}

// DecodeString reads a string value whose marker has already been consumed
// from r and is supplied as marker.
func DecodeString(r io.Reader, marker byte) (string, error) {
	n, err := stringLength(r, marker)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", wrapErr("decode.string.body", err)
	}
	return string(buf), nil
}

func isStringMarker(marker byte) bool {
	return (marker >= markerTinyStringBase && marker < markerTinyStringBase+16) ||
		marker == markerString8 || marker == markerString16 || marker == markerString32
}
