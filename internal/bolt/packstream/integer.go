package packstream

import (
	"encoding/binary"
	"io"

	psErrors "github.com/alxayo/boltgo/internal/errors"
)

// EncodeInt writes v using the narrowest PackStream integer representation
// that round-trips it: tiny-int, INT_8, INT_16, INT_32 or INT_64.
func EncodeInt(w io.Writer, v int64) error {
	switch {
	case v >= -16 && v <= 127:
		_, err := w.Write([]byte{byte(v)})
		return wrapErr("encode.int.tiny", err)
	case v >= -128 && v <= 127:
		_, err := w.Write([]byte{markerInt8, byte(v)})
		return wrapErr("encode.int.8", err)
	case v >= -32768 && v <= 32767:
		buf := make([]byte, 3)
		buf[0] = markerInt16
		binary.BigEndian.PutUint16(buf[1:], uint16(v))
		_, err := w.Write(buf)
		return wrapErr("encode.int.16", err)
	case v >= -2147483648 && v <= 2147483647:
		buf := make([]byte, 5)
		buf[0] = markerInt32
		binary.BigEndian.PutUint32(buf[1:], uint32(v))
		_, err := w.Write(buf)
		return wrapErr("encode.int.32", err)
	default:
		buf := make([]byte, 9)
		buf[0] = markerInt64
		binary.BigEndian.PutUint64(buf[1:], uint64(v))
		_, err := w.Write(buf)
		return wrapErr("encode.int.64", err)
	}
}

// DecodeInt reads an integer value whose marker has already been consumed
// from r and is supplied as marker.
func DecodeInt(r io.Reader, marker byte) (int64, error) {
	switch {
	case marker <= markerTinyIntMax || marker >= markerTinyIntMin:
		return int64(int8(marker)), nil
	case marker == markerInt8:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, psErrors.NewProtocolError("decode.int.8", err)
		}
		return int64(int8(b[0])), nil
	case marker == markerInt16:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, psErrors.NewProtocolError("decode.int.16", err)
		}
		return int64(int16(binary.BigEndian.Uint16(b[:]))), nil
	case marker == markerInt32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, psErrors.NewProtocolError("decode.int.32", err)
		}
		return int64(int32(binary.BigEndian.Uint32(b[:]))), nil
	case marker == markerInt64:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, psErrors.NewProtocolError("decode.int.64", err)
		}
		return int64(binary.BigEndian.Uint64(b[:])), nil
	default:
		return 0, psErrors.NewProtocolError("decode.int.marker", errMarker(marker))
	}
}

func isIntMarker(marker byte) bool {
	return marker <= markerTinyIntMax || marker >= markerTinyIntMin ||
		marker == markerInt8 || marker == markerInt16 || marker == markerInt32 || marker == markerInt64
}
