package packstream

import (
	"encoding/binary"
	"io"
)

// encodeListHeader writes the marker and length prefix for a list of n
// elements; the caller packs each element immediately after.
func encodeListHeader(w io.Writer, n int) error {
	switch {
	case n <= 15:
		_, err := w.Write([]byte{markerTinyListBase + byte(n)})
		return wrapErr("encode.list.tiny", err)
	case n <= 0xFF:
		_, err := w.Write([]byte{markerList8, byte(n)})
		return wrapErr("encode.list.8", err)
	case n <= 0xFFFF:
		hdr := make([]byte, 3)
		hdr[0] = markerList16
		binary.BigEndian.PutUint16(hdr[1:], uint16(n))
		_, err := w.Write(hdr)
		return wrapErr("encode.list.16", err)
	default:
		hdr := make([]byte, 5)
		hdr[0] = markerList32
		binary.BigEndian.PutUint32(hdr[1:], uint32(n))
		_, err := w.Write(hdr)
		return wrapErr("encode.list.32", err)
	}
}

// listLength reads the element count of a list whose marker has already
// been consumed from r and is supplied as marker.
func listLength(r io.Reader, marker byte) (int, error) {
	switch {
	case marker >= markerTinyListBase && marker < markerTinyListBase+16:
		return int(marker - markerTinyListBase), nil
	case marker == markerList8:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, wrapErr("decode.list.8", err)
		}
		return int(b[0]), nil
	case marker == markerList16:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, wrapErr("decode.list.16", err)
		}
		return int(binary.BigEndian.Uint16(b[:])), nil
	case marker == markerList32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, wrapErr("decode.list.32", err)
		}
		return int(binary.BigEndian.Uint32(b[:])), nil
	default:
		return 0, wrapErr("decode.list.marker", errMarker(marker))
	}
}

func isListMarker(marker byte) bool {
	return (marker >= markerTinyListBase && marker < markerTinyListBase+16) ||
		marker == markerList8 || marker == markerList16 || marker == markerList32
}
