package packstream

import (
	"encoding/binary"
	"io"
)

// encodeMapHeader writes the marker and entry-count prefix for a map of n
// key/value pairs; the caller packs each key then value immediately after.
func encodeMapHeader(w io.Writer, n int) error {
	switch {
	case n <= 15:
		_, err := w.Write([]byte{markerTinyMapBase + byte(n)})
		return wrapErr("encode.map.tiny", err)
	case n <= 0xFF:
		_, err := w.Write([]byte{markerMap8, byte(n)})
		return wrapErr("encode.map.8", err)
	case n <= 0xFFFF:
		hdr := make([]byte, 3)
		hdr[0] = markerMap16
		binary.BigEndian.PutUint16(hdr[1:], uint16(n))
		_, err := w.Write(hdr)
		return wrapErr("encode.map.16", err)
	default:
		hdr := make([]byte, 5)
		hdr[0] = markerMap32
		binary.BigEndian.PutUint32(hdr[1:], uint32(n))
		_, err := w.Write(hdr)
		return wrapErr("encode.map.32", err)
	}
}

// mapLength reads the entry count of a map whose marker has already been
// consumed from r and is supplied as marker.
func mapLength(r io.Reader, marker byte) (int, error) {
	switch {
	case marker >= markerTinyMapBase && marker < markerTinyMapBase+16:
		return int(marker - markerTinyMapBase), nil
	case marker == markerMap8:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, wrapErr("decode.map.8", err)
		}
		return int(b[0]), nil
	case marker == markerMap16:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, wrapErr("decode.map.16", err)
		}
		return int(binary.BigEndian.Uint16(b[:])), nil
	case marker == markerMap32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, wrapErr("decode.map.32", err)
		}
		return int(binary.BigEndian.Uint32(b[:])), nil
	default:
		return 0, wrapErr("decode.map.marker", errMarker(marker))
	}
}

func isMapMarker(marker byte) bool {
	return (marker >= markerTinyMapBase && marker < markerTinyMapBase+16) ||
		marker == markerMap8 || marker == markerMap16 || marker == markerMap32
}
