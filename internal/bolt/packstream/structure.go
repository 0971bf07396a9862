package packstream

import "io"

// encodeStructHeader writes the marker and field-count prefix for a
// structure, followed by its one-byte signature. The header holds up to 15
// fields (TINY), 255 (STRUCT_8) or 65535 (STRUCT_16); Bolt messages never
// exceed the tiny form, so the larger forms exist only for symmetry with
// lists/maps.
func encodeStructHeader(w io.Writer, n int, signature byte) error {
	switch {
	case n <= 15:
		_, err := w.Write([]byte{markerTinyStructBase + byte(n), signature})
		return wrapErr("encode.struct.tiny", err)
	case n <= 0xFF:
		_, err := w.Write([]byte{markerStruct8, byte(n), signature})
		return wrapErr("encode.struct.8", err)
	default:
		_, err := w.Write([]byte{markerStruct16, byte(n >> 8), byte(n), signature})
		return wrapErr("encode.struct.16", err)
	}
}

// UnpackStructureHeader reads a structure's field count and signature byte.
// The caller is responsible for unpacking exactly that many fields next.
func (u *Unpacker) UnpackStructureHeader() (size int, signature byte, err error) {
	marker, err := u.readMarker()
	if err != nil {
		return 0, 0, err
	}
	return u.structHeaderAfterMarker(marker)
}

func (u *Unpacker) structHeaderAfterMarker(marker byte) (size int, signature byte, err error) {
	switch {
	case marker >= markerTinyStructBase && marker < markerTinyStructBase+16:
		size = int(marker - markerTinyStructBase)
	case marker == markerStruct8:
		var b [1]byte
		if _, err := io.ReadFull(u.r, b[:]); err != nil {
			return 0, 0, wrapErr("decode.struct.8", err)
		}
		size = int(b[0])
	case marker == markerStruct16:
		var b [2]byte
		if _, err := io.ReadFull(u.r, b[:]); err != nil {
			return 0, 0, wrapErr("decode.struct.16", err)
		}
		size = int(b[0])<<8 | int(b[1])
	default:
		return 0, 0, wrapErr("decode.struct.marker", errMarker(marker))
	}
	var sig [1]byte
	if _, err := io.ReadFull(u.r, sig[:]); err != nil {
		return 0, 0, wrapErr("decode.struct.signature", err)
	}
	return size, sig[0], nil
}

func isStructMarker(marker byte) bool {
	return (marker >= markerTinyStructBase && marker < markerTinyStructBase+16) ||
		marker == markerStruct8 || marker == markerStruct16
}
