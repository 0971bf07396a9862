package packstream

import "io"

// EncodeBool writes v as a PackStream TRUE or FALSE marker byte.
func EncodeBool(w io.Writer, v bool) error {
	marker := byte(markerFalse)
	if v {
		marker = markerTrue
	}
	_, err := w.Write([]byte{marker})
	return wrapErr("encode.bool", err)
}

// DecodeBool interprets a marker already consumed from the stream as a
// boolean value.
func DecodeBool(marker byte) (bool, error) {
	switch marker {
	case markerTrue:
		return true, nil
	case markerFalse:
		return false, nil
	default:
		return false, wrapErr("decode.bool", errMarker(marker))
	}
}
