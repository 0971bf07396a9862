package packstream

import "io"

// EncodeNull writes the PackStream NULL marker.
func EncodeNull(w io.Writer) error {
	_, err := w.Write([]byte{markerNull})
	return wrapErr("encode.null", err)
}
