package packstream

import "io"

// Structure is the generic in-memory form of a PackStream structure value
// encountered while unpacking a list, map or nested field. Callers that
// know the expected signature up front (Bolt messages themselves) should
// use UnpackStructureHeader instead and unpack fields directly.
type Structure struct {
	Signature byte
	Fields    []any
}

// Unpacker deserializes PackStream-encoded values from an io.Reader,
// producing the same set of Go types Packer accepts plus Structure for
// any nested structure it runs into outside of a message header.
type Unpacker struct {
	r io.Reader
}

// NewUnpacker returns an Unpacker reading from r.
func NewUnpacker(r io.Reader) *Unpacker {
	return &Unpacker{r: r}
}

// Reset rebinds the Unpacker to read from r, allowing reuse across
// messages without reallocating.
func (u *Unpacker) Reset(r io.Reader) {
	u.r = r
}

func (u *Unpacker) readMarker() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(u.r, b[:]); err != nil {
		return 0, wrapErr("decode.marker", err)
	}
	return b[0], nil
}

// Unpack reads and decodes the next PackStream value.
func (u *Unpacker) Unpack() (any, error) {
	marker, err := u.readMarker()
	if err != nil {
		return nil, err
	}
	return u.unpackAfterMarker(marker)
}

func (u *Unpacker) unpackAfterMarker(marker byte) (any, error) {
	switch {
	case marker == markerNull:
		return nil, nil
	case marker == markerFalse || marker == markerTrue:
		return DecodeBool(marker)
	case marker == markerFloat:
		return DecodeFloat(u.r)
	case isIntMarker(marker):
		return DecodeInt(u.r, marker)
	case isStringMarker(marker):
		return DecodeString(u.r, marker)
	case isBytesMarker(marker):
		return DecodeBytes(u.r, marker)
	case isListMarker(marker):
		return u.unpackListAfterMarker(marker)
	case isMapMarker(marker):
		return u.unpackMapAfterMarker(marker)
	case isStructMarker(marker):
		return u.unpackStructAfterMarker(marker)
	default:
		return nil, wrapErr("decode.value.marker", errMarker(marker))
	}
}

func (u *Unpacker) unpackListAfterMarker(marker byte) ([]any, error) {
	n, err := listLength(u.r, marker)
	if err != nil {
		return nil, err
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		v, err := u.Unpack()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (u *Unpacker) unpackMapAfterMarker(marker byte) (map[string]any, error) {
	n, err := mapLength(u.r, marker)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, n)
	for i := 0; i < n; i++ {
		keyMarker, err := u.readMarker()
		if err != nil {
			return nil, err
		}
		if !isStringMarker(keyMarker) {
			return nil, wrapErr("decode.map.key", errMarker(keyMarker))
		}
		key, err := DecodeString(u.r, keyMarker)
		if err != nil {
			return nil, err
		}
		val, err := u.Unpack()
		if err != nil {
			return nil, err
		}
		out[key] = val
	}
	return out, nil
}

func (u *Unpacker) unpackStructAfterMarker(marker byte) (Structure, error) {
	n, sig, err := u.structHeaderAfterMarker(marker)
	if err != nil {
		return Structure{}, err
	}
	fields := make([]any, n)
	for i := 0; i < n; i++ {
		v, err := u.Unpack()
		if err != nil {
			return Structure{}, err
		}
		fields[i] = v
	}
	return Structure{Signature: sig, Fields: fields}, nil
}

// UnpackMap reads the next value, requiring it to be a PackStream map, and
// returns it as map[string]any. Bolt message metadata (SUCCESS, FAILURE)
// is always a top-level map.
func (u *Unpacker) UnpackMap() (map[string]any, error) {
	marker, err := u.readMarker()
	if err != nil {
		return nil, err
	}
	if !isMapMarker(marker) {
		return nil, wrapErr("decode.map.expected", errMarker(marker))
	}
	return u.unpackMapAfterMarker(marker)
}
