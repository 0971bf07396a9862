package packstream

import (
	"fmt"
	"io"
	"sort"
)

// Packer serializes Go values onto an io.Writer using PackStream encoding.
// It covers exactly the value types the Bolt Wire Core exchanges with a
// server: nil, bool, integers, float64, string, []byte, []any and
// map[string]any (spec.md §6).
type Packer struct {
	w io.Writer

	// SupportsBytes gates whether []byte values are packed as PackStream
	// byte arrays. Bolt v1 servers predate the BYTES types; when false,
	// []byte is packed as a LIST of integers instead, each byte taken as a
	// signed 8-bit value (spec.md §6).
	SupportsBytes bool
}

// NewPacker returns a Packer writing to w with SupportsBytes enabled. Set
// SupportsBytes to false when the negotiated protocol version is Bolt v1.
func NewPacker(w io.Writer) *Packer {
	return &Packer{w: w, SupportsBytes: true}
}

// Pack serializes v, dispatching on its concrete Go type.
func (p *Packer) Pack(v any) error {
	switch val := v.(type) {
	case nil:
		return EncodeNull(p.w)
	case bool:
		return EncodeBool(p.w, val)
	case int:
		return EncodeInt(p.w, int64(val))
	case int8:
		return EncodeInt(p.w, int64(val))
	case int16:
		return EncodeInt(p.w, int64(val))
	case int32:
		return EncodeInt(p.w, int64(val))
	case int64:
		return EncodeInt(p.w, val)
	case float32:
		return EncodeFloat(p.w, float64(val))
	case float64:
		return EncodeFloat(p.w, val)
	case string:
		return EncodeString(p.w, val)
	case []byte:
		if p.SupportsBytes {
			return EncodeBytes(p.w, val)
		}
		return p.packByteList(val)
	case []any:
		return p.packList(val)
	case map[string]any:
		return p.packMap(val)
	default:
		return wrapErr("encode.value", fmt.Errorf("packstream: unsupported type %T", v))
	}
}

func (p *Packer) packByteList(v []byte) error {
	if err := encodeListHeader(p.w, len(v)); err != nil {
		return err
	}
	for _, b := range v {
		if err := EncodeInt(p.w, int64(int8(b))); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packer) packList(v []any) error {
	if err := encodeListHeader(p.w, len(v)); err != nil {
		return err
	}
	for _, elem := range v {
		if err := p.Pack(elem); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packer) packMap(v map[string]any) error {
	if err := encodeMapHeader(p.w, len(v)); err != nil {
		return err
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := EncodeString(p.w, k); err != nil {
			return err
		}
		if err := p.Pack(v[k]); err != nil {
			return err
		}
	}
	return nil
}

// PackStruct writes a structure header for signature with len(fields)
// elements, then packs each field in order. Used for every Bolt message
// (RUN, BEGIN, PULL_ALL, ...) which are PackStream structures on the wire.
func (p *Packer) PackStruct(signature byte, fields ...any) error {
	if err := encodeStructHeader(p.w, len(fields), signature); err != nil {
		return err
	}
	for _, f := range fields {
		if err := p.Pack(f); err != nil {
			return err
		}
	}
	return nil
}
