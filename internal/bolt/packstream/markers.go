// Package packstream is a minimal PackStream-compatible value codec: the
// Wire Core treats value (de)serialization as an external collaborator
// (spec.md §1, §6), so this package exists only to give bolt/conn and
// bolt/wire a concrete Packer/Unpacker to drive end to end. It covers the
// handful of Go types the Connection actually needs to move across the
// wire (nil, bool, int64, float64, string, []byte, []any, map[string]any)
// using the real PackStream marker layout, not a full implementation of
// every PackStream type (structures beyond what Bolt messages need,
// arbitrary-precision types, etc. are out of scope).
package packstream

const (
	markerTinyIntMin = 0xF0 // tiny-int negative range low byte (−16)
	markerTinyIntMax = 0x7F // tiny-int positive range high byte (127)

	markerNull  = 0xC0
	markerFloat = 0xC1
	markerFalse = 0xC2
	markerTrue  = 0xC3

	markerInt8  = 0xC8
	markerInt16 = 0xC9
	markerInt32 = 0xCA
	markerInt64 = 0xCB

	markerBytes8  = 0xCC
	markerBytes16 = 0xCD
	markerBytes32 = 0xCE

	markerTinyStringBase = 0x80 // + length (0-15)
	markerString8        = 0xD0
	markerString16       = 0xD1
	markerString32       = 0xD2

	markerTinyListBase = 0x90 // + length (0-15)
	markerList8        = 0xD4
	markerList16       = 0xD5
	markerList32       = 0xD6

	markerTinyMapBase = 0xA0 // + entry count (0-15)
	markerMap8        = 0xD8
	markerMap16       = 0xD9
	markerMap32       = 0xDA

	markerTinyStructBase = 0xB0 // + field count (0-15)
	markerStruct8        = 0xDC
	markerStruct16       = 0xDD
)
