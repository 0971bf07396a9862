package conn

import (
	"strconv"
	"strings"
)

// ServerInfo describes the server a Connection is bound to: its resolved
// address, the negotiated Bolt protocol version, and whatever metadata the
// server returned with its INIT/HELLO SUCCESS (spec.md §3).
type ServerInfo struct {
	Address         string
	ProtocolVersion uint8
	Agent           string
	Metadata        map[string]any
}

// Supports derives capability booleans from the agent string and
// negotiated protocol version rather than a server feature-flag handshake
// (spec.md §3): "bytes" (raw PackStream byte arrays) requires a server
// reporting version >= 3.2 in its agent string; "tx_metadata" (per-request
// metadata/timeout on RUN/BEGIN) requires protocol version >= 3.
func (s *ServerInfo) Supports(feature string) bool {
	switch feature {
	case "bytes":
		return s.agentAtLeast(3, 2)
	case "tx_metadata":
		return s.ProtocolVersion >= 3
	default:
		return false
	}
}

// agentAtLeast parses a "Neo4j/X.Y.Z" style agent string and compares its
// major.minor against the given floor.
func (s *ServerInfo) agentAtLeast(major, minor int) bool {
	parts := strings.SplitN(s.Agent, "/", 2)
	if len(parts) != 2 {
		return false
	}
	version := strings.SplitN(parts[1], ".", 3)
	if len(version) < 2 {
		return false
	}
	gotMajor, err := strconv.Atoi(version[0])
	if err != nil {
		return false
	}
	gotMinor, err := strconv.Atoi(version[1])
	if err != nil {
		return false
	}
	if gotMajor != major {
		return gotMajor > major
	}
	return gotMinor >= minor
}
