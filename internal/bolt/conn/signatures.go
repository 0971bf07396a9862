package conn

// Message signatures recognized by the Bolt core (spec.md §6).
const (
	sigInitOrHello byte = 0x01
	sigGoodbye     byte = 0x02
	sigRun         byte = 0x10
	sigBegin       byte = 0x11
	sigCommit      byte = 0x12
	sigRollback    byte = 0x13
	sigReset       byte = 0x0F
	sigDiscardAll  byte = 0x2F
	sigPullAll     byte = 0x3F

	sigRecord  byte = 0x71
	sigSuccess byte = 0x70
	sigIgnored byte = 0x7E
	sigFailure byte = 0x7F
)

const unauthorizedCode = "Neo.ClientError.Security.Unauthorized"

// classifyFailure maps a FAILURE summary's metadata to a core error kind.
// InitResponse and CommitResponse share every callback with the plain
// Response and differ only here (spec.md §4.5). ResetResponse's FAILURE
// always raises ProtocolError: a server that can't even honor RESET has
// violated the protocol, and (unlike the original driver) this never
// recurses back into another RESET attempt.
func classifyFailure(kind responseKind, metadata map[string]any) error {
	code, _ := metadata["code"].(string)
	switch kind {
	case kindInit:
		if code == unauthorizedCode {
			return newAuthError("connection.init", metadata)
		}
		return newServiceUnavailable("connection.init", metadata)
	case kindReset:
		return newProtocolError("connection.reset", metadata)
	default:
		return newCypherError(metadata)
	}
}
