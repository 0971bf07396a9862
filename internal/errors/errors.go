// Package errors defines the Bolt core's error kind hierarchy.
//
// Each kind maps to a semantic role from the Bolt wire/connection/pool
// lifecycle rather than to a single failure site, so callers can branch on
// kind (IsServiceUnavailable, IsProtocolError, ...) instead of matching
// strings. All kinds wrap an underlying cause with github.com/pkg/errors so
// the original stack trace survives across the wrapping boundary.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// marker is implemented by every kind in this package so errors.As can
// classify an error chain without naming each concrete type.
type marker interface {
	error
	kind() string
}

// ServiceUnavailable indicates the transport could not be established or
// continued. The connection that produced it is defunct; the pool that
// owns its address deactivates that address.
type ServiceUnavailable struct {
	Op  string
	Err error
}

func (e *ServiceUnavailable) Error() string { return format("service unavailable", e.Op, e.Err) }
func (e *ServiceUnavailable) Unwrap() error { return e.Err }
func (e *ServiceUnavailable) kind() string  { return "service_unavailable" }

// ProtocolError indicates a structural wire violation: a bad handshake, an
// unexpected message signature, a RECORD of the wrong size, or an HTTP
// response on a Bolt port. Fatal for the connection.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string { return format("protocol error", e.Op, e.Err) }
func (e *ProtocolError) Unwrap() error { return e.Err }
func (e *ProtocolError) kind() string  { return "protocol_error" }

// SecurityError indicates a TLS establishment failure (handshake, missing
// peer certificate, trust-on-first-use mismatch).
type SecurityError struct {
	Op  string
	Err error
}

func (e *SecurityError) Error() string { return format("security error", e.Op, e.Err) }
func (e *SecurityError) Unwrap() error { return e.Err }
func (e *SecurityError) kind() string  { return "security_error" }

// AuthError indicates failed authentication during INIT/HELLO.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string { return format("auth error", e.Op, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }
func (e *AuthError) kind() string  { return "auth_error" }

// CypherError represents a server-side FAILURE summary hydrated from its
// code and message fields.
type CypherError struct {
	Code    string
	Message string
}

func (e *CypherError) Error() string {
	if e.Code == "" {
		return "cypher error: " + e.Message
	}
	return fmt.Sprintf("cypher error: %s: %s", e.Code, e.Message)
}
func (e *CypherError) kind() string { return "cypher_error" }

// HydrateCypherError builds a CypherError from FAILURE summary metadata.
func HydrateCypherError(metadata map[string]any) error {
	code, _ := metadata["code"].(string)
	message, _ := metadata["message"].(string)
	if message == "" {
		message = "server reported a failure with no message"
	}
	return &CypherError{Code: code, Message: message}
}

// ClientError indicates the caller's own pool-acquisition timeout expired.
type ClientError struct {
	Op  string
	Err error
}

func (e *ClientError) Error() string { return format("client error", e.Op, e.Err) }
func (e *ClientError) Unwrap() error { return e.Err }
func (e *ClientError) kind() string  { return "client_error" }

// IncompleteCommitError is raised when a connection becomes defunct while a
// CommitResponse is still outstanding: the client cannot determine whether
// the commit reached durable storage.
type IncompleteCommitError struct {
	Op  string
	Err error
}

func (e *IncompleteCommitError) Error() string { return format("incomplete commit", e.Op, e.Err) }
func (e *IncompleteCommitError) Unwrap() error { return e.Err }
func (e *IncompleteCommitError) kind() string  { return "incomplete_commit" }

// ConnectionExpired and DatabaseUnavailableError both trigger a pool
// deactivate(address) before propagating; they are otherwise plain causes.
type ConnectionExpired struct {
	Op  string
	Err error
}

func (e *ConnectionExpired) Error() string { return format("connection expired", e.Op, e.Err) }
func (e *ConnectionExpired) Unwrap() error { return e.Err }
func (e *ConnectionExpired) kind() string  { return "connection_expired" }

type DatabaseUnavailableError struct {
	Op  string
	Err error
}

func (e *DatabaseUnavailableError) Error() string {
	return format("database unavailable", e.Op, e.Err)
}
func (e *DatabaseUnavailableError) Unwrap() error { return e.Err }
func (e *DatabaseUnavailableError) kind() string  { return "database_unavailable" }

// NotALeaderError and ForbiddenOnReadOnlyDatabaseError trigger
// remove_writer(address) in a routing pool; direct pools (the only pool
// kind this core implements) ignore that call but still propagate the
// error to the caller.
type NotALeaderError struct {
	Op  string
	Err error
}

func (e *NotALeaderError) Error() string { return format("not a leader", e.Op, e.Err) }
func (e *NotALeaderError) Unwrap() error { return e.Err }
func (e *NotALeaderError) kind() string  { return "not_a_leader" }

type ForbiddenOnReadOnlyDatabaseError struct {
	Op  string
	Err error
}

func (e *ForbiddenOnReadOnlyDatabaseError) Error() string {
	return format("forbidden on read-only database", e.Op, e.Err)
}
func (e *ForbiddenOnReadOnlyDatabaseError) Unwrap() error { return e.Err }
func (e *ForbiddenOnReadOnlyDatabaseError) kind() string  { return "forbidden_read_only" }

func format(label, op string, err error) string {
	if err == nil {
		return fmt.Sprintf("%s: %s", label, op)
	}
	return fmt.Sprintf("%s: %s: %v", label, op, err)
}

// Constructors. Each wraps cause with a stack trace via pkg/errors so the
// originating I/O failure is still inspectable after classification.
func NewServiceUnavailable(op string, cause error) error {
	return &ServiceUnavailable{Op: op, Err: wrap(cause)}
}
func NewProtocolError(op string, cause error) error {
	return &ProtocolError{Op: op, Err: wrap(cause)}
}
func NewSecurityError(op string, cause error) error {
	return &SecurityError{Op: op, Err: wrap(cause)}
}
func NewAuthError(op string, cause error) error {
	return &AuthError{Op: op, Err: wrap(cause)}
}
func NewClientError(op string, cause error) error {
	return &ClientError{Op: op, Err: wrap(cause)}
}
func NewIncompleteCommitError(op string, cause error) error {
	return &IncompleteCommitError{Op: op, Err: wrap(cause)}
}
func NewConnectionExpired(op string, cause error) error {
	return &ConnectionExpired{Op: op, Err: wrap(cause)}
}
func NewDatabaseUnavailableError(op string, cause error) error {
	return &DatabaseUnavailableError{Op: op, Err: wrap(cause)}
}
func NewNotALeaderError(op string, cause error) error {
	return &NotALeaderError{Op: op, Err: wrap(cause)}
}
func NewForbiddenOnReadOnlyDatabaseError(op string, cause error) error {
	return &ForbiddenOnReadOnlyDatabaseError{Op: op, Err: wrap(cause)}
}

func wrap(cause error) error {
	if cause == nil {
		return nil
	}
	return pkgerrors.WithStack(cause)
}

// IsServiceUnavailable reports whether err is, or wraps, a ServiceUnavailable.
func IsServiceUnavailable(err error) bool { return hasKind(err, "service_unavailable") }

// IsProtocolError reports whether err is, or wraps, a ProtocolError.
func IsProtocolError(err error) bool { return hasKind(err, "protocol_error") }

// IsCypherError reports whether err is, or wraps, a CypherError.
func IsCypherError(err error) bool { return hasKind(err, "cypher_error") }

// IsIncompleteCommit reports whether err is, or wraps, an IncompleteCommitError.
func IsIncompleteCommit(err error) bool { return hasKind(err, "incomplete_commit") }

// IsAuthError reports whether err is, or wraps, an AuthError.
func IsAuthError(err error) bool { return hasKind(err, "auth_error") }

// IsClientError reports whether err is, or wraps, a ClientError.
func IsClientError(err error) bool { return hasKind(err, "client_error") }

// IsConnectionExpired reports whether err is, or wraps, a ConnectionExpired.
func IsConnectionExpired(err error) bool { return hasKind(err, "connection_expired") }

// IsDatabaseUnavailable reports whether err is, or wraps, a DatabaseUnavailableError.
func IsDatabaseUnavailable(err error) bool { return hasKind(err, "database_unavailable") }

// IsNotALeader reports whether err is, or wraps, a NotALeaderError.
func IsNotALeader(err error) bool { return hasKind(err, "not_a_leader") }

// IsForbiddenOnReadOnly reports whether err is, or wraps, a ForbiddenOnReadOnlyDatabaseError.
func IsForbiddenOnReadOnly(err error) bool { return hasKind(err, "forbidden_read_only") }

// ShouldDeactivate reports whether err belongs to a kind that should cause
// the owning pool to deactivate the connection's address before the error
// is re-raised to the caller (spec §4.4, §7).
func ShouldDeactivate(err error) bool {
	return IsConnectionExpired(err) || IsServiceUnavailable(err) || IsDatabaseUnavailable(err)
}

// ShouldRemoveWriter reports whether err belongs to a kind that should
// cause a routing pool to stop treating the connection's address as a
// writer. Direct pools ignore this signal but still propagate the error.
func ShouldRemoveWriter(err error) bool {
	return IsNotALeader(err) || IsForbiddenOnReadOnly(err)
}

func hasKind(err error, kind string) bool {
	for err != nil {
		if m, ok := err.(marker); ok && m.kind() == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
