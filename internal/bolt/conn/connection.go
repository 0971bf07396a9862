// Package conn implements the Bolt Connection State Machine: a long-lived,
// authenticated, single-threaded-per-connection session built on top of the
// wire package's framing primitives (spec.md §3-§5).
package conn

import (
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/alxayo/boltgo/internal/bolt/packstream"
	"github.com/alxayo/boltgo/internal/bolt/wire"
	boltErrors "github.com/alxayo/boltgo/internal/errors"
	"github.com/alxayo/boltgo/internal/logger"
)

// PoolHandle is the narrow, non-owning view of a connection's owning pool
// that a Connection needs to report an address-level failure: spec.md §4.4
// requires that a classified send/fetch error update pool membership
// (deactivate the address, or revoke its writer role) before it is
// re-raised to the caller, and §9 anticipates exactly this as "a handle or
// an index into a pool registry" rather than a full back-reference.
// *pool.ConnectionPool satisfies this interface; it is supplied via
// SetPoolHandle once a pool takes ownership of a Connection, keeping this
// package free of an import on pool (which already imports conn).
type PoolHandle interface {
	Deactivate(address string)
	RemoveWriter(address string)
}

// Connection is one authenticated Bolt session: a socket, the chunked
// framing buffers bound to it, and the FIFO of Responses still waiting for
// their summary. Every exported method here assumes single-threaded use —
// the pool enforces that by handing out at most one goroutine's worth of
// ownership at a time (spec.md §5).
type Connection struct {
	id              string
	address         string
	socket          net.Conn
	protocolVersion uint8
	pool            PoolHandle

	outbox *wire.Outbox
	inbox  *wire.Inbox
	packer *packstream.Packer

	responseQueue []*Response

	inUse   bool
	closed  bool
	defunct bool

	creationTimestamp     time.Time
	maxConnectionLifetime time.Duration

	serverInfo ServerInfo
	log        *logrus.Entry
}

// NewConnection wraps an already-handshaken socket. protocolVersion is the
// value Handshake returned; maxConnectionLifetime < 0 means no lifetime
// bound (spec.md §6's Infinite sentinel).
func NewConnection(socket net.Conn, address string, protocolVersion uint8, maxConnectionLifetime time.Duration) *Connection {
	outbox := wire.NewOutbox()
	packer := packstream.NewPacker(outbox)
	packer.SupportsBytes = protocolVersion >= 2
	id := uuid.NewString()

	return &Connection{
		id:                    id,
		address:               address,
		socket:                socket,
		protocolVersion:       protocolVersion,
		outbox:                outbox,
		inbox:                 wire.NewInbox(socket),
		packer:                packer,
		creationTimestamp:     time.Now(),
		maxConnectionLifetime: maxConnectionLifetime,
		serverInfo:            ServerInfo{Address: address, ProtocolVersion: protocolVersion},
		log:                   logger.WithAddress(logger.WithConnLogger(logger.Logger(), id, socket.RemoteAddr().String()), address),
	}
}

// ID returns the connection's process-local unique identifier, used to
// correlate log lines and telemetry across its lifetime (spec.md §6: a
// pool may hold many Connections to the same address, so the address
// alone can't disambiguate them in logs).
func (c *Connection) ID() string { return c.id }

// SetPoolHandle attaches the pool that owns this Connection so setDefunct
// can report address-level failures back to it. Called once by the pool
// right after dialing; a Connection used outside a pool (tests, a bare
// connector call) simply never gets one and setDefunct's pool update
// becomes a no-op.
func (c *Connection) SetPoolHandle(h PoolHandle) { c.pool = h }

// Address returns the pool-keying address string this connection was
// opened against.
func (c *Connection) Address() string { return c.address }

// ServerInfo returns the server identity/capabilities learned during Init.
func (c *Connection) ServerInfo() ServerInfo { return c.serverInfo }

// Defunct reports whether the connection suffered a fatal transport or
// protocol failure and must not be reused.
func (c *Connection) Defunct() bool { return c.defunct }

// Closed reports whether Close has already run.
func (c *Connection) Closed() bool { return c.closed }

// InUse reports the pool-ownership flag (spec.md §5): true while some
// caller holds this connection checked out.
func (c *Connection) InUse() bool { return c.inUse }

// SetInUse is called by the owning pool when it hands out or reclaims this
// connection. Connection never sets this itself.
func (c *Connection) SetInUse(v bool) { c.inUse = v }

// Timedout reports whether this connection has outlived
// maxConnectionLifetime (spec.md §5: "0 <= max_connection_lifetime <=
// now - creation_timestamp"). A negative lifetime never expires.
func (c *Connection) Timedout() bool {
	if c.maxConnectionLifetime < 0 {
		return false
	}
	return c.maxConnectionLifetime <= time.Since(c.creationTimestamp)
}

// Init authenticates the session, sending HELLO on protocol >= 3 or the
// legacy two-field INIT otherwise, and blocks for the SUCCESS/FAILURE
// summary.
func (c *Connection) Init(userAgent string, authToken map[string]any) error {
	var fields []any
	if c.protocolVersion >= 3 {
		meta := make(map[string]any, len(authToken)+1)
		for k, v := range authToken {
			meta[k] = v
		}
		meta["user_agent"] = userAgent
		fields = []any{meta}
	} else {
		fields = []any{userAgent, authToken}
	}

	resp := newResponse(c, Handlers{
		OnSuccess: func(metadata map[string]any) {
			if agent, ok := metadata["server"].(string); ok {
				c.serverInfo.Agent = agent
			}
			c.serverInfo.Metadata = metadata
		},
	}, kindInit)

	if err := c.appendMessage(resp, sigInitOrHello, fields...); err != nil {
		return err
	}
	return c.sync()
}

// Run sends a Cypher statement for execution. opts is only honored on
// protocol >= 3, which is the first version to carry per-request metadata
// (spec.md §6's tx_metadata capability).
func (c *Connection) Run(statement string, parameters map[string]any, opts TxOptions, handlers Handlers) error {
	if parameters == nil {
		parameters = map[string]any{}
	}
	resp := newResponse(c, handlers, kindPlain)
	if c.protocolVersion >= 3 {
		return c.appendMessage(resp, sigRun, statement, parameters, buildExtra(opts))
	}
	return c.appendMessage(resp, sigRun, statement, parameters)
}

// PullAll requests every remaining result record plus the closing summary.
func (c *Connection) PullAll(handlers Handlers) error {
	return c.appendMessage(newResponse(c, handlers, kindPlain), sigPullAll)
}

// DiscardAll discards every remaining result record, keeping only the
// closing summary.
func (c *Connection) DiscardAll(handlers Handlers) error {
	return c.appendMessage(newResponse(c, handlers, kindPlain), sigDiscardAll)
}

// Begin opens an explicit transaction. On protocol >= 3 this is a BEGIN
// message. Below that, the wire has no BEGIN/third extra field at all, so
// the original driver's quirk is preserved verbatim: the bookmarks dict is
// sent positionally as RUN("BEGIN", ...)'s *parameters* field, followed by
// a DISCARD_ALL, and the same handlers are subscribed to both messages —
// meaning a caller's on_success (etc.) fires twice for one logical Begin.
func (c *Connection) Begin(opts TxOptions, handlers Handlers) error {
	extra := buildExtra(opts)
	if c.protocolVersion >= 3 {
		return c.appendMessage(newResponse(c, handlers, kindPlain), sigBegin, extra)
	}
	if c.protocolVersion < 2 {
		if lb := lastBookmark(opts.Bookmarks); lb != "" {
			extra["bookmark"] = lb
		}
	}
	if err := c.appendMessage(newResponse(c, handlers, kindPlain), sigRun, "BEGIN", extra); err != nil {
		return err
	}
	return c.appendMessage(newResponse(c, handlers, kindPlain), sigDiscardAll)
}

// Commit closes the current transaction. protocol >= 3 sends COMMIT
// directly; earlier versions emulate it with RUN("COMMIT")+PULL_ALL so the
// bookmark still arrives in the summary metadata. Both legs are tagged
// kindCommit so a defunct connection mid-commit raises
// IncompleteCommitError instead of plain ServiceUnavailable.
func (c *Connection) Commit(handlers Handlers) error {
	if c.protocolVersion >= 3 {
		return c.appendMessage(newResponse(c, handlers, kindCommit), sigCommit)
	}
	if err := c.appendMessage(newResponse(c, handlers, kindCommit), sigRun, "COMMIT", map[string]any{}); err != nil {
		return err
	}
	return c.appendMessage(newResponse(c, handlers, kindCommit), sigPullAll)
}

// Rollback discards the current transaction.
func (c *Connection) Rollback(handlers Handlers) error {
	if c.protocolVersion >= 3 {
		return c.appendMessage(newResponse(c, handlers, kindPlain), sigRollback)
	}
	if err := c.appendMessage(newResponse(c, handlers, kindPlain), sigRun, "ROLLBACK", map[string]any{}); err != nil {
		return err
	}
	return c.appendMessage(newResponse(c, handlers, kindPlain), sigDiscardAll)
}

// Reset forces the server-side session back to a clean READY state and
// drains it synchronously: the RESET message's own Response is kindReset,
// which on FAILURE raises ProtocolError directly instead of recursively
// resetting (spec.md §4.5, diverging from the original driver's literal
// recursive-reset-on-reset-failure to avoid unbounded recursion against an
// uncooperative server — see DESIGN.md).
func (c *Connection) Reset() error {
	if c.closed || c.defunct {
		return nil
	}
	if err := c.appendMessage(newResponse(c, Handlers{}, kindReset), sigReset); err != nil {
		return err
	}
	if err := c.sendAll(); err != nil {
		return err
	}
	return c.fetchAll()
}

// Goodbye sends the best-effort GOODBYE message (protocol >= 3 only); the
// server never replies, so no Response is queued for it.
func (c *Connection) Goodbye() error {
	if c.protocolVersion < 3 || c.closed || c.defunct {
		return nil
	}
	if err := c.packer.PackStruct(sigGoodbye); err != nil {
		return boltErrors.NewProtocolError("connection.goodbye", err)
	}
	c.outbox.Chunk()
	return c.sendAll()
}

// Close sends GOODBYE (best effort) and closes the underlying socket. Safe
// to call more than once.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	_ = c.Goodbye()
	c.closed = true
	return c.socket.Close()
}

// Sync flushes every appended-but-unsent message and blocks until every
// queued Response has received its summary.
func (c *Connection) Sync() error {
	if err := c.sendAll(); err != nil {
		return err
	}
	return c.fetchAll()
}

func (c *Connection) sync() error { return c.Sync() }

// appendMessage packs one Bolt structure into the Outbox, terminates it
// with a zero-length chunk, and queues resp to receive its reply. Multiple
// appended messages accumulate in the Outbox until sendAll flushes them in
// one write (pipelining RUN immediately followed by PULL_ALL, for example).
func (c *Connection) appendMessage(resp *Response, signature byte, fields ...any) error {
	if err := c.packer.PackStruct(signature, fields...); err != nil {
		return boltErrors.NewProtocolError("connection.append", err)
	}
	c.outbox.Chunk()
	c.responseQueue = append(c.responseQueue, resp)
	return nil
}

// errAlreadyClosed backs sendAll's fail-fast guard (spec.md §4.4: send_all
// "fails fast with ServiceUnavailable if the connection is _closed or
// _defunct"). It never reaches the socket, unlike a write against an
// already-closed file descriptor.
var errAlreadyClosed = errors.New("connection is closed or defunct")

func (c *Connection) sendAll() error {
	if c.closed || c.defunct {
		return boltErrors.NewServiceUnavailable("connection.send", errAlreadyClosed)
	}
	if c.outbox.Empty() {
		return nil
	}
	if _, err := c.socket.Write(c.outbox.View()); err != nil {
		return c.setDefunct(err)
	}
	c.outbox.Clear()
	return nil
}

// fetchMessage reads exactly one wire message and dispatches it to the
// queue head. The head is popped before its summary is dispatched, not
// after: a handler that calls back into the connection (Reset's automatic
// recovery on FAILURE) must see a queue that already reflects this
// message's completion, or it would corrupt FIFO ordering for whatever it
// appends next.
func (c *Connection) fetchMessage() error {
	msg, err := c.inbox.Next()
	if err != nil {
		return c.setDefunct(err)
	}
	if len(c.responseQueue) == 0 {
		return c.setDefunct(errors.New("message received with no pending response"))
	}

	head := c.responseQueue[0]
	if msg.IsDetail {
		head.dispatchRecords(msg.Details)
		return nil
	}

	c.responseQueue = c.responseQueue[1:]
	return head.dispatchSummary(msg.Signature, msg.Metadata)
}

// fetchAll drains the response queue, returning the first error
// encountered. A fatal (defunct) error stops the drain immediately; a
// per-message error (e.g. a CypherError from one FAILURE among several
// pipelined messages) does not, so later IGNORED/SUCCESS summaries still
// get consumed and the queue never desyncs.
func (c *Connection) fetchAll() error {
	var firstErr error
	for len(c.responseQueue) > 0 {
		if err := c.fetchMessage(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if c.defunct {
				break
			}
		}
	}
	return firstErr
}

// setDefunct transitions the connection to its terminal failure state and
// classifies the error for the caller: a connection that dies with a
// CommitResponse still outstanding can't tell whether the commit reached
// durable storage, so that case raises IncompleteCommitError instead of
// plain ServiceUnavailable (spec.md §4.4).
func (c *Connection) setDefunct(cause error) error {
	if c.defunct {
		return cause
	}
	c.defunct = true
	_ = c.socket.Close()

	incomplete := false
	for _, resp := range c.responseQueue {
		if resp.IsCommit() {
			incomplete = true
			break
		}
	}
	c.responseQueue = nil

	c.log.WithField("cause", cause).Warn("connection marked defunct")

	var result error
	if incomplete {
		result = boltErrors.NewIncompleteCommitError("connection.defunct", cause)
	} else {
		result = boltErrors.NewServiceUnavailable("connection.defunct", cause)
	}

	// Pool membership is updated before the error is re-raised (spec.md
	// §4.4, §7): a deactivated address must not hand out its remaining idle
	// connections to a later Acquire.
	if c.pool != nil {
		if boltErrors.ShouldDeactivate(result) {
			c.pool.Deactivate(c.address)
		}
		if boltErrors.ShouldRemoveWriter(result) {
			c.pool.RemoveWriter(c.address)
		}
	}

	return result
}
