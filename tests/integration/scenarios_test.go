package integration

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alxayo/boltgo/internal/bolt/address"
	"github.com/alxayo/boltgo/internal/bolt/conn"
	"github.com/alxayo/boltgo/internal/bolt/pool"
	"github.com/alxayo/boltgo/internal/bolt/wire"
	"github.com/alxayo/boltgo/internal/config"
	boltErrors "github.com/alxayo/boltgo/internal/errors"
)

func testPoolConfig(maxSize, acquisitionTimeoutSeconds int) *config.Config {
	cfg := config.Default()
	cfg.MaxConnectionPoolSize = maxSize
	cfg.ConnectionAcquisitionTimeout = acquisitionTimeoutSeconds
	cfg.MaxConnectionLifetime = config.Infinite
	return cfg
}

// dialAndHandshake dials addr, runs the real client-side handshake, and
// returns the negotiated protocol version along with the open socket.
func dialAndHandshake(t *testing.T, addr string) (net.Conn, uint8) {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	version, err := wire.Handshake(c)
	require.NoError(t, err)
	return c, version
}

func TestScenario_EmptySession(t *testing.T) {
	addr, accepted := listenOnePeer(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv := newFakeServer(t, <-accepted)
		srv.handshake(3)
		req := srv.recv() // HELLO
		assert.Equal(t, sigInitOrHello, req.signature)
		srv.sendSuccess(map[string]any{"server": "Neo4j/4.4.0"})

		req = srv.recv() // GOODBYE
		assert.Equal(t, sigGoodbye, req.signature)
	}()

	clientConn, version := dialAndHandshake(t, addr)
	c := conn.NewConnection(clientConn, addr, version, -1)
	require.NoError(t, c.Init("boltgo-test/1.0", map[string]any{"scheme": "basic", "principal": "neo4j", "credentials": "secret"}))
	assert.Equal(t, "Neo4j/4.4.0", c.ServerInfo().Agent)
	require.NoError(t, c.Close())
	<-done
}

func TestScenario_AutocommitReturn1(t *testing.T) {
	addr, accepted := listenOnePeer(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv := newFakeServer(t, <-accepted)
		srv.handshake(3)
		srv.recv() // HELLO
		srv.sendSuccess(map[string]any{"server": "Neo4j/4.4.0"})

		srv.recv() // RUN
		srv.sendSuccess(map[string]any{"fields": []any{"1"}})
		srv.recv() // PULL_ALL
		srv.sendRecord([]any{int64(1)})
		srv.sendSuccess(map[string]any{"bookmark": "tx:1"})
	}()

	clientConn, version := dialAndHandshake(t, addr)
	c := conn.NewConnection(clientConn, addr, version, -1)
	require.NoError(t, c.Init("boltgo-test/1.0", map[string]any{}))

	var records [][]any
	var summary map[string]any
	require.NoError(t, c.Run("RETURN 1", nil, conn.TxOptions{}, conn.Handlers{}))
	require.NoError(t, c.PullAll(conn.Handlers{
		OnRecords: func(details []any) { records = append(records, details[0].([]any)) },
		OnSuccess: func(metadata map[string]any) { summary = metadata },
	}))
	require.NoError(t, c.Sync())

	require.Len(t, records, 1)
	assert.Equal(t, int64(1), records[0][0])
	assert.Equal(t, "tx:1", summary["bookmark"])
	<-done
}

func TestScenario_ExplicitTransactionCommit(t *testing.T) {
	addr, accepted := listenOnePeer(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv := newFakeServer(t, <-accepted)
		srv.handshake(3)
		srv.recv() // HELLO
		srv.sendSuccess(nil)

		req := srv.recv() // BEGIN
		assert.Equal(t, sigBegin, req.signature)
		srv.sendSuccess(nil)

		srv.recv() // RUN
		srv.sendSuccess(map[string]any{"fields": []any{}})
		srv.recv() // PULL_ALL
		srv.sendSuccess(nil)

		req = srv.recv() // COMMIT
		assert.Equal(t, sigCommit, req.signature)
		srv.sendSuccess(map[string]any{"bookmark": "tx:2"})
	}()

	clientConn, version := dialAndHandshake(t, addr)
	c := conn.NewConnection(clientConn, addr, version, -1)
	require.NoError(t, c.Init("boltgo-test/1.0", map[string]any{}))

	require.NoError(t, c.Begin(conn.TxOptions{TimeoutSeconds: 5}, conn.Handlers{}))
	require.NoError(t, c.Run("CREATE (n)", nil, conn.TxOptions{}, conn.Handlers{}))
	require.NoError(t, c.PullAll(conn.Handlers{}))

	var bookmark string
	require.NoError(t, c.Commit(conn.Handlers{
		OnSuccess: func(metadata map[string]any) { bookmark = metadata["bookmark"].(string) },
	}))
	require.NoError(t, c.Sync())
	assert.Equal(t, "tx:2", bookmark)
	<-done
}

// TestScenario_DisconnectDuringRunIsServiceUnavailable drives the failure
// through a real ConnectionPool (rather than a bare Connection) so the
// pool-membership update spec.md §4.4/§7 requires is observable: once the
// connection goes defunct mid-RUN, the pool must deactivate its address, so
// a later Acquire for that same address fails fast with ServiceUnavailable
// instead of dialing a fresh socket (spec.md §8 scenario 5).
func TestScenario_DisconnectDuringRunIsServiceUnavailable(t *testing.T) {
	addr, accepted := listenOnePeer(t)
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	go func() {
		serverConn := <-accepted
		srv := newFakeServer(t, serverConn)
		srv.handshake(3)
		srv.recv() // HELLO
		srv.sendSuccess(nil)
		srv.recv() // RUN
		_ = serverConn.Close()
	}()

	connector := func(ctx context.Context, resolved address.Address) (*conn.Connection, error) {
		clientConn, version := dialAndHandshake(t, resolved.DialTarget())
		c := conn.NewConnection(clientConn, resolved.Key(), version, -1)
		if err := c.Init("boltgo-test/1.0", map[string]any{}); err != nil {
			return nil, err
		}
		return c, nil
	}

	p := pool.New(testPoolConfig(1, 2), address.DefaultResolver{}, connector)
	defer p.Close()

	target := address.Address{Host: host, Port: port}

	c, err := p.Acquire(context.Background(), target)
	require.NoError(t, err)

	require.NoError(t, c.Run("RETURN 1", nil, conn.TxOptions{}, conn.Handlers{}))
	syncErr := c.Sync()
	require.Error(t, syncErr)
	assert.True(t, boltErrors.IsServiceUnavailable(syncErr))
	assert.True(t, c.Defunct())
	p.Release(c)

	_, err = p.Acquire(context.Background(), target)
	require.Error(t, err, "pool should have deactivated the address setDefunct reported failing")
	assert.True(t, boltErrors.IsServiceUnavailable(err))
}

func TestScenario_ConnectionErrorDuringCommitIsIncomplete(t *testing.T) {
	addr, accepted := listenOnePeer(t)

	go func() {
		serverConn := <-accepted
		srv := newFakeServer(t, serverConn)
		srv.handshake(3)
		srv.recv() // HELLO
		srv.sendSuccess(nil)
		srv.recv() // COMMIT
		_ = serverConn.Close()
	}()

	clientConn, version := dialAndHandshake(t, addr)
	c := conn.NewConnection(clientConn, addr, version, -1)
	require.NoError(t, c.Init("boltgo-test/1.0", map[string]any{}))

	require.NoError(t, c.Commit(conn.Handlers{}))
	err := c.Sync()
	require.Error(t, err)
	assert.True(t, boltErrors.IsIncompleteCommit(err))
}

// TestScenario_PoolSaturationAndConcurrentUse drives the full
// address -> pool -> connector -> handshake -> Init stack: a cap of one
// connection forces the second concurrent Acquire to wait, then succeed
// once the first is Released.
func TestScenario_PoolSaturationAndConcurrentUse(t *testing.T) {
	addr, accepted := listenOnePeer(t)
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	go func() {
		srv := newFakeServer(t, <-accepted)
		srv.handshake(3)
		srv.recv() // HELLO
		srv.sendSuccess(map[string]any{"server": "Neo4j/4.4.0"})
	}()

	connector := func(ctx context.Context, resolved address.Address) (*conn.Connection, error) {
		clientConn, version := dialAndHandshake(t, resolved.DialTarget())
		c := conn.NewConnection(clientConn, resolved.Key(), version, -1)
		if err := c.Init("boltgo-test/1.0", map[string]any{}); err != nil {
			return nil, err
		}
		return c, nil
	}

	p := pool.New(testPoolConfig(1, 2), address.DefaultResolver{}, connector)
	defer p.Close()

	target := address.Address{Host: host, Port: port}

	c1, err := p.Acquire(context.Background(), target)
	require.NoError(t, err)

	acquired := make(chan *conn.Connection, 1)
	go func() {
		c, err := p.Acquire(context.Background(), target)
		if err == nil {
			acquired <- c
		}
	}()

	time.Sleep(50 * time.Millisecond)
	select {
	case <-acquired:
		t.Fatal("second Acquire should have blocked at the pool cap")
	default:
	}

	p.Release(c1)

	select {
	case c2 := <-acquired:
		assert.Same(t, c1, c2)
	case <-time.After(2 * time.Second):
		t.Fatal("Release did not wake the waiting Acquire")
	}
}
