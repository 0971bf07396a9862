// Package logger provides the process-wide structured logger used across
// the Bolt core, built on logrus so field-heavy per-connection/per-message
// logging stays cheap and greppable in production.
package logger

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Environment variable name for log level configuration.
const envLogLevel = "BOLT_LOG_LEVEL"

var (
	global   *logrus.Logger
	initOnce sync.Once

	// Optional flag (users may pass -log.level=debug). If flag.Parse() hasn't
	// yet been called when Init is invoked, we still read the raw os.Args.
	flagLevel = flag.String("log.level", "", "log level (debug, info, warn, error)")
)

// Init initializes the global logger. Safe to call multiple times; the
// first call wins except SetLevel/UseWriter, which mutate state
// intentionally.
func Init() {
	initOnce.Do(func() {
		global = logrus.New()
		global.SetFormatter(&logrus.JSONFormatter{})
		global.SetOutput(os.Stdout)
		global.SetLevel(detectLevel())
	})
}

// detectLevel resolves the initial log level from (precedence high→low):
//  1. command-line flag -log.level
//  2. environment variable BOLT_LOG_LEVEL
//  3. default (info)
func detectLevel() logrus.Level {
	if *flagLevel == "" {
		for _, arg := range os.Args[1:] {
			if strings.HasPrefix(arg, "-log.level=") {
				parts := strings.SplitN(arg, "=", 2)
				if len(parts) == 2 {
					*flagLevel = parts[1]
				}
			}
		}
	}
	if f := strings.TrimSpace(*flagLevel); f != "" {
		if lvl, ok := parseLevel(f); ok {
			return lvl
		}
	}
	if env := os.Getenv(envLogLevel); env != "" {
		if lvl, ok := parseLevel(env); ok {
			return lvl
		}
	}
	return logrus.InfoLevel
}

func parseLevel(s string) (logrus.Level, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "debug":
		return logrus.DebugLevel, true
	case "info", "":
		return logrus.InfoLevel, true
	case "warn", "warning":
		return logrus.WarnLevel, true
	case "error", "err":
		return logrus.ErrorLevel, true
	}
	return 0, false
}

// SetLevel changes the runtime log level.
func SetLevel(level string) error {
	Init()
	lvl, ok := parseLevel(level)
	if !ok {
		return fmt.Errorf("invalid log level: %s", level)
	}
	global.SetLevel(lvl)
	return nil
}

// Level returns the current runtime level as a string.
func Level() string {
	Init()
	return global.GetLevel().String()
}

// UseWriter swaps the output writer (intended for tests). Retains the
// current level.
func UseWriter(w io.Writer) {
	Init()
	global.SetOutput(w)
}

// Logger returns the global logger (ensures Init was called).
func Logger() *logrus.Logger { Init(); return global }

// Convenience top-level logging functions, mirroring logrus.Fields-style
// key/value pairs passed as alternating arguments.
func Debug(msg string, kv ...any) { fieldsFrom(kv).Debug(msg) }
func Info(msg string, kv ...any)  { fieldsFrom(kv).Info(msg) }
func Warn(msg string, kv ...any)  { fieldsFrom(kv).Warn(msg) }
func Error(msg string, kv ...any) { fieldsFrom(kv).Error(msg) }

func fieldsFrom(kv []any) *logrus.Entry {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	return Logger().WithFields(f)
}

// WithConn attaches connection identity fields.
func WithConn(l *logrus.Entry, connID, peerAddr string) *logrus.Entry {
	return l.WithFields(logrus.Fields{"conn_id": connID, "peer_addr": peerAddr})
}

// WithConnLogger is WithConn for a bare *logrus.Logger (no prior fields).
func WithConnLogger(l *logrus.Logger, connID, peerAddr string) *logrus.Entry {
	return l.WithFields(logrus.Fields{"conn_id": connID, "peer_addr": peerAddr})
}

// WithAddress attaches the pool address key used to index a connection FIFO.
func WithAddress(l *logrus.Entry, address string) *logrus.Entry {
	return l.WithField("address", address)
}

// WithMessageMeta attaches message metadata fields for a Bolt request/reply.
func WithMessageMeta(l *logrus.Entry, signature byte, requestCount int) *logrus.Entry {
	return l.WithFields(logrus.Fields{"signature": signature, "pending_requests": requestCount})
}
