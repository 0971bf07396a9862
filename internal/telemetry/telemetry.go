// Package telemetry instruments the Bolt core with OpenTelemetry spans and
// counters. It degrades to the SDK's no-op implementations when the
// process hasn't configured a tracer/meter provider, so the core never
// requires a collector to run.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/alxayo/boltgo"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	connectionsCreated  metric.Int64Counter
	connectionsAcquired metric.Int64Counter
	recordsFetched      metric.Int64Counter
)

func init() {
	var err error
	connectionsCreated, err = meter.Int64Counter("bolt.connections.created",
		metric.WithDescription("connections dialed and handshaken by the pool connector"))
	if err != nil {
		connectionsCreated, _ = meter.Int64Counter("bolt.connections.created")
	}
	connectionsAcquired, err = meter.Int64Counter("bolt.connections.acquired",
		metric.WithDescription("successful ConnectionPool.Acquire calls"))
	if err != nil {
		connectionsAcquired, _ = meter.Int64Counter("bolt.connections.acquired")
	}
	recordsFetched, err = meter.Int64Counter("bolt.records.fetched",
		metric.WithDescription("RECORD messages delivered to a Response"))
	if err != nil {
		recordsFetched, _ = meter.Int64Counter("bolt.records.fetched")
	}
}

// StartHandshake opens a span covering dial + TLS wrap + version
// negotiation + INIT/HELLO for one Connection.
func StartHandshake(ctx context.Context, address string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "bolt.connect",
		trace.WithAttributes(attribute.String("bolt.address", address)))
	return ctx, span
}

// RecordConnectionCreated increments the connections-created counter once
// a Connection successfully leaves the handshake.
func RecordConnectionCreated(ctx context.Context, address string) {
	connectionsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("bolt.address", address)))
}

// StartAcquire opens a span covering one ConnectionPool.Acquire call.
func StartAcquire(ctx context.Context, address string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "bolt.pool.acquire",
		trace.WithAttributes(attribute.String("bolt.address", address)))
	return ctx, span
}

// RecordConnectionAcquired increments the connections-acquired counter.
func RecordConnectionAcquired(ctx context.Context, address string) {
	connectionsAcquired.Add(ctx, 1, metric.WithAttributes(attribute.String("bolt.address", address)))
}

// RecordFetched adds n to the records-fetched counter for address.
func RecordFetched(ctx context.Context, address string, n int) {
	if n <= 0 {
		return
	}
	recordsFetched.Add(ctx, int64(n), metric.WithAttributes(attribute.String("bolt.address", address)))
}
