// Package timeouts defines shared timeout constants used across the service.
// Centralizing these values prevents drift between process boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// HealthProbe caps a single gRPC health check round trip.
const HealthProbe = 2 * time.Second

// StoreRetryBackoff is the pause before retrying a batch write that lost an
// optimistic-concurrency race.
const StoreRetryBackoff = 50 * time.Millisecond
