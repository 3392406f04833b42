// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long a server waits for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// Interpretation caps a single call to the interpretation collaborator.
// Readings wait on it, so it is longer than the other request budgets.
const Interpretation = 45 * time.Second

// Storage caps a single persistence call made while serving a request.
const Storage = 3 * time.Second

// WorkerRun caps one scheduled journal advancement pass.
const WorkerRun = time.Minute
