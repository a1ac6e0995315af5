package app

import "errors"

// Sentinel kinds for orchestration errors. These allow errors.Is from callers.
var (
	// ErrSuperseded marks an aggregation whose result was discarded because
	// a newer invocation started before it settled.
	ErrSuperseded = errors.New("aggregation superseded by a newer request")

	// ErrStopped marks operations attempted after a poller was stopped.
	ErrStopped = errors.New("poller stopped")
)
