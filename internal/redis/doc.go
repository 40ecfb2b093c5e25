// Package redis provides the optional cross-instance relay.
//
// NewClient builds a go-redis client with metrics and circuit breaker hooks.
// Relay publishes every envelope to a shared Pub/Sub channel after delivering
// it locally, and replays envelopes published by other instances into the local
// connection registry.
package redis
