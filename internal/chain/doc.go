// Package chain provides read-only access to subnet state snapshots
// ("metagraphs") over a single long-lived JSON-RPC WebSocket session.
//
// chain.go defines the Source interface consumed by the reconstruction
// engine, the immutable Snapshot view, and the FetchError type carried by
// failed per-(subnet, block) fetches.
//
// client.go implements Source over gorilla/websocket. Dial retries with
// jittered exponential backoff up to a bounded budget; an exhausted budget
// is fatal to the caller. Calls from concurrent goroutines are multiplexed
// over the one connection by request id.
package chain
