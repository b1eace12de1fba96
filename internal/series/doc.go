// Package series holds the reconstructed weight-interval series model: the
// per-subnet ValidatorSeries, the cache merge and window truncation rules,
// and the wire form used by the persisted JSON files.
//
// All numeric fields are plain float64/int64; the wire structs in wire.go
// are the single normalization boundary between the core and serialized
// data.
package series
