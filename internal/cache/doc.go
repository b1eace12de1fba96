// Package cache persists reconstructed series as one JSON file per subnet
// (validator_data.<netuid>.json). Loaded series supply the resume boundary
// for the next run's backward walk and the suffix merged after the fresh
// prefix.
package cache
