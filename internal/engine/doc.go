// Package engine reconstructs a bounded window of weight-update samples per
// subnet by walking backward through historical snapshots.
//
// engine.go owns the orchestration: up to five outer passes over the subnet
// set, a concurrent baseline wave per pass, and the per-step fetch wave with
// cohort-narrowing retries (failed (subnet, block) pairs are re-issued, up
// to three rounds; successes are never refetched). Each subnet's walk is
// strictly sequential (step i+1 needs the last-update block uncovered by
// step i) while different subnets advance concurrently.
//
// metrics.go extracts the per-sample values and computes the peer-cohort
// trust average.
//
// Per-subnet failures (deregistration mid-history, exhausted fetch budget,
// version-skewed arrays) abandon only that subnet's remaining walk; samples
// already collected are always kept and merged with the cached suffix.
package engine
