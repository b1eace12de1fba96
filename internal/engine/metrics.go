package engine

import (
	"github.com/SolR3/Vali-Weight-Intervals/internal/chain"
	"github.com/SolR3/Vali-Weight-Intervals/internal/series"
)

// extract pulls the tracked validator's sample out of snap. last is the
// block whose weight update is being sampled; snap holds the state one
// block before it, so snap's last-update value is the previous update and
// last minus it is the interval.
//
// Returns ok=false when the validator cannot be resolved in snap or when
// the snapshot's arrays are inconsistent with the resolved uid (version
// skew on old runtimes). The caller stops that subnet's walk and keeps the
// samples already collected.
func (e *Engine) extract(snap *chain.Snapshot, last int64) (series.BlockMetric, int64, bool) {
	uid, err := e.resolver.Resolve(snap)
	if err != nil {
		return series.BlockMetric{}, 0, false
	}
	if !consistent(snap, uid) {
		return series.BlockMetric{}, 0, false
	}

	prev := snap.LastUpdate[uid]
	metric := series.BlockMetric{
		Emission:  snap.Emission[uid],
		Vtrust:    snap.Trust[uid],
		AvgVtrust: e.cohortAverage(snap, uid, last),
		Updated:   last - prev,
	}
	return metric, prev, true
}

// consistent reports whether the snapshot's parallel arrays all cover uid.
// Historical snapshots decoded from older runtime versions occasionally
// come back with mismatched array lengths.
func consistent(snap *chain.Snapshot, uid int) bool {
	n := len(snap.Stake)
	if uid >= n {
		return false
	}
	return len(snap.Trust) == n && len(snap.Emission) == n && len(snap.LastUpdate) == n
}

// cohortAverage returns the mean trust over the qualifying peer cohort:
// every participant other than uid whose stake exceeds MinStake, whose
// trust exceeds MinVtrust, and whose own last update is within MaxStale
// blocks of last. Returns nil when no peer qualifies: an empty cohort
// means there is nothing to compare against, which is not the same as a
// low-trust cohort.
func (e *Engine) cohortAverage(snap *chain.Snapshot, uid int, last int64) *float64 {
	var sum float64
	var count int
	for i := range snap.Stake {
		if i == uid || snap.Stake[i] <= e.opts.MinStake {
			continue
		}
		if snap.Trust[i] > e.opts.MinVtrust && last-snap.LastUpdate[i] < e.opts.MaxStale {
			sum += snap.Trust[i]
			count++
		}
	}
	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}
