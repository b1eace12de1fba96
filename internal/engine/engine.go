package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SolR3/Vali-Weight-Intervals/internal/chain"
	"github.com/SolR3/Vali-Weight-Intervals/internal/resolver"
	"github.com/SolR3/Vali-Weight-Intervals/internal/series"
)

// Fetch modes for the baseline wave. Batch pins every subnet's baseline to
// one block fetched once per pass, so emission percentages come from a
// consistent wave; per-network issues independent head fetches.
const (
	FetchModeBatch      = "batch"
	FetchModePerNetwork = "per-network"
)

// Default attempt budgets. Budgets are fixed per call and passed by value;
// there is no shared retry state.
const (
	DefaultOuterAttempts = 5
	DefaultFetchAttempts = 3
)

// Options parameterizes one Engine. The zero value is not usable; New fills
// unset budgets with the defaults.
type Options struct {
	// Window is the maximum number of samples reconstructed per subnet,
	// and the bound on the merged series length.
	Window int

	// OuterAttempts bounds the passes over subnets that have produced no
	// result yet.
	OuterAttempts int

	// FetchAttempts bounds the cohort retry rounds for historical
	// snapshot fetches within one walk step.
	FetchAttempts int

	// FetchMode selects the baseline strategy: FetchModeBatch or
	// FetchModePerNetwork.
	FetchMode string

	// Cohort filters: peers must hold more than MinStake, show trust
	// above MinVtrust, and have set weights within MaxStale blocks to
	// count toward the comparison average.
	MinStake  float64
	MinVtrust float64
	MaxStale  int64
}

// Engine reconstructs per-subnet weight-interval series from a chain
// source. It holds no mutable state across Gather calls.
type Engine struct {
	source   chain.Source
	resolver resolver.Resolver
	opts     Options
}

// New returns an Engine over source. Unset attempt budgets in opts are
// replaced with the defaults; an unset fetch mode becomes batch.
func New(source chain.Source, res resolver.Resolver, opts Options) *Engine {
	if opts.OuterAttempts <= 0 {
		opts.OuterAttempts = DefaultOuterAttempts
	}
	if opts.FetchAttempts <= 0 {
		opts.FetchAttempts = DefaultFetchAttempts
	}
	if opts.FetchMode == "" {
		opts.FetchMode = FetchModeBatch
	}
	return &Engine{source: source, resolver: res, opts: opts}
}

// Gather reconstructs up to Window samples per subnet, walking backward
// from each subnet's latest snapshot, then merges each result with its
// cached series from existing and truncates to the window.
//
// Failures are local: a subnet that cannot be reconstructed is simply
// absent from the returned map, and a walk cut short keeps every sample
// collected before the cut. Gather returns whatever it has when ctx is
// cancelled.
func (e *Engine) Gather(ctx context.Context, netuids []int, existing map[int]*series.ValidatorSeries) map[int]*series.ValidatorSeries {
	start := time.Now()
	results := make(map[int]*series.ValidatorSeries, len(netuids))

	remaining := netuids
	for attempt := 1; attempt <= e.opts.OuterAttempts && len(remaining) > 0; attempt++ {
		if ctx.Err() != nil {
			break
		}
		slog.Info("engine: gathering",
			"attempt", attempt, "max_attempts", e.opts.OuterAttempts, "subnets", len(remaining))

		e.gatherPass(ctx, remaining, existing, results)

		var failed []int
		for _, n := range remaining {
			if _, ok := results[n]; !ok {
				failed = append(failed, n)
			}
		}
		remaining = failed
	}
	if len(remaining) > 0 {
		slog.Warn("engine: no data for some subnets after all attempts", "netuids", remaining)
	}

	for n, vs := range results {
		results[n] = series.Merge(vs, existing[n], e.opts.Window)
	}

	slog.Info("engine: gather finished",
		"subnets", len(results), "elapsed", time.Since(start).Round(time.Second))
	return results
}

// gatherPass runs one baseline wave plus the backward walk for the given
// subnets, recording fresh series into results. Subnets whose baseline
// fetch fails are left out of results so the next outer attempt retries
// them.
func (e *Engine) gatherPass(ctx context.Context, netuids []int, existing map[int]*series.ValidatorSeries, results map[int]*series.ValidatorSeries) {
	baselines := e.baselineWave(ctx, netuids)

	// last tracks each active subnet's most recent weight-set block; the
	// walk fetches the state one block before it each step.
	last := make(map[int]int64, len(netuids))
	stop := make(map[int]int64, len(netuids))
	var active []int

	for i, netuid := range netuids {
		snap := baselines[i]
		if snap == nil {
			continue
		}

		emission := snap.TaoInEmission * 100
		results[netuid] = &series.ValidatorSeries{SubnetEmission: &emission}

		uid, err := e.resolver.Resolve(snap)
		if err != nil {
			slog.Warn("engine: validator not running on subnet", "netuid", netuid)
			continue
		}
		if uid >= len(snap.LastUpdate) {
			slog.Warn("engine: baseline snapshot arrays inconsistent with resolved uid",
				"netuid", netuid, "uid", uid)
			continue
		}

		last[netuid] = snap.LastUpdate[uid]
		stop[netuid] = stopBoundary(existing[netuid])
		active = append(active, netuid)
	}

	for step := 0; step < e.opts.Window; step++ {
		var current []int
		for _, n := range active {
			if last[n] > stop[n] {
				current = append(current, n)
			}
		}
		if len(current) == 0 || ctx.Err() != nil {
			return
		}

		snaps := e.fetchWave(ctx, current, last)

		active = active[:0]
		for _, netuid := range current {
			snap := snaps[netuid]
			if snap == nil {
				slog.Warn("engine: abandoning walk, snapshot unavailable",
					"netuid", netuid, "block", last[netuid]-1,
					"collected", results[netuid].Len())
				continue
			}

			metric, prev, ok := e.extract(snap, last[netuid])
			if !ok {
				slog.Warn("engine: stopping walk, validator absent from history",
					"netuid", netuid, "block", snap.Block,
					"collected", results[netuid].Len())
				continue
			}

			vs := results[netuid]
			vs.Blocks = append(vs.Blocks, last[netuid])
			vs.BlockData = append(vs.BlockData, metric)
			last[netuid] = prev
			active = append(active, netuid)
		}
	}
}

// baselineWave fetches every subnet's baseline snapshot concurrently.
// The returned slice is index-aligned with netuids; nil marks a failed
// fetch. In batch mode all snapshots are pinned to one head block.
func (e *Engine) baselineWave(ctx context.Context, netuids []int) []*chain.Snapshot {
	snaps := make([]*chain.Snapshot, len(netuids))

	fetch := e.source.LatestSnapshot
	if e.opts.FetchMode == FetchModeBatch {
		block, err := e.source.LatestBlock(ctx)
		if err != nil {
			slog.Warn("engine: latest block fetch failed", "err", err)
			return snaps
		}
		fetch = func(ctx context.Context, netuid int) (*chain.Snapshot, error) {
			return e.source.SnapshotAt(ctx, netuid, block)
		}
	}

	var wg sync.WaitGroup
	for i, netuid := range netuids {
		wg.Add(1)
		go func(i, netuid int) {
			defer wg.Done()
			snap, err := fetch(ctx, netuid)
			if err != nil {
				slog.Warn("engine: baseline fetch failed", "netuid", netuid, "err", err)
				return
			}
			snaps[i] = snap
		}(i, netuid)
	}
	wg.Wait()
	return snaps
}

// fetchWave fetches, for every subnet in netuids, the snapshot one block
// before that subnet's last recorded weight update. Pairs that fail are
// re-issued for up to FetchAttempts rounds; pairs that succeeded are never
// fetched twice. Subnets still missing after the last round are absent from
// the returned map.
func (e *Engine) fetchWave(ctx context.Context, netuids []int, last map[int]int64) map[int]*chain.Snapshot {
	got := make(map[int]*chain.Snapshot, len(netuids))

	remaining := netuids
	for round := 1; round <= e.opts.FetchAttempts && len(remaining) > 0; round++ {
		if ctx.Err() != nil {
			break
		}

		snaps := make([]*chain.Snapshot, len(remaining))
		var wg sync.WaitGroup
		for i, netuid := range remaining {
			wg.Add(1)
			go func(i, netuid int) {
				defer wg.Done()
				block := last[netuid] - 1
				snap, err := e.source.SnapshotAt(ctx, netuid, block)
				if err != nil {
					slog.Debug("engine: snapshot fetch failed",
						"netuid", netuid, "block", block, "round", round, "err", err)
					return
				}
				snaps[i] = snap
			}(i, netuid)
		}
		wg.Wait()

		var failed []int
		for i, netuid := range remaining {
			if snaps[i] != nil {
				got[netuid] = snaps[i]
			} else {
				failed = append(failed, netuid)
			}
		}
		remaining = failed
	}
	return got
}

// stopBoundary returns the block at which the fresh walk may stop for a
// subnet: the most recent cached block when one exists, else zero. A cache
// entry without blocks carries nothing to resume from and counts as absent.
func stopBoundary(cached *series.ValidatorSeries) int64 {
	if cached != nil && len(cached.Blocks) > 0 {
		return cached.Blocks[0]
	}
	return 0
}
