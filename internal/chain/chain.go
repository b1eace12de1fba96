package chain

import (
	"context"
	"fmt"
)

// Snapshot is an immutable view of one subnet's participant state at a
// single block. The per-participant arrays are parallel and indexed by UID.
// A UID is only meaningful within the snapshot it was resolved against;
// registrations churn between blocks.
type Snapshot struct {
	Netuid int
	Block  int64

	// Stake is each participant's total stake in tao.
	Stake []float64

	// Trust is each participant's validator trust, in [0, 1].
	Trust []float64

	// Emission is each participant's emission share.
	Emission []float64

	// LastUpdate is the block at which each participant's weights were
	// last recorded.
	LastUpdate []int64

	Hotkeys  []string
	Coldkeys []string

	// TaoInEmission is the subnet's fraction of total chain emission, in [0, 1].
	TaoInEmission float64
}

// Source supplies point-in-time subnet snapshots. Implementations must be
// safe for concurrent use; the engine fans snapshot fetches out across
// subnets.
type Source interface {
	// LatestBlock returns the current chain head block number.
	LatestBlock(ctx context.Context) (int64, error)

	// LatestSnapshot returns the subnet's state at the chain head.
	LatestSnapshot(ctx context.Context, netuid int) (*Snapshot, error)

	// SnapshotAt returns the subnet's state at the given block.
	SnapshotAt(ctx context.Context, netuid int, block int64) (*Snapshot, error)
}

// FetchError reports a failed snapshot fetch for one (subnet, block) pair.
// Block is -1 when the fetch targeted the chain head.
type FetchError struct {
	Netuid int
	Block  int64
	Err    error
}

func (e *FetchError) Error() string {
	if e.Block < 0 {
		return fmt.Sprintf("chain: fetch snapshot for subnet %d at head: %v", e.Netuid, e.Err)
	}
	return fmt.Sprintf("chain: fetch snapshot for subnet %d at block %d: %v", e.Netuid, e.Block, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
