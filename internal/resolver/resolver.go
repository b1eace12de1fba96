// Package resolver locates the tracked validator's UID within a snapshot.
package resolver

import (
	"errors"

	"github.com/SolR3/Vali-Weight-Intervals/internal/chain"
)

// ErrNotFound is returned when the tracked validator is absent from a
// snapshot's participant directory. Callers treat this as "not registered
// on that subnet (anymore)", not as a fetch failure.
var ErrNotFound = errors.New("resolver: tracked validator not found")

// Resolver resolves the tracked validator's UID in a snapshot.
//
// The validator is identified by its coldkey. On subnets where it is
// registered under multiple UIDs the coldkey is ambiguous, so a per-subnet
// hotkey override pins the exact registration; the override wins even when
// the default coldkey also matches.
//
// UIDs are not stable across snapshots. Resolve must be called again for
// every snapshot, never cached.
type Resolver struct {
	Coldkey         string
	HotkeyOverrides map[int]string
}

// Resolve returns the tracked validator's UID in snap, or ErrNotFound.
func (r Resolver) Resolve(snap *chain.Snapshot) (int, error) {
	if hotkey, ok := r.HotkeyOverrides[snap.Netuid]; ok {
		return indexOf(snap.Hotkeys, hotkey)
	}
	return indexOf(snap.Coldkeys, r.Coldkey)
}

func indexOf(keys []string, want string) (int, error) {
	for i, k := range keys {
		if k == want {
			return i, nil
		}
	}
	return 0, ErrNotFound
}
