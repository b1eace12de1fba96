package resolver

import (
	"errors"
	"testing"

	"github.com/SolR3/Vali-Weight-Intervals/internal/chain"
)

func snap(netuid int, hotkeys, coldkeys []string) *chain.Snapshot {
	return &chain.Snapshot{Netuid: netuid, Hotkeys: hotkeys, Coldkeys: coldkeys}
}

func TestResolve_DefaultColdkey(t *testing.T) {
	r := Resolver{Coldkey: "cold-x"}
	s := snap(7, []string{"h0", "h1", "h2"}, []string{"c0", "cold-x", "c2"})

	uid, err := r.Resolve(s)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if uid != 1 {
		t.Errorf("uid = %d, want 1", uid)
	}
}

func TestResolve_OverrideBeatsDefault(t *testing.T) {
	// The coldkey matches uid 0, but the subnet has a hotkey override
	// pinning uid 2; the override must win.
	r := Resolver{
		Coldkey:         "cold-x",
		HotkeyOverrides: map[int]string{7: "hot-pinned"},
	}
	s := snap(7, []string{"h0", "h1", "hot-pinned"}, []string{"cold-x", "c1", "c2"})

	uid, err := r.Resolve(s)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if uid != 2 {
		t.Errorf("uid = %d, want 2 (override)", uid)
	}
}

func TestResolve_OverrideOnlyAppliesToItsSubnet(t *testing.T) {
	r := Resolver{
		Coldkey:         "cold-x",
		HotkeyOverrides: map[int]string{20: "hot-pinned"},
	}
	s := snap(7, []string{"hot-pinned"}, []string{"c0", "cold-x"})

	uid, err := r.Resolve(s)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if uid != 1 {
		t.Errorf("uid = %d, want 1 (coldkey path)", uid)
	}
}

func TestResolve_NotFound(t *testing.T) {
	r := Resolver{Coldkey: "cold-x"}
	s := snap(7, []string{"h0"}, []string{"c0"})

	if _, err := r.Resolve(s); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolve_OverrideMissing_NotFound(t *testing.T) {
	// When the override hotkey is gone the resolver must not fall back to
	// the coldkey, which could silently pick the wrong registration.
	r := Resolver{
		Coldkey:         "cold-x",
		HotkeyOverrides: map[int]string{7: "hot-pinned"},
	}
	s := snap(7, []string{"h0"}, []string{"cold-x"})

	if _, err := r.Resolve(s); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
