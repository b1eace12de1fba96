package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SolR3/Vali-Weight-Intervals/internal/series"
)

func f(v float64) *float64 { return &v }

func sampleSeries() *series.ValidatorSeries {
	return &series.ValidatorSeries{
		SubnetEmission: f(5.25),
		Blocks:         []int64{1000, 700},
		BlockData: []series.BlockMetric{
			{Emission: 1.5, Vtrust: 0.9, AvgVtrust: f(0.85), Updated: 300},
			{Emission: 1.4, Vtrust: 0.88, AvgVtrust: nil, Updated: 300},
		},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	st := New(t.TempDir())

	if err := st.Save(42, sampleSeries()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := st.Load(42)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("Load: nil series after Save")
	}

	want := sampleSeries()
	if got.Len() != want.Len() {
		t.Fatalf("length = %d, want %d", got.Len(), want.Len())
	}
	if *got.SubnetEmission != *want.SubnetEmission {
		t.Errorf("SubnetEmission = %v, want %v", *got.SubnetEmission, *want.SubnetEmission)
	}
	for i := range want.Blocks {
		if got.Blocks[i] != want.Blocks[i] {
			t.Errorf("Blocks[%d] = %d, want %d", i, got.Blocks[i], want.Blocks[i])
		}
	}
	if got.BlockData[1].AvgVtrust != nil {
		t.Error("nil AvgVtrust did not survive the round trip")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	st := New(t.TempDir())

	got, err := st.Load(7)
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if got != nil {
		t.Fatal("Load on missing file should return nil series")
	}
}

func TestLoadAll_SkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	if err := st.Save(1, sampleSeries()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	bad := filepath.Join(dir, "validator_data.2.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	got := st.LoadAll([]int{1, 2, 3})

	if len(got) != 1 {
		t.Fatalf("LoadAll = %d entries, want 1", len(got))
	}
	if got[1] == nil {
		t.Error("LoadAll missing the valid entry")
	}
}

func TestNetuids_ScansDirectory(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	for _, n := range []int{23, 1, 118} {
		if err := st.Save(n, sampleSeries()); err != nil {
			t.Fatalf("Save %d: %v", n, err)
		}
	}
	// Files that do not match the pattern are ignored.
	os.WriteFile(filepath.Join(dir, "validator_data.json"), []byte("{}"), 0o644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)

	got, err := st.Netuids()
	if err != nil {
		t.Fatalf("Netuids: %v", err)
	}

	want := []int{1, 23, 118}
	if len(got) != len(want) {
		t.Fatalf("Netuids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Netuids[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestNetuids_MissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "never-created"))

	got, err := st.Netuids()
	if err != nil {
		t.Fatalf("Netuids on missing dir: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Netuids = %v, want empty", got)
	}
}
