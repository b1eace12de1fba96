package series

import (
	"encoding/json"
	"strings"
	"testing"
)

func f(v float64) *float64 { return &v }

func sample(updated int64) BlockMetric {
	return BlockMetric{Emission: 1.0, Vtrust: 0.9, Updated: updated}
}

func TestMerge_AppendsCacheSuffix(t *testing.T) {
	fresh := &ValidatorSeries{
		SubnetEmission: f(5.0),
		Blocks:         []int64{1000, 700},
		BlockData:      []BlockMetric{sample(300), sample(300)},
	}
	cached := &ValidatorSeries{
		SubnetEmission: f(4.0),
		Blocks:         []int64{400, 100},
		BlockData:      []BlockMetric{sample(300), sample(100)},
	}

	got := Merge(fresh, cached, 10)

	wantBlocks := []int64{1000, 700, 400, 100}
	if len(got.Blocks) != len(wantBlocks) || len(got.BlockData) != len(wantBlocks) {
		t.Fatalf("merged lengths = %d/%d, want %d", len(got.Blocks), len(got.BlockData), len(wantBlocks))
	}
	for i, b := range wantBlocks {
		if got.Blocks[i] != b {
			t.Errorf("Blocks[%d] = %d, want %d", i, got.Blocks[i], b)
		}
	}
	if got.SubnetEmission == nil || *got.SubnetEmission != 5.0 {
		t.Errorf("SubnetEmission = %v, want the fresh value 5.0", got.SubnetEmission)
	}
}

func TestMerge_TruncatesToWindow(t *testing.T) {
	fresh := &ValidatorSeries{
		Blocks:    []int64{1000, 700},
		BlockData: []BlockMetric{sample(300), sample(300)},
	}
	cached := &ValidatorSeries{
		Blocks:    []int64{400, 100},
		BlockData: []BlockMetric{sample(300), sample(100)},
	}

	got := Merge(fresh, cached, 3)

	if got.Len() != 3 {
		t.Fatalf("merged length = %d, want 3", got.Len())
	}
	if got.Blocks[2] != 400 {
		t.Errorf("oldest kept block = %d, want 400", got.Blocks[2])
	}
}

func TestMerge_NilCache(t *testing.T) {
	fresh := &ValidatorSeries{
		Blocks:    []int64{1000},
		BlockData: []BlockMetric{sample(300)},
	}

	got := Merge(fresh, nil, 5)

	if got.Len() != 1 || got.Blocks[0] != 1000 {
		t.Fatalf("merge with nil cache = %v", got.Blocks)
	}
}

func TestMerge_EmissionFallsBackToCache(t *testing.T) {
	cached := &ValidatorSeries{
		SubnetEmission: f(4.0),
		Blocks:         []int64{400},
		BlockData:      []BlockMetric{sample(300)},
	}

	got := Merge(&ValidatorSeries{}, cached, 5)

	if got.SubnetEmission == nil || *got.SubnetEmission != 4.0 {
		t.Errorf("SubnetEmission = %v, want cached 4.0", got.SubnetEmission)
	}
}

func TestMerge_DoesNotAliasInputs(t *testing.T) {
	fresh := &ValidatorSeries{
		Blocks:    []int64{1000},
		BlockData: []BlockMetric{sample(300)},
	}

	got := Merge(fresh, nil, 5)
	got.Blocks[0] = 1

	if fresh.Blocks[0] != 1000 {
		t.Error("Merge aliased the fresh input's slices")
	}
}

func TestWire_NullAvgVtrust(t *testing.T) {
	s := &ValidatorSeries{
		SubnetEmission: f(5.0),
		Blocks:         []int64{1000, 700},
		BlockData: []BlockMetric{
			{Emission: 1.5, Vtrust: 0.9, AvgVtrust: f(0.16), Updated: 300},
			{Emission: 1.5, Vtrust: 0.9, AvgVtrust: nil, Updated: 300},
		},
	}

	data, err := json.Marshal(ToWire(s))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)

	// An absent cohort must serialize as an explicit null, never as zero.
	if !strings.Contains(out, `"avg_vtrust":null`) {
		t.Errorf("missing null avg_vtrust marker in %s", out)
	}
	if !strings.Contains(out, `"rizzo_emission":1.5`) {
		t.Errorf("wire field names changed: %s", out)
	}

	var w WireSeries
	if err := json.Unmarshal(data, &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	back := FromWire(w)
	if back.BlockData[1].AvgVtrust != nil {
		t.Error("null avg_vtrust did not round-trip to nil")
	}
	if back.BlockData[0].AvgVtrust == nil || *back.BlockData[0].AvgVtrust != 0.16 {
		t.Error("present avg_vtrust did not round-trip")
	}
}
