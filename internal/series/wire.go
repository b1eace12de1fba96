package series

// WireSeries is the persisted/transport form of a ValidatorSeries. Field
// names match the JSON files produced by earlier versions of this tool and
// must not change.
type WireSeries struct {
	SubnetEmission *float64    `json:"subnet_emission"`
	Blocks         []int64     `json:"blocks"`
	BlockData      []WireBlock `json:"block_data"`
}

// WireBlock is the persisted form of one BlockMetric. AvgVtrust serializes
// as JSON null when no cohort qualified.
type WireBlock struct {
	Emission  float64  `json:"rizzo_emission"`
	Vtrust    float64  `json:"rizzo_vtrust"`
	AvgVtrust *float64 `json:"avg_vtrust"`
	Updated   int64    `json:"rizzo_updated"`
}

// ToWire converts s into its serialized form.
func ToWire(s *ValidatorSeries) WireSeries {
	w := WireSeries{
		SubnetEmission: s.SubnetEmission,
		Blocks:         append([]int64(nil), s.Blocks...),
		BlockData:      make([]WireBlock, 0, len(s.BlockData)),
	}
	for _, bd := range s.BlockData {
		w.BlockData = append(w.BlockData, WireBlock{
			Emission:  bd.Emission,
			Vtrust:    bd.Vtrust,
			AvgVtrust: bd.AvgVtrust,
			Updated:   bd.Updated,
		})
	}
	return w
}

// FromWire converts a deserialized WireSeries back into the core model.
func FromWire(w WireSeries) *ValidatorSeries {
	s := &ValidatorSeries{
		SubnetEmission: w.SubnetEmission,
		Blocks:         append([]int64(nil), w.Blocks...),
		BlockData:      make([]BlockMetric, 0, len(w.BlockData)),
	}
	for _, bd := range w.BlockData {
		s.BlockData = append(s.BlockData, BlockMetric{
			Emission:  bd.Emission,
			Vtrust:    bd.Vtrust,
			AvgVtrust: bd.AvgVtrust,
			Updated:   bd.Updated,
		})
	}
	return s
}
