package series

// BlockMetric is one reconstructed weight-update sample for the tracked
// validator.
type BlockMetric struct {
	// Emission is the validator's emission share at the sampled block.
	Emission float64

	// Vtrust is the validator's trust at the sampled block.
	Vtrust float64

	// AvgVtrust is the mean trust over the qualifying peer cohort. nil
	// means no peer passed the stake/trust/freshness filters; there was
	// not enough comparison data, which is distinct from a cohort that is
	// merely low-trust.
	AvgVtrust *float64

	// Updated is the number of blocks between this weight update and the
	// previous one.
	Updated int64
}

// ValidatorSeries is the reconstructed weight-interval history for one
// subnet. Blocks and BlockData are parallel and equal length; index 0 is
// the most recent sample, and the freshly reconstructed prefix is strictly
// decreasing in block number.
type ValidatorSeries struct {
	// SubnetEmission is the subnet's emission percentage at the time of
	// the run. nil when the series came from cache without a fresh
	// baseline.
	SubnetEmission *float64

	Blocks    []int64
	BlockData []BlockMetric
}

// Len returns the number of samples in the series.
func (s *ValidatorSeries) Len() int { return len(s.Blocks) }

// Merge appends the cached suffix after the freshly reconstructed prefix
// and truncates the result to window samples, newest first. The walk's stop
// boundary guarantees the fresh prefix never reaches past the cached head
// block, so the two ranges cannot overlap.
//
// Either argument may be nil. SubnetEmission is taken from the fresh series
// when present, else from cache. Inputs are not modified.
func Merge(fresh, cached *ValidatorSeries, window int) *ValidatorSeries {
	out := &ValidatorSeries{}

	if fresh != nil {
		out.SubnetEmission = fresh.SubnetEmission
		out.Blocks = append(out.Blocks, fresh.Blocks...)
		out.BlockData = append(out.BlockData, fresh.BlockData...)
	}
	if cached != nil {
		if out.SubnetEmission == nil {
			out.SubnetEmission = cached.SubnetEmission
		}
		out.Blocks = append(out.Blocks, cached.Blocks...)
		out.BlockData = append(out.BlockData, cached.BlockData...)
	}

	if window > 0 && len(out.Blocks) > window {
		out.Blocks = out.Blocks[:window]
		out.BlockData = out.BlockData[:window]
	}
	return out
}
