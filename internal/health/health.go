// Package health classifies reconstructed samples against the configured
// freshness and trust-gap thresholds. All functions are pure.
package health

// Status is the per-dimension grade of one sample.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return "ok"
	}
}

// Thresholds holds the presentation cutoffs. Updated* are block intervals,
// Vtrust* are trust-gap cutoffs on (cohort average - tracked trust).
type Thresholds struct {
	UpdatedWarning int64
	UpdatedError   int64
	VtrustWarning  float64
	VtrustError    float64
}

// ClassifyUpdated grades the block interval since the previous weight
// update.
func (t Thresholds) ClassifyUpdated(updated int64) Status {
	switch {
	case updated > t.UpdatedError:
		return StatusError
	case updated > t.UpdatedWarning:
		return StatusWarning
	default:
		return StatusOK
	}
}

// ClassifyVtrust grades how far the tracked validator's trust falls below
// the cohort average. A nil average means no peer qualified for comparison;
// that is missing data, not a fault, and grades OK.
func (t Thresholds) ClassifyVtrust(vtrust float64, avgVtrust *float64) Status {
	if avgVtrust == nil {
		return StatusOK
	}
	gap := *avgVtrust - vtrust
	switch {
	case gap > t.VtrustError:
		return StatusError
	case gap > t.VtrustWarning:
		return StatusWarning
	default:
		return StatusOK
	}
}
