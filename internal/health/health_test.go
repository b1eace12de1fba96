package health

import "testing"

var thr = Thresholds{
	UpdatedWarning: 720,
	UpdatedError:   1080,
	VtrustWarning:  0.1,
	VtrustError:    0.2,
}

func f(v float64) *float64 { return &v }

func TestClassifyUpdated(t *testing.T) {
	cases := []struct {
		updated int64
		want    Status
	}{
		{100, StatusOK},
		{720, StatusOK}, // boundary is exclusive
		{721, StatusWarning},
		{1080, StatusWarning},
		{1081, StatusError},
	}
	for _, tc := range cases {
		if got := thr.ClassifyUpdated(tc.updated); got != tc.want {
			t.Errorf("ClassifyUpdated(%d) = %v, want %v", tc.updated, got, tc.want)
		}
	}
}

func TestClassifyVtrust(t *testing.T) {
	cases := []struct {
		name   string
		vtrust float64
		avg    *float64
		want   Status
	}{
		{"at or above average", 0.9, f(0.85), StatusOK},
		{"small gap", 0.8, f(0.85), StatusOK},
		{"warning gap", 0.7, f(0.85), StatusWarning},
		{"error gap", 0.6, f(0.85), StatusError},
		{"no cohort is not a fault", 0.1, nil, StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := thr.ClassifyVtrust(tc.vtrust, tc.avg); got != tc.want {
				t.Errorf("ClassifyVtrust(%v, %v) = %v, want %v", tc.vtrust, tc.avg, got, tc.want)
			}
		})
	}
}

func TestStatusString(t *testing.T) {
	if StatusOK.String() != "ok" || StatusWarning.String() != "warning" || StatusError.String() != "error" {
		t.Error("unexpected status names")
	}
}
