package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/talgya/synthesis-lab/internal/synthesis"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()
	r.Started(synthesis.Process{SuccessRate: 0.6, Duration: 100 * time.Second})
	r.Started(synthesis.Process{SuccessRate: 0.8, Duration: 120 * time.Second})
	r.Cancelled(synthesis.Process{})
	r.Rejected("start", synthesis.ErrAlreadyInProgress)
	r.Rejected("start", &synthesis.Error{Code: synthesis.CodeInsufficientResources, Cause: &synthesis.Shortfall{Gold: 5}})
	r.Rejected("advance", synthesis.ErrNoProcessInProgress)
	r.Finalized(synthesis.Final{Success: true})
	r.Finalized(synthesis.Final{})
	r.Finalized(synthesis.Final{})

	cases := []struct {
		name string
		got  float64
		want float64
	}{
		{"started", testutil.ToFloat64(r.started), 2},
		{"cancelled", testutil.ToFloat64(r.cancelled), 1},
		{"start in progress", testutil.ToFloat64(r.rejected.WithLabelValues("start", "ALREADY_IN_PROGRESS")), 1},
		{"start resources", testutil.ToFloat64(r.rejected.WithLabelValues("start", "INSUFFICIENT_RESOURCES")), 1},
		{"advance", testutil.ToFloat64(r.rejected.WithLabelValues("advance", "NO_PROCESS_IN_PROGRESS")), 1},
		{"successes", testutil.ToFloat64(r.outcomes.WithLabelValues("success")), 1},
		{"failures", testutil.ToFloat64(r.outcomes.WithLabelValues("failure")), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}
}

func TestHandlerExposesSeries(t *testing.T) {
	r := NewRecorder()
	r.Started(synthesis.Process{SuccessRate: 0.5, Duration: time.Minute})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{"labsim_synthesis_started_total 1", "labsim_synthesis_success_rate_count 1"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
