package httpadapter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	metricsinmem "rialto/internal/adapter/metrics/inmemory"
	"rialto/internal/app/decision"
	"rialto/internal/app/tick"
	"rialto/internal/domain/sim"
)

func TestResponseJSONUsesSnakeCase(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	act := sim.NewIdle("cit-1", now, time.Hour, "resting")
	act.ID = "act-1"

	cases := []struct {
		name    string
		payload any
		want    []string
		notWant []string
	}{
		{
			name:    "decision",
			payload: decision.Decision{Activity: act, Handler: decision.KindIdle, Busy: false},
			want:    []string{`"citizen_id"`, `"start_at"`, `"end_at"`, `"activity"`, `"handler"`},
			notWant: []string{`"CitizenID"`, `"StartAt"`},
		},
		{
			name:    "tick report",
			payload: tick.Report{Eligible: 3, Scheduled: 2, Busy: 1},
			want:    []string{`"eligible"`, `"scheduled"`, `"timed_out"`},
			notWant: []string{`"TimedOut"`},
		},
		{
			name:    "kpi snapshot",
			payload: metricsinmem.Snapshot{DecisionTotal: 4, ByHandler: map[string]uint64{"idle": 1}},
			want:    []string{`"decision_total"`, `"fallback_total"`, `"by_handler"`},
			notWant: []string{`"DecisionTotal"`},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(tc.payload)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			body := string(raw)
			for _, want := range tc.want {
				if !strings.Contains(body, want) {
					t.Fatalf("body %s missing %s", body, want)
				}
			}
			for _, notWant := range tc.notWant {
				if strings.Contains(body, notWant) {
					t.Fatalf("body %s contains %s", body, notWant)
				}
			}
		})
	}
}
