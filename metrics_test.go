package tinyhttpd

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusClassLabel(t *testing.T) {
	cases := map[int]string{100: "1xx", 204: "2xx", 301: "3xx", 404: "4xx", 500: "5xx"}
	for status, want := range cases {
		if got := statusClassLabel(status); got != want {
			t.Errorf("statusClassLabel(%d) = %q, want %q", status, got, want)
		}
	}
}

func TestOrNopMetricsFallsBackOnNil(t *testing.T) {
	if _, ok := orNopMetrics(nil).(NopMetrics); !ok {
		t.Fatal("orNopMetrics(nil) should return NopMetrics")
	}
}

func TestPrometheusMetricsRecordsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetricsFor(reg)

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.RequestServed(StatusOK, 5*time.Millisecond)
	m.ParseError(ErrHeader)

	if got := testutil.ToFloat64(m.connectionsActive); got != 1 {
		t.Errorf("connectionsActive = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.connectionsAccepted); got != 2 {
		t.Errorf("connectionsAccepted = %v, want 2", got)
	}
}
