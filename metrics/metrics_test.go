package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollector_Handler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRecoveryAttempt()
	c.RecordRecoveryAttempt()
	c.RecordRecoveryFailure()
	c.RecordMarkedBad(3)
	c.RecordURLsRefreshed(2)
	c.RecordGeoLookup("ok")
	c.ReportError("boom", "test")

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"framesaver_recovery_attempts_total 2",
		"framesaver_recovery_failures_total 1",
		"framesaver_photos_marked_bad_total 3",
		"framesaver_urls_refreshed_total 2",
		`framesaver_geo_lookups_total{result="ok"} 1`,
		`framesaver_reported_errors_total{where="test"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
