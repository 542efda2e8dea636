package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

func TestObserveCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Observe("message_delete", "sent", 20*time.Millisecond)
	m.Observe("message_delete", "sent", 30*time.Millisecond)
	m.Observe("message_delete", "skipped", time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	counts := map[string]float64{}
	histograms := 0
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			switch family.GetName() {
			case "maestro_dispatches_total":
				outcome := ""
				for _, label := range metric.GetLabel() {
					if label.GetName() == "outcome" {
						outcome = label.GetValue()
					}
				}
				counts[outcome] = metric.GetCounter().GetValue()
			case "maestro_dispatch_duration_seconds":
				histograms++
				if metric.GetHistogram().GetSampleCount() != 3 {
					t.Fatalf("expected 3 samples, got %d", metric.GetHistogram().GetSampleCount())
				}
			}
		}
	}
	if counts["sent"] != 2 || counts["skipped"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
	if histograms != 1 {
		t.Fatalf("expected one histogram series, got %d", histograms)
	}
}

func TestNewWithoutRegistry(t *testing.T) {
	m := New(nil)
	m.Observe("ban_add", "failed", time.Second)
}

func get(t *testing.T, handler http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, _ := io.ReadAll(rec.Body)
	return rec.Code, string(body)
}

func TestRouterHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	if code, body := get(t, Router(reg, pinger{}), "/health"); code != http.StatusOK || body != "ok" {
		t.Fatalf("expected healthy, got %d %q", code, body)
	}
	if code, _ := get(t, Router(reg, pinger{err: errors.New("down")}), "/health"); code != http.StatusServiceUnavailable {
		t.Fatalf("expected unavailable, got %d", code)
	}
}

func TestRouterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Observe("member_join", "sent", time.Millisecond)

	code, body := get(t, Router(reg, nil), "/metrics")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !strings.Contains(body, `maestro_dispatches_total{event="member_join",outcome="sent"} 1`) {
		t.Fatalf("expected dispatch counter in output")
	}
}
