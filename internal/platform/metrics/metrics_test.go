package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics, update func()) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler(update).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	b, _ := io.ReadAll(rec.Body)
	return string(b)
}

func TestMetrics_Handler_exposes_counters(t *testing.T) {
	m := New()
	m.IncAttach()
	m.IncDetach()
	m.IncEvent("onError")
	m.IncSessionError("configuration")
	m.IncNotification("onAudioSessionInterrupted")
	m.SetState("detached", "initiating")

	body := scrape(t, m, func() { m.SetEventClients(3) })

	for _, want := range []string{
		"broadcast_attach_total 1",
		"broadcast_detach_total 1",
		`broadcast_events_total{kind="onError"} 1`,
		`broadcast_errors_total{class="configuration"} 1`,
		`broadcast_notifications_total{kind="onAudioSessionInterrupted"} 1`,
		`broadcast_session_state{state="detached"} 0`,
		`broadcast_session_state{state="initiating"} 1`,
		"broadcast_event_clients 3",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestRequestMiddleware_counts_errors(t *testing.T) {
	m := New()
	h := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/ok", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/bad", nil))

	body := scrape(t, m, nil)
	if !strings.Contains(body, "broadcast_http_requests_total 2") {
		t.Errorf("expected 2 requests in: %s", body)
	}
	if !strings.Contains(body, "broadcast_http_errors_total 1") {
		t.Errorf("expected 1 error in: %s", body)
	}
}
