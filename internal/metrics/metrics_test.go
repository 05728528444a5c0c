package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExposesRegisteredCollectors(t *testing.T) {
	m := New()
	m.ConnectionsActive.Set(3)
	m.CommandsTotal.WithLabelValues("GET", "read").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "driftkv_connections_active") {
		t.Fatalf("expected driftkv_connections_active in metrics output, got: %s", body)
	}
	if !strings.Contains(body, "driftkv_commands_total") {
		t.Fatalf("expected driftkv_commands_total in metrics output, got: %s", body)
	}
}
