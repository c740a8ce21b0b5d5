package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hostel_hub/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the vectors are exported
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveGuard("student", "redirect")
	observability.ObserveGuard("", "login")
	observability.ObserveSignup("business")
	observability.ObserveBooking("pending")
	observability.ObserveExternalError("identity", "accounts:signUp", io.ErrUnexpectedEOF)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"hostel_hub_http_requests_total",
		`hostel_hub_guard_decisions_total{outcome="login",role="anonymous"}`,
		`hostel_hub_signups_total{role="business"}`,
		`hostel_hub_booking_events_total{status="pending"}`,
		`hostel_hub_external_errors_total{endpoint="accounts:signUp",error="*errors.errorString",service="identity"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output", want)
		}
	}
}

func TestLabelErr(t *testing.T) {
	if got := observability.LabelErr(nil); got != "none" {
		t.Fatalf("got %q", got)
	}
	if got := observability.LabelErr(io.EOF); got != "*errors.errorString" {
		t.Fatalf("got %q", got)
	}
}
