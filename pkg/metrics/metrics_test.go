package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveWebhook("processed")
	m.ObserveTransition("SELECT_DAY", "SELECT_TURN")
	m.ObserveHandler("SELECT_DAY", 0.01, true)
	m.ObserveBooking("booked")
	m.ObserveBooking("contention")
	m.ObserveLock("redis", false)
	m.ObservePublish("appointments.events", 0.002, nil)
	m.ObserveConsume("whatsapp.outbound", 0.002, errors.New("boom"))
	m.ObserveDelivery("list", nil)

	if got := testutil.ToFloat64(m.bookings.WithLabelValues("contention")); got != 1 {
		t.Errorf("contention bookings = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.handlerErrors.WithLabelValues("SELECT_DAY")); got != 1 {
		t.Errorf("handler errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.kafkaConsumed.WithLabelValues("whatsapp.outbound", "error")); got != 1 {
		t.Errorf("consume errors = %v, want 1", got)
	}
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveWebhook("ignored")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), "agendabot_webhook_messages_total") {
		t.Errorf("exposition missing webhook counter:\n%s", body)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveWebhook("processed")
	m.ObserveTransition("IDLE", "SELECT_SERVICE")
	m.ObserveHandler("IDLE", 0.1, false)
	m.ObserveBooking("error")
	m.ObserveLock("mongo", true)
	m.ObservePublish("t", 0.1, nil)
	m.ObserveConsume("t", 0.1, nil)
	m.ObserveDelivery("text", nil)
	if m.Handler() == nil {
		t.Error("nil metrics should still provide a handler")
	}
}
