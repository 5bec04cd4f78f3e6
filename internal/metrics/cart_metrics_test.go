package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestCartMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCartMetricsWithRegisterer(registry)

	m.RecordMutation("add")
	m.RecordMutation("add")
	m.RecordMutation("remove")
	m.RecordMutationError("add")
	m.RecordConflictRetry()
	m.RecordCheckoutCompleted()
	m.RecordCheckoutRejected()
	m.RecordMerge()

	if got := counterValue(t, m.mutationsTotal.WithLabelValues("add")); got != 2 {
		t.Fatalf("expected 2 add mutations, got %v", got)
	}
	if got := counterValue(t, m.mutationsTotal.WithLabelValues("remove")); got != 1 {
		t.Fatalf("expected 1 remove mutation, got %v", got)
	}
	if got := counterValue(t, m.mutationErrors.WithLabelValues("add")); got != 1 {
		t.Fatalf("expected 1 add error, got %v", got)
	}
	if got := counterValue(t, m.conflictRetries); got != 1 {
		t.Fatalf("expected 1 conflict retry, got %v", got)
	}
	if got := counterValue(t, m.checkoutCompleted); got != 1 {
		t.Fatalf("expected 1 completed checkout, got %v", got)
	}
	if got := counterValue(t, m.checkoutRejected); got != 1 {
		t.Fatalf("expected 1 rejected checkout, got %v", got)
	}
	if got := counterValue(t, m.mergesTotal); got != 1 {
		t.Fatalf("expected 1 merge, got %v", got)
	}
}

func TestCartMetrics_Durations(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCartMetricsWithRegisterer(registry)

	m.RecordMutationDuration("add", 5*time.Millisecond)
	m.RecordCheckoutDuration(10 * time.Millisecond)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := map[string]bool{}
	for _, family := range families {
		found[family.GetName()] = true
	}
	if !found["storefront_cart_mutation_duration_seconds"] {
		t.Fatal("expected mutation duration histogram to be registered")
	}
	if !found["storefront_checkout_duration_seconds"] {
		t.Fatal("expected checkout duration histogram to be registered")
	}
}

func TestCartMetrics_DuplicateRegistrationReusesCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newCartMetricsWithRegisterer(registry)
	second := newCartMetricsWithRegisterer(registry)

	first.RecordCheckoutCompleted()
	second.RecordCheckoutCompleted()

	if got := counterValue(t, first.checkoutCompleted); got != 2 {
		t.Fatalf("expected shared counter with value 2, got %v", got)
	}
}
