package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics содержит метрики движка корзины и checkout.
type CartMetrics struct {
	// Счётчики мутаций корзины по операциям
	mutationsTotal *prometheus.CounterVec
	mutationErrors *prometheus.CounterVec

	// Optimistic locking: повторы read-modify-write после конфликта версий
	conflictRetries prometheus.Counter

	// Счётчики checkout
	checkoutCompleted prometheus.Counter
	checkoutFailed    prometheus.Counter
	checkoutRejected  prometheus.Counter

	// Merge анонимной корзины при входе
	mergesTotal prometheus.Counter

	// Гистограммы времени выполнения
	mutationDuration *prometheus.HistogramVec
	checkoutDuration prometheus.Histogram
}

// NewCartMetrics создаёт новый экземпляр метрик корзины.
func NewCartMetrics() *CartMetrics {
	return newCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CartMetrics{
		mutationsTotal: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Total number of cart mutations grouped by operation",
		}, []string{"op"}),
		mutationErrors: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_mutation_errors_total",
			Help: "Total number of failed cart mutations grouped by operation",
		}, []string{"op"}),
		conflictRetries: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_conflict_retries_total",
			Help: "Total number of read-modify-write retries after a version conflict",
		}),
		checkoutCompleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_checkout_completed_total",
			Help: "Total number of successfully completed checkouts",
		}),
		checkoutFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_checkout_failed_total",
			Help: "Total number of checkouts failed with an internal error",
		}),
		checkoutRejected: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_checkout_rejected_total",
			Help: "Total number of checkouts rejected for an empty cart",
		}),
		mergesTotal: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_merges_total",
			Help: "Total number of anonymous carts merged on sign-in",
		}),
		mutationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "storefront_cart_mutation_duration_seconds",
			Help:    "Duration of cart mutations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"op"}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "storefront_checkout_duration_seconds",
			Help:    "Duration of checkout transactions in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordMutation увеличивает счётчик успешных мутаций операции.
func (m *CartMetrics) RecordMutation(op string) {
	m.mutationsTotal.WithLabelValues(op).Inc()
}

// RecordMutationError увеличивает счётчик неудачных мутаций операции.
func (m *CartMetrics) RecordMutationError(op string) {
	m.mutationErrors.WithLabelValues(op).Inc()
}

// RecordConflictRetry увеличивает счётчик повторов после конфликта версий.
func (m *CartMetrics) RecordConflictRetry() {
	m.conflictRetries.Inc()
}

// RecordCheckoutCompleted увеличивает счётчик успешных checkout.
func (m *CartMetrics) RecordCheckoutCompleted() {
	m.checkoutCompleted.Inc()
}

// RecordCheckoutFailed увеличивает счётчик checkout, упавших с ошибкой.
func (m *CartMetrics) RecordCheckoutFailed() {
	m.checkoutFailed.Inc()
}

// RecordCheckoutRejected увеличивает счётчик отклонённых checkout (пустая корзина).
func (m *CartMetrics) RecordCheckoutRejected() {
	m.checkoutRejected.Inc()
}

// RecordMerge увеличивает счётчик merge анонимных корзин.
func (m *CartMetrics) RecordMerge() {
	m.mergesTotal.Inc()
}

// RecordMutationDuration записывает время выполнения мутации.
func (m *CartMetrics) RecordMutationDuration(op string, duration time.Duration) {
	m.mutationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordCheckoutDuration записывает время выполнения checkout.
func (m *CartMetrics) RecordCheckoutDuration(duration time.Duration) {
	m.checkoutDuration.Observe(duration.Seconds())
}
