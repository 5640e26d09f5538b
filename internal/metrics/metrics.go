package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// 折扣核销结果
const (
	RedemptionApplied   = "applied"
	RedemptionExhausted = "exhausted"
	RedemptionSkipped   = "skipped"
)

// 购物车操作
const (
	CartOpAdd    = "add"
	CartOpUpdate = "update"
	CartOpRemove = "remove"
)

// Metrics 业务指标，nil 接收者上的方法均为空操作
type Metrics struct {
	registry            *prometheus.Registry
	orderTransitions    *prometheus.CounterVec
	paymentTransitions  *prometheus.CounterVec
	cartMutations       *prometheus.CounterVec
	discountRedemptions *prometheus.CounterVec
	notifyFailures      prometheus.Counter
	checkoutTotal       prometheus.Histogram
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New 创建独立注册表的指标集合
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newMetrics(registry)
}

func newMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Order status transitions by source and target code.",
		}, []string{"from", "to"}),
		paymentTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_status_transitions_total",
			Help:      "Payment status transitions by source and target code.",
		}, []string{"from", "to"}),
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart line item mutations by operation.",
		}, []string{"op"}),
		discountRedemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_redemptions_total",
			Help:      "Discount redemption attempts at checkout by result.",
		}, []string{"result"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "Notifications that could not be handed to the queue.",
		}),
		checkoutTotal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_order_total",
			Help:      "Order totals at checkout.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	registry.MustRegister(
		m.orderTransitions,
		m.paymentTransitions,
		m.cartMutations,
		m.discountRedemptions,
		m.notifyFailures,
		m.checkoutTotal,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler 暴露 /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOrderTransition 记录订单状态流转
func (m *Metrics) ObserveOrderTransition(from, to string) {
	if m == nil {
		return
	}
	m.orderTransitions.WithLabelValues(from, to).Inc()
}

// ObservePaymentTransition 记录支付状态流转
func (m *Metrics) ObservePaymentTransition(from, to string) {
	if m == nil {
		return
	}
	m.paymentTransitions.WithLabelValues(from, to).Inc()
}

// ObserveCartMutation 记录购物车变更
func (m *Metrics) ObserveCartMutation(op string) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(op).Inc()
}

// ObserveRedemption 记录折扣核销结果
func (m *Metrics) ObserveRedemption(result string) {
	if m == nil {
		return
	}
	m.discountRedemptions.WithLabelValues(result).Inc()
}

// ObserveNotifyFailure 记录通知投递失败
func (m *Metrics) ObserveNotifyFailure() {
	if m == nil {
		return
	}
	m.notifyFailures.Inc()
}

// ObserveCheckoutTotal 记录结算金额
func (m *Metrics) ObserveCheckoutTotal(total float64) {
	if m == nil {
		return
	}
	m.checkoutTotal.Observe(total)
}

// ObserveHTTPRequest 记录 HTTP 请求
func (m *Metrics) ObserveHTTPRequest(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
