// Package metrics 提供基于Prometheus的指标收集
//
// 可观测性三支柱之一（Tracing、Metrics、Logging）：
// - Tracing（追踪）：回答"为什么慢？"（见pkg/tracing）
// - Metrics（指标）：回答"有多少？多快？"（本模块）
// - Logging（日志）：回答"发生了什么？"
//
// 指标类型选择：
// - 计数用Counter：借阅数、回调数、错误数
// - 瞬时值用Gauge：处理中的请求数、待确认支付数
// - 分布用Histogram：请求耗时
//
// 使用示例：
//
//	metrics.InitMetrics()
//	http.Handle("/metrics", promhttp.Handler())
//
//	// 业务代码中
//	metrics.IncCounter(metrics.LoansCreatedTotal)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// initialized 标记是否已初始化（防止重复注册）
	initialized bool

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数（Counter）
	// 标签：method（GET/POST）、path、status（200/500）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（Histogram）
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数（Gauge）
	HTTPRequestsInProgress prometheus.Gauge

	// 借阅业务指标

	// LoansCreatedTotal 借阅创建总数（Counter）
	// 标签：flow（direct/payment）
	LoansCreatedTotal *prometheus.CounterVec

	// LoansFailedTotal 借阅创建失败总数（Counter）
	LoansFailedTotal prometheus.Counter

	// LoansReturnedTotal 归还总数（Counter）
	// 标签：result（on_time/late）
	LoansReturnedTotal *prometheus.CounterVec

	// LoansRenewedTotal 续借成功总数（Counter）
	LoansRenewedTotal prometheus.Counter

	// LoansOverdueTotal 逾期扫描中被标记为OVERDUE的借阅数（Counter）
	LoansOverdueTotal prometheus.Counter

	// 支付指标

	// PaymentCallbacksTotal 网关回调处理总数（Counter）
	// 标签：result（confirmed/failed/replay/rejected）
	PaymentCallbacksTotal *prometheus.CounterVec

	// PaymentsPendingCash 待人工确认的现金支付数（Gauge）
	PaymentsPendingCash prometheus.Gauge

	// 熔断器指标（网关交易查询接口）

	// CircuitBreakerState 熔断器状态（Gauge）
	// 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数（Counter）
	// 标签：name（熔断器名称）、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// 消息队列指标

	// MessagesPublishedTotal 消息发布总数（Counter）
	// 标签：exchange（交换机）、routing_key（路由键）
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 初始化所有Prometheus指标
//
// 必须在程序启动时调用一次，用于注册所有指标到全局Registry
//
// 设计要点：
// 1. 使用promauto.New*自动注册到默认Registry
// 2. Counter使用*Vec支持标签（多维度统计）
// 3. Histogram的Buckets根据业务场景定制
func InitMetrics() {
	// 防止重复初始化
	if initialized {
		return
	}
	initialized = true

	// HTTP请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	// 借阅业务指标
	LoansCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loans_created_total",
			Help: "借阅创建总数",
		},
		[]string{"flow"}, // direct（无支付旧流程）/ payment（押金流程）
	)

	LoansFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loans_failed_total",
			Help: "借阅创建失败总数（前置条件不满足或库存不足）",
		},
	)

	LoansReturnedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loans_returned_total",
			Help: "归还总数",
		},
		[]string{"result"}, // on_time / late
	)

	LoansRenewedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loans_renewed_total",
			Help: "续借成功总数",
		},
	)

	LoansOverdueTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loans_overdue_total",
			Help: "逾期扫描中新标记为OVERDUE的借阅数",
		},
	)

	// 支付指标
	PaymentCallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "支付网关回调处理总数",
		},
		[]string{"result"}, // confirmed / failed / replay / rejected
	)

	PaymentsPendingCash = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "payments_pending_cash",
			Help: "待人工确认的现金支付数",
		},
	)

	// 熔断器指标
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	// 消息队列指标
	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"exchange", "routing_key"},
	)
}

// IncCounter 递增Counter（便捷函数）
func IncCounter(counter prometheus.Counter) {
	if counter == nil {
		return
	}
	counter.Inc()
}

// IncCounterVec 递增CounterVec（按标签顺序传值）
func IncCounterVec(counter *prometheus.CounterVec, labelValues ...string) {
	if counter == nil {
		return
	}
	counter.WithLabelValues(labelValues...).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Dec()
}

// SetGauge 设置Gauge值
func SetGauge(gauge prometheus.Gauge, value float64) {
	if gauge == nil {
		return
	}
	gauge.Set(value)
}

// SetGaugeVec 设置GaugeVec值（带标签）
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	if gauge == nil {
		return
	}
	gauge.With(labels).Set(value)
}

// ObserveHistogramVec 记录HistogramVec观测值（带标签）
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	if histogram == nil {
		return
	}
	histogram.With(labels).Observe(value)
}
