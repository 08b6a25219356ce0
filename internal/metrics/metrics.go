// Package metrics Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "capybara"

var (
	// HTTPRequestsTotal HTTP 请求总数
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP 请求总数（按方法/路径/状态码）",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration HTTP 请求耗时
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP 请求耗时（秒）",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// ModerationVerdicts 审核结论总数
	ModerationVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "verdicts_total",
			Help:      "审核结论总数（按内容类型/结论）",
		},
		[]string{"content_type", "verdict"},
	)

	// ClassifierFailures 审核服务调用失败总数
	ClassifierFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "classifier_failures_total",
			Help:      "审核服务调用失败总数（超时/网络/响应异常）",
		},
	)

	// StaleVerdictsDiscarded 因并发编辑被丢弃的审核结论总数
	StaleVerdictsDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "stale_verdicts_discarded_total",
			Help:      "因记录在送审期间被修改而丢弃的审核结论总数",
		},
	)

	// ArchivedTotal 归档内容总数
	ArchivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "archived_total",
			Help:      "归档任务处理的内容总数（按内容类型）",
		},
		[]string{"content_type"},
	)

	// SweepRuns 归档任务运行总数
	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "归档任务运行总数（按结果）",
		},
		[]string{"result"},
	)
)
