package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ReqCount 统计 HTTP 请求总数
	ReqCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focuslog_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ReqDuration 统计请求耗时分布
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "focuslog_request_duration_seconds",
			Help: "Request duration seconds",
		},
		[]string{"method", "path"},
	)

	// ErrorCount 统计各 handler 的错误次数
	ErrorCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focuslog_errors_total",
			Help: "Total app errors",
		},
		[]string{"handler", "type"},
	)
)

// Register 将指标注册到默认 Registry。重复注册会 panic，只在进程启动时调用一次。
func Register() {
	prometheus.MustRegister(ReqCount, ReqDuration, ErrorCount)
}
