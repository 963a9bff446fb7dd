// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 通知送信結果のラベル値
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア、通知サービス、クリーンアップジョブから利用する。
type MetricsCollector interface {
	RecordDispatch(channel, result string)
	RecordGatewayLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordSessionsCleaned(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	dispatchTotal   *prometheus.CounterVec
	gatewayLatency  prometheus.Histogram
	httpStatus      *prometheus.CounterVec
	sessionsCleaned prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_dispatch_total",
			Help: "チャネル・結果別の通知送信数",
		}, []string{"channel", "result"}),
		gatewayLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notifier_sms_gateway_latency_seconds",
			Help:    "SMSゲートウェイ呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifier_sessions_cleaned_total",
			Help: "削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.dispatchTotal,
		c.gatewayLatency,
		c.httpStatus,
		c.sessionsCleaned,
	)

	return c
}

// RecordDispatch は通知送信の結果を記録する。
func (c *Collector) RecordDispatch(channel, result string) {
	c.dispatchTotal.WithLabelValues(channel, result).Inc()
}

// RecordGatewayLatency はSMSゲートウェイ呼び出しのレイテンシを記録する。
func (c *Collector) RecordGatewayLatency(duration time.Duration) {
	c.gatewayLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSessionsCleaned は削除されたセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int) {
	c.sessionsCleaned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
