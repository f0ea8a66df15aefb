// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層から利用する。
type MetricsCollector interface {
	RecordLogin()
	RecordWalletCall(operation string, outcome string)
	RecordIssuerCall(operation string, outcome string)
	RecordPollStatus(status string)
	RecordUpstreamLatency(api string, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins          prometheus.Counter
	walletCalls     *prometheus.CounterVec
	issuerCalls     *prometheus.CounterVec
	pollResults     *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "networth_logins_total",
			Help: "OIDCログイン成功の合計数",
		}),
		walletCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "networth_wallet_calls_total",
			Help: "ウォレットAPI呼び出しの操作・結果別合計数",
		}, []string{"operation", "outcome"}),
		issuerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "networth_issuer_calls_total",
			Help: "発行者API呼び出しの操作・結果別合計数",
		}, []string{"operation", "outcome"}),
		pollResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "networth_poll_results_total",
			Help: "憑証提示ポーリング結果のステータス別合計数",
		}, []string{"status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "networth_upstream_latency_seconds",
			Help:    "外部API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"api"}),
	}

	reg.MustRegister(
		c.logins,
		c.walletCalls,
		c.issuerCalls,
		c.pollResults,
		c.upstreamLatency,
	)

	return c
}

// RecordLogin はログイン成功を記録する。
func (c *Collector) RecordLogin() {
	c.logins.Inc()
}

// RecordWalletCall はウォレットAPI呼び出しの結果を記録する。
// outcomeは"success"または"failure"。
func (c *Collector) RecordWalletCall(operation string, outcome string) {
	c.walletCalls.WithLabelValues(operation, outcome).Inc()
}

// RecordIssuerCall は発行者API呼び出しの結果を記録する。
func (c *Collector) RecordIssuerCall(operation string, outcome string) {
	c.issuerCalls.WithLabelValues(operation, outcome).Inc()
}

// RecordPollStatus はポーリング結果のステータス（pending/completed/error）を記録する。
func (c *Collector) RecordPollStatus(status string) {
	c.pollResults.WithLabelValues(status).Inc()
}

// RecordUpstreamLatency は外部API呼び出しのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(api string, duration time.Duration) {
	c.upstreamLatency.WithLabelValues(api).Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// NopCollector は何も記録しないMetricsCollector。テストで使用する。
type NopCollector struct{}

func (NopCollector) RecordLogin() {}

func (NopCollector) RecordWalletCall(operation string, outcome string) {}

func (NopCollector) RecordIssuerCall(operation string, outcome string) {}

func (NopCollector) RecordPollStatus(status string) {}

func (NopCollector) RecordUpstreamLatency(api string, duration time.Duration) {}

// compile-time interface checks
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
