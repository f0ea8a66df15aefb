package issuer

import (
	"context"
	"time"
)

// Service は発行者APIクライアントの操作インターフェース。
// 本番実装はClient。計測レイヤーとテストで差し替える。
type Service interface {
	CreateQRCode(ctx context.Context, req CreateQRCodeRequest) (*CreateQRCodeResult, error)
	QueryCredential(ctx context.Context, transactionID string) (*CredentialResult, error)
	Revoke(ctx context.Context, cid string) (*RevocationResult, error)
}

// MetricsRecorder は発行者API呼び出しの計測インターフェース。
type MetricsRecorder interface {
	RecordIssuerCall(operation string, outcome string)
	RecordUpstreamLatency(api string, duration time.Duration)
}

// InstrumentedClient は発行者APIクライアントに呼び出し回数と
// レイテンシの計測を追加するラッパー。
type InstrumentedClient struct {
	next    Service
	metrics MetricsRecorder
}

// NewInstrumentedClient はInstrumentedClientを生成する。
func NewInstrumentedClient(next Service, metrics MetricsRecorder) *InstrumentedClient {
	return &InstrumentedClient{next: next, metrics: metrics}
}

// CreateQRCode は発行用QRコード作成を計測付きで実行する。
func (c *InstrumentedClient) CreateQRCode(ctx context.Context, req CreateQRCodeRequest) (*CreateQRCodeResult, error) {
	start := time.Now()
	result, err := c.next.CreateQRCode(ctx, req)
	c.metrics.RecordUpstreamLatency("issuer", time.Since(start))
	c.metrics.RecordIssuerCall("qrcode", outcomeOf(err))
	return result, err
}

// QueryCredential は発行結果照会を計測付きで実行する。
func (c *InstrumentedClient) QueryCredential(ctx context.Context, transactionID string) (*CredentialResult, error) {
	start := time.Now()
	result, err := c.next.QueryCredential(ctx, transactionID)
	c.metrics.RecordUpstreamLatency("issuer", time.Since(start))
	c.metrics.RecordIssuerCall("query", outcomeOf(err))
	return result, err
}

// Revoke は憑証撤銷を計測付きで実行する。
func (c *InstrumentedClient) Revoke(ctx context.Context, cid string) (*RevocationResult, error) {
	start := time.Now()
	result, err := c.next.Revoke(ctx, cid)
	c.metrics.RecordUpstreamLatency("issuer", time.Since(start))
	c.metrics.RecordIssuerCall("revoke", outcomeOf(err))
	return result, err
}

func outcomeOf(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

var (
	_ Service = (*Client)(nil)
	_ Service = (*InstrumentedClient)(nil)
)
