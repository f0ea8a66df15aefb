// Package wallet はデジタルウォレットAPI（OIDVP）のクライアントを提供する。
// 憑証登記用QRコードの生成と、提示結果のポーリングを行う。
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

// RequestError はウォレットAPIの非2xxレスポンスを表す。
type RequestError struct {
	StatusCode int
	Body       string
}

// Error はerrorインターフェースを実装する。
func (e *RequestError) Error() string {
	return fmt.Sprintf("wallet API returned status %d: %s", e.StatusCode, e.Body)
}

// QRCodeResult は憑証登記QRコードの生成結果。
type QRCodeResult struct {
	TransactionID string `json:"transactionId"`
	QRCodeImage   string `json:"qrcodeImage"`
	AuthURI       string `json:"authUri"`
}

// Claim は提示された憑証のクレーム1件。
type Claim struct {
	Ename string `json:"ename"`
	Cname string `json:"cname,omitempty"`
	Value string `json:"value"`
}

// Credential は提示された憑証1件。
type Credential struct {
	VCUid  string  `json:"vcUid,omitempty"`
	RefVC  string  `json:"refVC,omitempty"`
	Claims []Claim `json:"claims,omitempty"`
}

// ClaimsMap はクレーム一覧をename→valueのマップに平坦化する。
func (c *Credential) ClaimsMap() map[string]string {
	m := make(map[string]string, len(c.Claims))
	for _, claim := range c.Claims {
		m[claim.Ename] = claim.Value
	}
	return m
}

// VerifyResult は提示結果ポーリングのレスポンス。
type VerifyResult struct {
	VerifyResult      bool         `json:"verifyResult"`
	ResultDescription string       `json:"resultDescription,omitempty"`
	Data              []Credential `json:"data,omitempty"`
}

// Client はウォレットAPIのクライアント。
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	baseURL     string
	accessToken string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, accessToken string) *Client {
	return &Client{
		httpClient:  httpClient,
		logger:      logger,
		baseURL:     baseURL,
		accessToken: accessToken,
	}
}

// GenerateQRCode は憑証提示用QRコードを生成する。
// refは憑証種別（vpテンプレートID）、transactionIDは呼び出し側で採番した
// トランザクションID。結果のTransactionIDには同じ値がそのまま入る。
func (c *Client) GenerateQRCode(ctx context.Context, ref, transactionID string) (*QRCodeResult, error) {
	reqURL := fmt.Sprintf("%s/api/oidvp/qrcode?ref=%s&transactionId=%s",
		c.baseURL, url.QueryEscape(ref), url.QueryEscape(transactionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code request: %w", err)
	}
	req.Header.Set("Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("wallet QR code request failed",
			slog.String("ref", ref),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("wallet QR code request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("wallet QR code request returned error status",
			slog.Int("http_status", resp.StatusCode),
			slog.String("ref", ref),
		)
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result QRCodeResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse wallet QR code response: %w", err)
	}

	result.TransactionID = transactionID
	return &result, nil
}

// PollResult は憑証提示結果を取得する。
// ウォレットAPIが400を返す間はユーザーがまだ提示を完了していない状態であり、
// エラーではなくnilを返す（呼び出し元はpendingとして扱う）。
// それ以外の非2xxは*RequestErrorを返す。
func (c *Client) PollResult(ctx context.Context, transactionID string) (*VerifyResult, error) {
	payload, err := json.Marshal(map[string]string{"transactionId": transactionID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal poll request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/oidvp/result", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create poll request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("wallet poll request failed",
			slog.String("transaction_id", transactionID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("wallet poll request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet response: %w", err)
	}

	// 400はユーザーが未提示の状態を意味する
	if resp.StatusCode == http.StatusBadRequest {
		c.logger.Debug("wallet result not ready",
			slog.String("transaction_id", transactionID),
		)
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("wallet poll returned error status",
			slog.Int("http_status", resp.StatusCode),
			slog.String("transaction_id", transactionID),
		)
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result VerifyResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse wallet poll response: %w", err)
	}

	return &result, nil
}
