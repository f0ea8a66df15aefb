// Package issuer は憑証発行者APIのクライアントを提供する。
// 発行用QRコードの作成、発行結果の照会、憑証の撤銷を行う。
package issuer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/golang-jwt/jwt/v5"
)

// cidPattern は発行済み憑証JWTのjtiクレームからCIDを抜き出すパターン。
var cidPattern = regexp.MustCompile(`/api/credential/([a-f0-9-]+)`)

// RequestError は発行者APIの非2xxレスポンスを表す。
type RequestError struct {
	StatusCode int
	Body       string
}

// Error はerrorインターフェースを実装する。
func (e *RequestError) Error() string {
	return fmt.Sprintf("issuer API returned status %d: %s", e.StatusCode, e.Body)
}

// Field は発行する憑証のフィールド1件。
type Field struct {
	Ename   string `json:"ename"`
	Content string `json:"content"`
}

// CreateQRCodeRequest は発行用QRコード作成のリクエスト。
type CreateQRCodeRequest struct {
	VCUid        string  `json:"vcUid"`
	Fields       []Field `json:"fields"`
	IssuanceDate string  `json:"issuanceDate,omitempty"`
	ExpiredDate  string  `json:"expiredDate,omitempty"`
}

// CreateQRCodeResult は発行用QRコード作成の結果。
type CreateQRCodeResult struct {
	TransactionID string `json:"transactionId"`
	QRCode        string `json:"qrCode"`
}

// CredentialResult は発行結果照会のレスポンス。
// CIDは憑証JWTのjtiクレームから抽出された値で、撤銷APIに渡す識別子。
type CredentialResult struct {
	CID              string `json:"cid,omitempty"`
	Credential       string `json:"credential,omitempty"`
	CredentialStatus string `json:"credentialStatus,omitempty"`
}

// RevocationResult は憑証撤銷の結果。
type RevocationResult struct {
	CredentialStatus string `json:"credentialStatus"`
}

// Client は発行者APIのクライアント。
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	baseURL     string
	accessToken string
	parser      *jwt.Parser
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, accessToken string) *Client {
	return &Client{
		httpClient:  httpClient,
		logger:      logger,
		baseURL:     baseURL,
		accessToken: accessToken,
		parser:      jwt.NewParser(),
	}
}

// CreateQRCode は憑証発行用QRコードを作成する。
func (c *Client) CreateQRCode(ctx context.Context, req CreateQRCodeRequest) (*CreateQRCodeResult, error) {
	body, err := c.doJSON(ctx, http.MethodPost, "/api/qrcode/data", req)
	if err != nil {
		return nil, err
	}

	var result CreateQRCodeResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse issuer QR code response: %w", err)
	}
	return &result, nil
}

// QueryCredential は発行結果を照会する。
// レスポンスに憑証JWTが含まれる場合、ペイロードを署名検証なしでデコードし
// jtiクレームからCIDを抽出する。デコード失敗はログに記録してCIDを空のまま
// 返す（照会自体は成功として扱う）。
func (c *Client) QueryCredential(ctx context.Context, transactionID string) (*CredentialResult, error) {
	body, err := c.doJSON(ctx, http.MethodGet, "/api/credential/nonce/"+transactionID, nil)
	if err != nil {
		return nil, err
	}

	var result CredentialResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse issuer credential response: %w", err)
	}

	if result.Credential != "" {
		if cid, err := c.extractCID(result.Credential); err != nil {
			c.logger.Warn("failed to extract CID from credential JWT",
				slog.String("transaction_id", transactionID),
				slog.String("error", err.Error()),
			)
		} else {
			result.CID = cid
		}
	}

	return &result, nil
}

// Revoke は発行済み憑証を撤銷する。
func (c *Client) Revoke(ctx context.Context, cid string) (*RevocationResult, error) {
	body, err := c.doJSON(ctx, http.MethodPut, "/api/credential/"+cid+"/revocation", map[string]any{})
	if err != nil {
		return nil, err
	}

	var result RevocationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse issuer revocation response: %w", err)
	}
	return &result, nil
}

// extractCID は憑証JWTのjtiクレームからCIDを抽出する。
func (c *Client) extractCID(credential string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := c.parser.ParseUnverified(credential, claims); err != nil {
		return "", fmt.Errorf("failed to decode credential JWT: %w", err)
	}

	jti, _ := claims["jti"].(string)
	match := cidPattern.FindStringSubmatch(jti)
	if match == nil {
		return "", fmt.Errorf("jti claim does not contain a CID: %q", jti)
	}
	return match[1], nil
}

// doJSON は発行者APIへのリクエストを実行しレスポンスボディを返す。
// payloadがnilでなければJSONエンコードしてボディに載せる。
// 非2xxは*RequestErrorを返す。
func (c *Client) doJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal issuer request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create issuer request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("issuer API request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("issuer API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read issuer response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("issuer API returned error status",
			slog.Int("http_status", resp.StatusCode),
			slog.String("method", method),
			slog.String("path", path),
		)
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
