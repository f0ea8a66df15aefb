package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// metadataCacheTTL はディスカバリドキュメントのキャッシュ有効期間。
const metadataCacheTTL = time.Hour

// ProviderConfig はOIDCプロバイダーの設定。
type ProviderConfig struct {
	WellKnownURL string
	ClientID     string
	ClientSecret string
}

// ProviderMetadata はOIDCディスカバリドキュメントのうち使用するフィールド。
type ProviderMetadata struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// TokenExchangeError はトークンエンドポイントの非2xxレスポンスを表す。
// 上流のステータスとボディをそのまま保持し、ハンドラー層が応答に反映する。
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

// Error はerrorインターフェースを実装する。
func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// Provider はOIDCプロバイダーへのディスカバリ・認可URL生成・トークン交換を提供する。
//
// トークン交換は標準のOIDCクライアントを経由せず、トークンエンドポイントへ
// 直接form-encoded POSTを行う。対向のIDプロバイダーが準拠レスポンスを
// 返さないための回避策であり、Basic認証でclient credentialsを送る。
type Provider struct {
	config     ProviderConfig
	httpClient *http.Client

	mu            sync.Mutex
	meta          *ProviderMetadata
	metaFetchedAt time.Time
}

// NewProvider はProviderを生成する。
// httpClientがnilの場合はhttp.DefaultClientを使用する。
func NewProvider(config ProviderConfig, httpClient *http.Client) *Provider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Provider{config: config, httpClient: httpClient}
}

// Metadata はディスカバリドキュメントを取得する。結果は1時間キャッシュする。
func (p *Provider) Metadata(ctx context.Context) (*ProviderMetadata, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.meta != nil && time.Since(p.metaFetchedAt) < metadataCacheTTL {
		return p.meta, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.WellKnownURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read discovery response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery returned status %d: %s", resp.StatusCode, string(body))
	}

	var meta ProviderMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse discovery document: %w", err)
	}

	if meta.AuthorizationEndpoint == "" || meta.TokenEndpoint == "" {
		return nil, fmt.Errorf("discovery document is missing required endpoints")
	}

	p.meta = &meta
	p.metaFetchedAt = time.Now()
	return p.meta, nil
}

// LoginURL はOIDC認可エンドポイントへのURLを生成する。
// redirect_uriはリクエスト元のホストから導出された値を渡すこと
// （認可リクエストとトークン交換で完全に一致している必要がある）。
func (p *Provider) LoginURL(ctx context.Context, state, redirectURI string) (string, error) {
	meta, err := p.Metadata(ctx)
	if err != nil {
		return "", err
	}

	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
		"scope":         {"openid profile email"},
		"state":         {state},
	}
	return meta.AuthorizationEndpoint + "?" + params.Encode(), nil
}

// tokenResponse はトークンエンドポイントのレスポンス。
type tokenResponse struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ExchangeCode は認可コードをIDトークンに交換する。
// client credentialsはBasic認証ヘッダーで送る（client_secret_basic）。
// 非2xxレスポンスは*TokenExchangeErrorとして返し、上流のステータスと
// ボディを呼び出し元に伝搬する。
func (p *Provider) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	meta, err := p.Metadata(ctx)
	if err != nil {
		return "", err
	}

	data := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, meta.TokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	credentials := base64.StdEncoding.EncodeToString([]byte(p.config.ClientID + ":" + p.config.ClientSecret))
	req.Header.Set("Authorization", "Basic "+credentials)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &TokenExchangeError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.IDToken == "" {
		return "", fmt.Errorf("id_token not provided in token response")
	}

	return tokenResp.IDToken, nil
}
