// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Storage
	DatabaseURL string
	RedisURL    string

	// OIDC
	OIDCWellKnownURL string
	OIDCClientID     string
	OIDCClientSecret string
	// リクエストのホストからredirect URIを導出できない場合のフォールバック。
	OIDCRedirectURI string

	// Wallet API（憑証登記）
	WalletAPIBaseURL     string
	WalletAPIAccessToken string

	// Issuer API（憑証発行）
	IssuerAPIBaseURL     string
	IssuerAPIAccessToken string

	// Session
	SessionMaxAge int // セッション有効期間（秒）
	StateMaxAge   int // OIDC stateクッキーの有効期間（秒）

	// Upstream HTTP
	UpstreamTimeout time.Duration

	// Gemini
	GeminiModel string

	// Rate Limit（req/min/user）
	RateLimitGeneral int
	RateLimitQRCode  int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す（fail-fast）。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	required := []struct {
		key  string
		dest *string
	}{
		{"DATABASE_URL", &cfg.DatabaseURL},
		{"REDIS_URL", &cfg.RedisURL},
		{"OIDC_WELL_KNOWN_URL", &cfg.OIDCWellKnownURL},
		{"OIDC_CLIENT_ID", &cfg.OIDCClientID},
		{"OIDC_CLIENT_SECRET", &cfg.OIDCClientSecret},
		{"WALLET_API_BASE_URL", &cfg.WalletAPIBaseURL},
		{"WALLET_API_ACCESS_TOKEN", &cfg.WalletAPIAccessToken},
		{"ISSUER_API_BASE_URL", &cfg.IssuerAPIBaseURL},
		{"ISSUER_API_ACCESS_TOKEN", &cfg.IssuerAPIAccessToken},
	}

	for _, r := range required {
		*r.dest = os.Getenv(r.key)
		if *r.dest == "" {
			missing = append(missing, r.key)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.OIDCRedirectURI = getEnvString("OIDC_REDIRECT_URI", "")
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.StateMaxAge = getEnvInt("STATE_MAX_AGE", 600)
	cfg.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second)
	cfg.GeminiModel = getEnvString("GEMINI_MODEL", "gemini-2.5-pro")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitQRCode = getEnvInt("RATE_LIMIT_QRCODE", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
