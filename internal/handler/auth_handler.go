// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hitoshi/networth/internal/auth"
	"github.com/hitoshi/networth/internal/middleware"
	"github.com/hitoshi/networth/internal/model"
)

const (
	sessionCookieName = "session_id"
	oidcStateCookie   = "oidc_state"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	LoginURL(ctx context.Context, state, redirectURI string) (string, error)
	HandleCallback(ctx context.Context, code, redirectURI string) (string, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	SessionMaxAge int // セッションCookieの有効期間（秒）
	StateMaxAge   int // stateクッキーの有効期間（秒）
	// RedirectURI が空の場合はリクエストのscheme+hostから導出する。
	RedirectURI string
}

// AuthHandler はOIDC認証フローのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
	metrics LoginRecorder
}

// LoginRecorder はログイン完了の計測インターフェース。
type LoginRecorder interface {
	RecordLogin()
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, metrics LoginRecorder) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
		metrics: metrics,
	}
}

// Login はOIDC認証フローを開始する。
// GET /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oidc state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oidcStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   h.config.StateMaxAge,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})

	url, err := h.service.LoginURL(r.Context(), state, h.redirectURI(r))
	if err != nil {
		slog.Error("failed to build authorization URL", slog.String("error", err.Error()))
		middleware.WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
			Code:     model.ErrCodeConfiguration,
			Message:  "無法連線至身分提供者。",
			Category: "system",
			Action:   "請稍後再試。若問題持續發生，請聯絡系統管理員。",
		})
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

// Redirect はOIDCコールバックを処理する。
// GET /redirect?code=xxx&state=yyy
func (h *AuthHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	// 1. stateの検証（CSRF対策）。検証結果に関わらずstateクッキーは破棄する
	state := r.URL.Query().Get("state")
	stateCookie, cookieErr := r.Cookie(oidcStateCookie)

	http.SetCookie(w, &http.Cookie{
		Name:     oidcStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})

	if cookieErr != nil || state == "" || stateCookie.Value != state {
		slog.Warn("oidc state mismatch", slog.String("query_state", state))
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidStateError())
		return
	}

	// 2. 認可コードの取得
	code := r.URL.Query().Get("code")
	if code == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewMissingCodeError())
		return
	}

	// 3. トークン交換とセッション発行
	sessionID, err := h.service.HandleCallback(r.Context(), code, h.redirectURI(r))
	if err != nil {
		var exchangeErr *auth.TokenExchangeError
		if errors.As(err, &exchangeErr) {
			if exchangeErr.StatusCode == http.StatusUnauthorized {
				// client_secretまたはredirect_uriの設定不備が典型的な原因。
				// 設定を見直せるよう診断ページを返す
				writeTokenExchangeDiagnostics(w, exchangeErr)
				return
			}
			// それ以外の非2xxは上流のステータスとボディをそのまま伝搬する
			slog.Warn("token exchange rejected",
				slog.Int("upstream_status", exchangeErr.StatusCode),
			)
			middleware.WriteErrorResponse(w, exchangeErr.StatusCode,
				model.NewUpstreamError(exchangeErr.StatusCode, exchangeErr.Body))
			return
		}
		slog.Error("oidc callback failed", slog.String("error", err.Error()))
		writeServiceError(w, err)
		return
	}

	h.metrics.RecordLogin()

	// 4. セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})

	// 5. ダッシュボードにリダイレクト
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout はセッションを破棄する。
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/login", http.StatusFound)
}

// redirectURI はコールバックのredirect URIを決定する。
// 設定で固定されていない限り、リクエスト自身のscheme+hostから導出する。
func (h *AuthHandler) redirectURI(r *http.Request) string {
	if h.config.RedirectURI != "" {
		return h.config.RedirectURI
	}
	scheme := "http"
	if isSecureRequest(r) {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/redirect", scheme, r.Host)
}

// isSecureRequest はリクエストがHTTPS経由かを判定する。
// リバースプロキシ配下ではX-Forwarded-Protoを参照する。
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return r.Header.Get("X-Forwarded-Proto") == "https"
}

// writeTokenExchangeDiagnostics はトークン交換が401で拒否されたときの
// 診断用HTMLページを書き込む。
func writeTokenExchangeDiagnostics(w http.ResponseWriter, exchangeErr *auth.TokenExchangeError) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="zh-Hant">
<head><meta charset="utf-8"><title>登入失敗</title></head>
<body>
<h1>登入失敗：身分提供者拒絕了權杖交換 (401)</h1>
<p>常見原因：</p>
<ul>
<li>OIDC_CLIENT_SECRET 設定錯誤</li>
<li>redirect URI 與身分提供者註冊的不一致</li>
</ul>
<p>身分提供者回應：</p>
<pre>%s</pre>
<p><a href="/login">重新登入</a></p>
</body>
</html>
`, html.EscapeString(exchangeErr.Body))
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
