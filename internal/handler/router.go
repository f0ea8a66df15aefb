package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/networth/internal/metrics"
	"github.com/hitoshi/networth/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Sessions          middleware.SessionGetter
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ドメインサービス
	CertificateService CertificateServiceInterface
	IssuerClient       IssuerServiceInterface
	NetWorthService    NetWorthServiceInterface
	RankService        RankServiceInterface
	ValuationService   ValuationServiceInterface

	// リポジトリ
	Settings    UserSettingsServiceInterface
	Assets      AssetServiceInterface
	Liabilities LiabilityServiceInterface
	Incomes     IncomeCertificateServiceInterface

	// 運用
	Metrics        metrics.MetricsCollector
	MetricsGateway prometheus.Gatherer

	// ヘルスチェック用。nilの場合は/healthは登録されない
	HealthCheck http.HandlerFunc
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS → (認証ルートのみ) Session → RateLimit
//
// ログインフロー（/login /redirect /logout）はセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Metrics)
	userHandler := NewUserHandler(deps.Settings)
	assetHandler := NewAssetHandler(deps.Assets)
	liabilityHandler := NewLiabilityHandler(deps.Liabilities)
	incomeHandler := NewIncomeHandler(deps.Incomes)
	networthHandler := NewNetWorthHandler(deps.NetWorthService)
	certHandler := NewCertificateHandler(deps.CertificateService)
	issuerHandler := NewIssuerHandler(deps.IssuerClient)
	rankHandler := NewRankHandler(deps.RankService, deps.IssuerClient)
	aiHandler := NewAIHandler(deps.ValuationService, deps.Settings)

	// --- 認証不要のルート ---

	r.Get("/login", authHandler.Login)
	r.Get("/redirect", authHandler.Redirect)
	r.Get("/logout", authHandler.Logout)

	if deps.HealthCheck != nil {
		r.Get("/health", deps.HealthCheck)
	}
	if deps.MetricsGateway != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGateway))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Sessions))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザー
		r.Get("/api/user", userHandler.GetCurrentUser)
		r.Put("/api/user/settings", userHandler.UpdateSettings)

		// 資産・負債
		r.Route("/api/assets", func(r chi.Router) {
			r.Get("/", assetHandler.ListAssets)
			r.Put("/{id}", assetHandler.UpdateAssetValue)
			r.Delete("/{id}", assetHandler.DeleteAsset)
		})
		r.Route("/api/liabilities", func(r chi.Router) {
			r.Get("/", liabilityHandler.ListLiabilities)
			r.Delete("/{id}", liabilityHandler.DeleteLiability)
		})

		// 純資産サマリー
		r.Get("/api/net-worth-summary", networthHandler.GetSummary)

		// 憑証登記（QRコード生成は専用のレート制限を追加）
		r.With(deps.RateLimiter.QRCodeMiddleware()).
			Post("/api/generate-certificate-qrcode", certHandler.GenerateQRCode)
		r.Post("/api/poll-certificate-result", certHandler.PollResult)

		// 憑証発行
		r.Route("/api/issuer", func(r chi.Router) {
			r.With(deps.RateLimiter.QRCodeMiddleware()).
				Post("/create-qrcode", issuerHandler.CreateQRCode)
			r.Get("/query-credential/{transactionId}", issuerHandler.QueryCredential)
			r.Put("/revoke-credential/{cid}", issuerHandler.RevokeCredential)
		})

		// 財富階層憑証
		r.Post("/api/claim-rank-certificate", rankHandler.Claim)
		r.Get("/api/rank-certificate", rankHandler.Get)
		r.With(deps.RateLimiter.QRCodeMiddleware()).
			Post("/api/rank-certificate/generate-qrcode", rankHandler.GenerateIssuerQRCode)

		// 年収入憑証
		r.Get("/api/income-certificates", incomeHandler.ListIncomeCertificates)
		r.Delete("/api/income-certificates/{id}", incomeHandler.DeleteIncomeCertificate)

		// AI資産評価
		r.Post("/api/analyze-asset-value", aiHandler.AnalyzeAssetValue)
	})

	return r
}
