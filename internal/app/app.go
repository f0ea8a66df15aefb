// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/networth/internal/auth"
	"github.com/hitoshi/networth/internal/certificate"
	"github.com/hitoshi/networth/internal/config"
	"github.com/hitoshi/networth/internal/database"
	"github.com/hitoshi/networth/internal/handler"
	"github.com/hitoshi/networth/internal/issuer"
	"github.com/hitoshi/networth/internal/logger"
	"github.com/hitoshi/networth/internal/metrics"
	"github.com/hitoshi/networth/internal/middleware"
	"github.com/hitoshi/networth/internal/networth"
	"github.com/hitoshi/networth/internal/repository"
	"github.com/hitoshi/networth/internal/security"
	"github.com/hitoshi/networth/internal/session"
	"github.com/hitoshi/networth/internal/valuation"
	"github.com/hitoshi/networth/internal/wallet"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DBとRedisへの接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. 外部APIベースURLの起動時検証（fail-fast）
	guard := security.NewUpstreamGuard()
	for name, rawURL := range map[string]string{
		"WALLET_API_BASE_URL": cfg.WalletAPIBaseURL,
		"ISSUER_API_BASE_URL": cfg.IssuerAPIBaseURL,
		"OIDC_WELL_KNOWN_URL": cfg.OIDCWellKnownURL,
	} {
		if err := guard.ValidateBaseURL(rawURL); err != nil {
			return fmt.Errorf("unsafe %s: %w", name, err)
		}
	}

	// 2. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 3. Redis接続（セッションストア）
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("redis connection established")

	// 4. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	settingsRepo := repository.NewPostgresUserSettingsRepo(db)
	assetRepo := repository.NewPostgresAssetRepo(db)
	liabilityRepo := repository.NewPostgresLiabilityRepo(db)
	incomeRepo := repository.NewPostgresIncomeCertificateRepo(db)
	rankRepo := repository.NewPostgresRankCertificateRepo(db)

	// 5. セッションストアの初期化
	sessionMaxAge := time.Duration(cfg.SessionMaxAge) * time.Second
	sessionStore := session.NewStore(rdb, sessionMaxAge)

	// 6. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 7. 外部APIクライアントの初期化（SSRF防止付きHTTPクライアントを共有）
	safeClient := guard.NewSafeClient(cfg.UpstreamTimeout)

	oidcProvider := auth.NewProvider(auth.ProviderConfig{
		WellKnownURL: cfg.OIDCWellKnownURL,
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
	}, safeClient)

	walletClient := wallet.NewClient(safeClient, slog.Default(), cfg.WalletAPIBaseURL, cfg.WalletAPIAccessToken)
	issuerClient := issuer.NewInstrumentedClient(
		issuer.NewClient(safeClient, slog.Default(), cfg.IssuerAPIBaseURL, cfg.IssuerAPIAccessToken),
		collector,
	)

	// 8. ドメインサービスの初期化
	authService := auth.NewService(oidcProvider, auth.NewUnverifiedDecoder(), userRepo, sessionStore)
	certService := certificate.NewService(walletClient, userRepo, assetRepo, liabilityRepo, incomeRepo, collector)
	networthService := networth.NewService(assetRepo, liabilityRepo, rankRepo)
	valuationService := valuation.NewService(cfg.GeminiModel, slog.Default())

	// 9. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitQRCode),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Sessions:          sessionStore,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			SessionMaxAge: cfg.SessionMaxAge,
			StateMaxAge:   cfg.StateMaxAge,
			RedirectURI:   cfg.OIDCRedirectURI,
		},

		CertificateService: certService,
		IssuerClient:       issuerClient,
		NetWorthService:    networthService,
		RankService:        networthService,
		ValuationService:   valuationService,

		Settings:    settingsRepo,
		Assets:      assetRepo,
		Liabilities: liabilityRepo,
		Incomes:     incomeRepo,

		Metrics:        collector,
		MetricsGateway: registry,

		HealthCheck: newHealthCheckHandler(db, rdb),
	}

	router := handler.NewRouter(deps)

	// 10. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// pinger はヘルスチェック対象のDB接続のインターフェース。
type pinger interface {
	PingContext(ctx context.Context) error
}

// newHealthCheckHandler はDBとRedisの疎通を確認するヘルスチェックハンドラーを返す。
func newHealthCheckHandler(db pinger, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			slog.Error("health check: database unreachable", slog.String("error", err.Error()))
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("health check: redis unreachable", slog.String("error", err.Error()))
			http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok"}`)
	}
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
