// Package auth はOIDC認証フローとセッション発行を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/networth/internal/model"
	"github.com/hitoshi/networth/internal/repository"
	"github.com/hitoshi/networth/internal/session"
)

// OIDCProvider はOIDCプロバイダーとのやり取りのインターフェース。
// 本番実装はProvider。テストでは差し替える。
type OIDCProvider interface {
	// LoginURL は認可エンドポイントへのURLを生成する。
	LoginURL(ctx context.Context, state, redirectURI string) (string, error)
	// ExchangeCode は認可コードをIDトークンに交換する。
	ExchangeCode(ctx context.Context, code, redirectURI string) (string, error)
}

// SessionStore はセッションの発行・破棄のインターフェース。
type SessionStore interface {
	Create(ctx context.Context, sess model.Session) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	provider OIDCProvider
	decoder  TokenDecoder
	userRepo repository.UserRepository
	sessions SessionStore
}

// NewService はServiceを生成する。
func NewService(
	provider OIDCProvider,
	decoder TokenDecoder,
	userRepo repository.UserRepository,
	sessions SessionStore,
) *Service {
	return &Service{
		provider: provider,
		decoder:  decoder,
		userRepo: userRepo,
		sessions: sessions,
	}
}

// LoginURL は認可エンドポイントへのURLを生成する。
func (s *Service) LoginURL(ctx context.Context, state, redirectURI string) (string, error) {
	return s.provider.LoginURL(ctx, state, redirectURI)
}

// HandleCallback はOIDCコールバックを処理し、セッションIDを返す。
// 認可コードをIDトークンに交換し、ペイロードからユーザー識別情報を取り出し、
// emailをキーにユーザー行を冪等に確保した上でセッションを発行する。
//
// ユーザー行の確保に失敗してもログインは継続する（DBの一時障害でログインを
// 止めないための縮退動作）。このときセッションのUserIDはemailになり、
// 後続のDB操作はユーザー行が復旧するまで失敗しうる。
func (s *Service) HandleCallback(ctx context.Context, code, redirectURI string) (string, error) {
	idToken, err := s.provider.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	identity, err := s.decoder.Decode(idToken)
	if err != nil {
		return "", fmt.Errorf("failed to decode id_token: %w", err)
	}

	userID := identity.Email
	user, err := s.userRepo.EnsureByEmail(ctx, identity.Email, identity.Name)
	if err != nil {
		slog.Error("failed to ensure user row, continuing with degraded session",
			slog.String("email", identity.Email),
			slog.String("error", err.Error()),
		)
	} else {
		userID = user.UserID
	}

	sessionID, err := s.sessions.Create(ctx, model.Session{
		UserID:  userID,
		Email:   identity.Email,
		Name:    identity.Name,
		IDToken: idToken,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", userID),
		slog.String("email", identity.Email),
	)

	return sessionID, nil
}

// Logout はセッションを破棄する。セッションIDが空の場合は何もしない。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// compile-time interface checks
var (
	_ OIDCProvider = (*Provider)(nil)
	_ TokenDecoder = (*UnverifiedDecoder)(nil)
	_ SessionStore = (*session.Store)(nil)
)
