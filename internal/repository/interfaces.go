// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/networth/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID string) (*model.User, error)

	// FindByEmail はemailでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// EnsureByEmail はemailをキーにユーザー行を冪等に確保する。
	// 存在しなければ作成し、存在すればnameのみ更新して返す。
	EnsureByEmail(ctx context.Context, email, name string) (*model.User, error)
}

// UserSettingsRepository はユーザー設定の永続化インターフェース。
type UserSettingsRepository interface {
	// FindByUserID は指定ユーザーの設定を取得する。未設定の場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.UserSettings, error)

	// UpsertGeminiAPIKey はGemini APIキーを冪等に保存する。
	// 空文字列はキーの削除（NULL化）として扱う。
	UpsertGeminiAPIKey(ctx context.Context, userID, apiKey string) error
}

// AssetRepository は資産データの永続化インターフェース。
type AssetRepository interface {
	// ListByUserID はユーザーの資産一覧をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Asset, error)

	// FindByID は指定IDの資産を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, assetID string) (*model.Asset, error)

	// Upsert は資産を保存する。UUIDが空でない場合は(user_id, uuid)をキーに
	// 冪等なUPSERTを行い、同一憑証の再登記は既存行の上書きになる。
	// UUIDが空の場合は常に新規行を作成する。
	Upsert(ctx context.Context, asset *model.Asset) error

	// UpdateValue は資産の現在価値を更新する。対象が存在しない場合はエラーを返す。
	UpdateValue(ctx context.Context, assetID, userID string, value float64) error

	// Delete は指定IDの資産を削除する。所有者の一致しない行は削除しない。
	Delete(ctx context.Context, assetID, userID string) error

	// SumValueByUserID はユーザーの資産current_valueの合計を返す。
	SumValueByUserID(ctx context.Context, userID string) (float64, error)
}

// LiabilityRepository は負債データの永続化インターフェース。
type LiabilityRepository interface {
	// ListByUserID はユーザーの負債一覧をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Liability, error)

	// Upsert は負債を保存する。UUIDによる冪等性の意味はAssetRepositoryと同じ。
	Upsert(ctx context.Context, liability *model.Liability) error

	// Delete は指定IDの負債を削除する。所有者の一致しない行は削除しない。
	Delete(ctx context.Context, liabilityID, userID string) error

	// SumBalanceByUserID はユーザーの負債remaining_balanceの合計を返す。
	SumBalanceByUserID(ctx context.Context, userID string) (float64, error)
}

// IncomeCertificateRepository は年収入憑証の永続化インターフェース。
type IncomeCertificateRepository interface {
	// ListByUserID はユーザーの年収入憑証一覧をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.IncomeCertificate, error)

	// Upsert は年収入憑証を保存する。UUIDによる冪等性の意味はAssetRepositoryと同じ。
	Upsert(ctx context.Context, cert *model.IncomeCertificate) error

	// Delete は指定IDの年収入憑証を削除する。所有者の一致しない行は削除しない。
	Delete(ctx context.Context, incomeCertificateID, userID string) error
}

// RankCertificateRepository は財富階層憑証の永続化インターフェース。
type RankCertificateRepository interface {
	// Create は財富階層憑証を追加する。領取のたびに行が増える。
	Create(ctx context.Context, cert *model.RankCertificate) error

	// FindLatestByUserID はユーザーの最新の財富階層憑証を返す。
	// 未領取の場合はnilを返す。
	FindLatestByUserID(ctx context.Context, userID string) (*model.RankCertificate, error)
}
