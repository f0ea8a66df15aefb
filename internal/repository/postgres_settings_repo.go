package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/networth/internal/model"
)

// PostgresUserSettingsRepo はPostgreSQLを使用したユーザー設定リポジトリ。
type PostgresUserSettingsRepo struct {
	db *sql.DB
}

// NewPostgresUserSettingsRepo はPostgresUserSettingsRepoを生成する。
func NewPostgresUserSettingsRepo(db *sql.DB) *PostgresUserSettingsRepo {
	return &PostgresUserSettingsRepo{db: db}
}

// FindByUserID は指定ユーザーの設定を取得する。未設定の場合はnilを返す。
func (r *PostgresUserSettingsRepo) FindByUserID(ctx context.Context, userID string) (*model.UserSettings, error) {
	settings := &model.UserSettings{}
	var apiKey sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, gemini_api_key, created_at, updated_at
		 FROM user_settings WHERE user_id = $1`,
		userID,
	).Scan(&settings.UserID, &apiKey, &settings.CreatedAt, &settings.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user settings: %w", err)
	}

	settings.GeminiAPIKey = apiKey.String
	return settings, nil
}

// UpsertGeminiAPIKey はGemini APIキーを冪等に保存する。
// 空文字列はNULLとして保存され、キーの削除を意味する。
func (r *PostgresUserSettingsRepo) UpsertGeminiAPIKey(ctx context.Context, userID, apiKey string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, gemini_api_key)
		 VALUES ($1, NULLIF($2, ''))
		 ON CONFLICT (user_id) DO UPDATE SET
		   gemini_api_key = NULLIF(EXCLUDED.gemini_api_key, ''),
		   updated_at = now()`,
		userID, apiKey,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user settings: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserSettingsRepository = (*PostgresUserSettingsRepo)(nil)
