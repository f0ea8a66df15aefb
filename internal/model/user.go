// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// OIDC認証の初回ログイン時にemailをキーとして遅延作成される。
type User struct {
	UserID    string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserSettings はユーザーごとの設定を表す。Userと1対1。
// GeminiAPIKeyの値そのものはクライアントに返さず、設定有無のみを公開する。
type UserSettings struct {
	UserID       string
	GeminiAPIKey string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasGeminiAPIKey はGemini APIキーが設定されているかを返す。
func (s *UserSettings) HasGeminiAPIKey() bool {
	return s != nil && s.GeminiAPIKey != ""
}
