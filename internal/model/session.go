package model

import "time"

// Session はログインセッションを表す。
// KVストアにJSONで保存され、Cookieのsession_idで参照される。
// ExpiresAtを過ぎたセッションは未認証と等価に扱う。
type Session struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	IDToken   string    `json:"idToken,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired はセッションが期限切れかどうかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && s.ExpiresAt.Before(now)
}
