// Package session はKVストア（Redis）ベースのセッション管理を提供する。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/networth/internal/model"
)

const keyPrefix = "session:"

// maxServerTTL はKVエントリのサーバー側TTL上限。
// 設定上のセッション有効期間に関わらず7日を超えては保持しない。
const maxServerTTL = 7 * 24 * time.Hour

// Store はRedisをバックエンドとするセッションストア。
type Store struct {
	rdb    *redis.Client
	maxAge time.Duration
}

// NewStore はStoreを生成する。maxAgeはセッションの有効期間。
func NewStore(rdb *redis.Client, maxAge time.Duration) *Store {
	return &Store{rdb: rdb, maxAge: maxAge}
}

// MaxAge はセッションの有効期間を返す。Cookie MaxAgeの設定に使用する。
func (s *Store) MaxAge() time.Duration {
	return s.maxAge
}

// Create は新しいセッションを作成しセッションIDを返す。
// ExpiresAtはnow+maxAgeに設定され、KVエントリのTTLは7日を上限とする。
func (s *Store) Create(ctx context.Context, sess model.Session) (string, error) {
	sessionID := uuid.New().String()
	sess.ExpiresAt = time.Now().Add(s.maxAge)

	data, err := json.Marshal(&sess)
	if err != nil {
		return "", err
	}

	ttl := s.maxAge
	if ttl > maxServerTTL {
		ttl = maxServerTTL
	}

	if err := s.rdb.Set(ctx, keyPrefix+sessionID, data, ttl).Err(); err != nil {
		return "", err
	}

	return sessionID, nil
}

// Get はセッションIDからセッションを取得する。
// 見つからない場合、期限切れの場合（このときKVエントリを削除する）、
// およびストア障害時はnilを返す。ストア障害を未認証として扱うのは、
// 一時的な障害でユーザーを締め出さないための意図的な設計判断
// （可用性をセキュリティより優先するバイアスを持つ）。
func (s *Store) Get(ctx context.Context, sessionID string) *model.Session {
	if sessionID == "" {
		return nil
	}

	data, err := s.rdb.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("session store lookup failed, treating as unauthenticated",
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		slog.Warn("failed to decode stored session",
			slog.String("error", err.Error()),
		)
		return nil
	}

	if sess.Expired(time.Now()) {
		// 期限切れエントリは副作用として削除する
		if err := s.rdb.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
			slog.Warn("failed to delete expired session",
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	return &sess
}

// Delete はセッションを削除する。冪等で、存在しないIDでもエラーにならない。
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.rdb.Del(ctx, keyPrefix+sessionID).Err()
}
