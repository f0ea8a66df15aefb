package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/networth/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, userID string) (*model.User, error) {
	user := &model.User{}
	var name sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, email, name, created_at, updated_at FROM users WHERE user_id = $1`,
		userID,
	).Scan(&user.UserID, &user.Email, &name, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	user.Name = name.String
	return user, nil
}

// FindByEmail はemailでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	var name sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, email, name, created_at, updated_at FROM users WHERE email = $1`,
		email,
	).Scan(&user.UserID, &user.Email, &name, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	user.Name = name.String
	return user, nil
}

// EnsureByEmail はemailをキーにユーザー行を冪等に確保する。
// 並行ログインでも重複行はできず、後勝ちでnameが更新される。
func (r *PostgresUserRepo) EnsureByEmail(ctx context.Context, email, name string) (*model.User, error) {
	user := &model.User{}
	var storedName sql.NullString
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (user_id, email, name)
		 VALUES ($1, $2, NULLIF($3, ''))
		 ON CONFLICT (email) DO UPDATE SET
		   name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
		   updated_at = now()
		 RETURNING user_id, email, name, created_at, updated_at`,
		uuid.New().String(), email, name,
	).Scan(&user.UserID, &user.Email, &storedName, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	user.Name = storedName.String
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
