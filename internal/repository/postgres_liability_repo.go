package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/networth/internal/model"
)

// PostgresLiabilityRepo はPostgreSQLを使用した負債リポジトリ。
type PostgresLiabilityRepo struct {
	db *sql.DB
}

// NewPostgresLiabilityRepo はPostgresLiabilityRepoを生成する。
func NewPostgresLiabilityRepo(db *sql.DB) *PostgresLiabilityRepo {
	return &PostgresLiabilityRepo{db: db}
}

// ListByUserID はユーザーの負債一覧をcreated_at降順で返す。
func (r *PostgresLiabilityRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Liability, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT liability_id, user_id, liability_type, liability_name,
		        remaining_balance, uuid, certificate_type, created_at, updated_at
		 FROM liabilities WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list liabilities: %w", err)
	}
	defer rows.Close()

	var liabilities []*model.Liability
	for rows.Next() {
		liability := &model.Liability{}
		var certUUID, certType sql.NullString
		if err := rows.Scan(
			&liability.LiabilityID, &liability.UserID, &liability.LiabilityType,
			&liability.LiabilityName, &liability.RemainingBalance,
			&certUUID, &certType, &liability.CreatedAt, &liability.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan liability: %w", err)
		}
		liability.UUID = certUUID.String
		liability.CertificateType = certType.String
		liabilities = append(liabilities, liability)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate liabilities: %w", err)
	}
	return liabilities, nil
}

// Upsert は負債を保存する。UUIDが空でない場合は(user_id, uuid)をキーに
// 既存行を上書きし、UUIDが空の場合は常に新規行を作成する。
func (r *PostgresLiabilityRepo) Upsert(ctx context.Context, liability *model.Liability) error {
	if liability.LiabilityID == "" {
		liability.LiabilityID = uuid.New().String()
	}

	if liability.UUID == "" {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO liabilities
			   (liability_id, user_id, liability_type, liability_name,
			    remaining_balance, uuid, certificate_type)
			 VALUES ($1, $2, $3, $4, $5, NULL, NULLIF($6, ''))`,
			liability.LiabilityID, liability.UserID, liability.LiabilityType,
			liability.LiabilityName, liability.RemainingBalance, liability.CertificateType,
		)
		if err != nil {
			return fmt.Errorf("failed to insert liability: %w", err)
		}
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO liabilities
		   (liability_id, user_id, liability_type, liability_name,
		    remaining_balance, uuid, certificate_type)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		 ON CONFLICT (user_id, uuid) WHERE uuid IS NOT NULL DO UPDATE SET
		   liability_type    = EXCLUDED.liability_type,
		   liability_name    = EXCLUDED.liability_name,
		   remaining_balance = EXCLUDED.remaining_balance,
		   certificate_type  = EXCLUDED.certificate_type,
		   updated_at        = now()`,
		liability.LiabilityID, liability.UserID, liability.LiabilityType,
		liability.LiabilityName, liability.RemainingBalance,
		liability.UUID, liability.CertificateType,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert liability: %w", err)
	}
	return nil
}

// Delete は指定IDの負債を削除する。所有者の一致しない行は削除しない。
func (r *PostgresLiabilityRepo) Delete(ctx context.Context, liabilityID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM liabilities WHERE liability_id = $1 AND user_id = $2`,
		liabilityID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete liability: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("liability not found: %s", liabilityID)
	}
	return nil
}

// SumBalanceByUserID はユーザーの負債remaining_balanceの合計を返す。
func (r *PostgresLiabilityRepo) SumBalanceByUserID(ctx context.Context, userID string) (float64, error) {
	var sum float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(remaining_balance), 0) FROM liabilities WHERE user_id = $1`,
		userID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum liability balances: %w", err)
	}
	return sum, nil
}

// compile-time interface check
var _ LiabilityRepository = (*PostgresLiabilityRepo)(nil)
