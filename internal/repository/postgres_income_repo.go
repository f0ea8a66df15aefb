package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/networth/internal/model"
)

// PostgresIncomeCertificateRepo はPostgreSQLを使用した年収入憑証リポジトリ。
type PostgresIncomeCertificateRepo struct {
	db *sql.DB
}

// NewPostgresIncomeCertificateRepo はPostgresIncomeCertificateRepoを生成する。
func NewPostgresIncomeCertificateRepo(db *sql.DB) *PostgresIncomeCertificateRepo {
	return &PostgresIncomeCertificateRepo{db: db}
}

// ListByUserID はユーザーの年収入憑証一覧をcreated_at降順で返す。
func (r *PostgresIncomeCertificateRepo) ListByUserID(ctx context.Context, userID string) ([]*model.IncomeCertificate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT income_certificate_id, user_id, uuid, value, description,
		        type, year, certificate_type, created_at, updated_at
		 FROM income_certificates WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list income certificates: %w", err)
	}
	defer rows.Close()

	var certs []*model.IncomeCertificate
	for rows.Next() {
		cert := &model.IncomeCertificate{}
		var certUUID, description, incomeType, certType sql.NullString
		var year sql.NullInt64
		if err := rows.Scan(
			&cert.IncomeCertificateID, &cert.UserID, &certUUID, &cert.Value,
			&description, &incomeType, &year, &certType,
			&cert.CreatedAt, &cert.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan income certificate: %w", err)
		}
		cert.UUID = certUUID.String
		cert.Description = description.String
		cert.Type = incomeType.String
		cert.Year = int(year.Int64)
		cert.CertificateType = certType.String
		certs = append(certs, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate income certificates: %w", err)
	}
	return certs, nil
}

// Upsert は年収入憑証を保存する。UUIDが空でない場合は(user_id, uuid)をキーに
// 既存行を上書きし、UUIDが空の場合は常に新規行を作成する。
func (r *PostgresIncomeCertificateRepo) Upsert(ctx context.Context, cert *model.IncomeCertificate) error {
	if cert.IncomeCertificateID == "" {
		cert.IncomeCertificateID = uuid.New().String()
	}

	if cert.UUID == "" {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO income_certificates
			   (income_certificate_id, user_id, uuid, value, description,
			    type, year, certificate_type)
			 VALUES ($1, $2, NULL, $3, NULLIF($4, ''), NULLIF($5, ''),
			         NULLIF($6, 0), NULLIF($7, ''))`,
			cert.IncomeCertificateID, cert.UserID, cert.Value, cert.Description,
			cert.Type, cert.Year, cert.CertificateType,
		)
		if err != nil {
			return fmt.Errorf("failed to insert income certificate: %w", err)
		}
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO income_certificates
		   (income_certificate_id, user_id, uuid, value, description,
		    type, year, certificate_type)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''),
		         NULLIF($7, 0), NULLIF($8, ''))
		 ON CONFLICT (user_id, uuid) WHERE uuid IS NOT NULL DO UPDATE SET
		   value            = EXCLUDED.value,
		   description      = EXCLUDED.description,
		   type             = EXCLUDED.type,
		   year             = EXCLUDED.year,
		   certificate_type = EXCLUDED.certificate_type,
		   updated_at       = now()`,
		cert.IncomeCertificateID, cert.UserID, cert.UUID, cert.Value,
		cert.Description, cert.Type, cert.Year, cert.CertificateType,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert income certificate: %w", err)
	}
	return nil
}

// Delete は指定IDの年収入憑証を削除する。所有者の一致しない行は削除しない。
func (r *PostgresIncomeCertificateRepo) Delete(ctx context.Context, incomeCertificateID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM income_certificates WHERE income_certificate_id = $1 AND user_id = $2`,
		incomeCertificateID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete income certificate: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("income certificate not found: %s", incomeCertificateID)
	}
	return nil
}

// compile-time interface check
var _ IncomeCertificateRepository = (*PostgresIncomeCertificateRepo)(nil)
