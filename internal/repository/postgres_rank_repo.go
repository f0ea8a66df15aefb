package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/networth/internal/model"
)

// PostgresRankCertificateRepo はPostgreSQLを使用した財富階層憑証リポジトリ。
type PostgresRankCertificateRepo struct {
	db *sql.DB
}

// NewPostgresRankCertificateRepo はPostgresRankCertificateRepoを生成する。
func NewPostgresRankCertificateRepo(db *sql.DB) *PostgresRankCertificateRepo {
	return &PostgresRankCertificateRepo{db: db}
}

// Create は財富階層憑証を追加する。領取のたびに行が増え、履歴が残る。
func (r *PostgresRankCertificateRepo) Create(ctx context.Context, cert *model.RankCertificate) error {
	if cert.RankCertificateID == "" {
		cert.RankCertificateID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rank_certificates
		   (rank_certificate_id, user_id, rank, net_worth, certificate_type)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''))`,
		cert.RankCertificateID, cert.UserID, cert.Rank, cert.NetWorth, cert.CertificateType,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rank certificate: %w", err)
	}
	return nil
}

// FindLatestByUserID はユーザーの最新の財富階層憑証を返す。未領取の場合はnilを返す。
func (r *PostgresRankCertificateRepo) FindLatestByUserID(ctx context.Context, userID string) (*model.RankCertificate, error) {
	cert := &model.RankCertificate{}
	var certType sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT rank_certificate_id, user_id, rank, net_worth, certificate_type,
		        created_at, updated_at
		 FROM rank_certificates WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		userID,
	).Scan(&cert.RankCertificateID, &cert.UserID, &cert.Rank, &cert.NetWorth,
		&certType, &cert.CreatedAt, &cert.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest rank certificate: %w", err)
	}

	cert.CertificateType = certType.String
	return cert, nil
}

// compile-time interface check
var _ RankCertificateRepository = (*PostgresRankCertificateRepo)(nil)
