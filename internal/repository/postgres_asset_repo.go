package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/networth/internal/model"
)

// PostgresAssetRepo はPostgreSQLを使用した資産リポジトリ。
type PostgresAssetRepo struct {
	db *sql.DB
}

// NewPostgresAssetRepo はPostgresAssetRepoを生成する。
func NewPostgresAssetRepo(db *sql.DB) *PostgresAssetRepo {
	return &PostgresAssetRepo{db: db}
}

const assetColumns = `asset_id, user_id, asset_type, asset_name, current_value,
	location, size_ping, model_no, model_year, uuid, certificate_type,
	created_at, updated_at`

func scanAsset(row interface{ Scan(...any) error }) (*model.Asset, error) {
	asset := &model.Asset{}
	var location, modelNo, certUUID, certType sql.NullString
	var sizePing sql.NullFloat64
	var modelYear sql.NullInt64
	err := row.Scan(
		&asset.AssetID, &asset.UserID, &asset.AssetType, &asset.AssetName,
		&asset.CurrentValue, &location, &sizePing, &modelNo, &modelYear,
		&certUUID, &certType, &asset.CreatedAt, &asset.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	asset.Location = location.String
	asset.SizePing = sizePing.Float64
	asset.ModelNo = modelNo.String
	asset.ModelYear = int(modelYear.Int64)
	asset.UUID = certUUID.String
	asset.CertificateType = certType.String
	return asset, nil
}

// ListByUserID はユーザーの資産一覧をcreated_at降順で返す。
func (r *PostgresAssetRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Asset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*model.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}
	return assets, nil
}

// FindByID は指定IDの資産を取得する。見つからない場合はnilを返す。
func (r *PostgresAssetRepo) FindByID(ctx context.Context, assetID string) (*model.Asset, error) {
	asset, err := scanAsset(r.db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE asset_id = $1`,
		assetID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find asset: %w", err)
	}
	return asset, nil
}

// Upsert は資産を保存する。UUIDが空でない場合は(user_id, uuid)の部分一意
// インデックスをキーに既存行を上書きし、同一憑証の再登記で行が増えない。
// UUIDが空の場合（手動登記等）は常に新規行を作成する。
func (r *PostgresAssetRepo) Upsert(ctx context.Context, asset *model.Asset) error {
	if asset.AssetID == "" {
		asset.AssetID = uuid.New().String()
	}

	if asset.UUID == "" {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO assets
			   (asset_id, user_id, asset_type, asset_name, current_value,
			    location, size_ping, model_no, model_year, uuid, certificate_type)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, 0),
			         NULLIF($8, ''), NULLIF($9, 0), NULL, NULLIF($10, ''))`,
			asset.AssetID, asset.UserID, asset.AssetType, asset.AssetName,
			asset.CurrentValue, asset.Location, asset.SizePing,
			asset.ModelNo, asset.ModelYear, asset.CertificateType,
		)
		if err != nil {
			return fmt.Errorf("failed to insert asset: %w", err)
		}
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO assets
		   (asset_id, user_id, asset_type, asset_name, current_value,
		    location, size_ping, model_no, model_year, uuid, certificate_type)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, 0),
		         NULLIF($8, ''), NULLIF($9, 0), $10, NULLIF($11, ''))
		 ON CONFLICT (user_id, uuid) WHERE uuid IS NOT NULL DO UPDATE SET
		   asset_type       = EXCLUDED.asset_type,
		   asset_name       = EXCLUDED.asset_name,
		   current_value    = EXCLUDED.current_value,
		   location         = EXCLUDED.location,
		   size_ping        = EXCLUDED.size_ping,
		   model_no         = EXCLUDED.model_no,
		   model_year       = EXCLUDED.model_year,
		   certificate_type = EXCLUDED.certificate_type,
		   updated_at       = now()`,
		asset.AssetID, asset.UserID, asset.AssetType, asset.AssetName,
		asset.CurrentValue, asset.Location, asset.SizePing,
		asset.ModelNo, asset.ModelYear, asset.UUID, asset.CertificateType,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert asset: %w", err)
	}
	return nil
}

// UpdateValue は資産の現在価値を更新する。対象が存在しない場合はエラーを返す。
func (r *PostgresAssetRepo) UpdateValue(ctx context.Context, assetID, userID string, value float64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE assets SET current_value = $1, updated_at = now()
		 WHERE asset_id = $2 AND user_id = $3`,
		value, assetID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update asset value: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("asset not found: %s", assetID)
	}
	return nil
}

// Delete は指定IDの資産を削除する。所有者の一致しない行は削除しない。
func (r *PostgresAssetRepo) Delete(ctx context.Context, assetID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM assets WHERE asset_id = $1 AND user_id = $2`,
		assetID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("asset not found: %s", assetID)
	}
	return nil
}

// SumValueByUserID はユーザーの資産current_valueの合計を返す。
func (r *PostgresAssetRepo) SumValueByUserID(ctx context.Context, userID string) (float64, error) {
	var sum float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(current_value), 0) FROM assets WHERE user_id = $1`,
		userID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum asset values: %w", err)
	}
	return sum, nil
}

// compile-time interface check
var _ AssetRepository = (*PostgresAssetRepo)(nil)
