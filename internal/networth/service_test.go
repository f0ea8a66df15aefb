package networth

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/networth/internal/model"
)

// mockAssetRepo はrepository.AssetRepositoryのモック実装（集計のみ使用）。
type mockAssetRepo struct {
	sumFunc func(ctx context.Context, userID string) (float64, error)
}

func (m *mockAssetRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Asset, error) {
	return nil, nil
}

func (m *mockAssetRepo) FindByID(ctx context.Context, assetID string) (*model.Asset, error) {
	return nil, nil
}

func (m *mockAssetRepo) Upsert(ctx context.Context, asset *model.Asset) error { return nil }

func (m *mockAssetRepo) UpdateValue(ctx context.Context, assetID, userID string, value float64) error {
	return nil
}

func (m *mockAssetRepo) Delete(ctx context.Context, assetID, userID string) error { return nil }

func (m *mockAssetRepo) SumValueByUserID(ctx context.Context, userID string) (float64, error) {
	return m.sumFunc(ctx, userID)
}

// mockLiabilityRepo はrepository.LiabilityRepositoryのモック実装（集計のみ使用）。
type mockLiabilityRepo struct {
	sumFunc func(ctx context.Context, userID string) (float64, error)
}

func (m *mockLiabilityRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Liability, error) {
	return nil, nil
}

func (m *mockLiabilityRepo) Upsert(ctx context.Context, liability *model.Liability) error {
	return nil
}

func (m *mockLiabilityRepo) Delete(ctx context.Context, liabilityID, userID string) error {
	return nil
}

func (m *mockLiabilityRepo) SumBalanceByUserID(ctx context.Context, userID string) (float64, error) {
	return m.sumFunc(ctx, userID)
}

// mockRankRepo はrepository.RankCertificateRepositoryのモック実装。
type mockRankRepo struct {
	createFunc     func(ctx context.Context, cert *model.RankCertificate) error
	findLatestFunc func(ctx context.Context, userID string) (*model.RankCertificate, error)
}

func (m *mockRankRepo) Create(ctx context.Context, cert *model.RankCertificate) error {
	return m.createFunc(ctx, cert)
}

func (m *mockRankRepo) FindLatestByUserID(ctx context.Context, userID string) (*model.RankCertificate, error) {
	return m.findLatestFunc(ctx, userID)
}

func TestService_Summary(t *testing.T) {
	svc := NewService(
		&mockAssetRepo{sumFunc: func(ctx context.Context, userID string) (float64, error) {
			return 10_000_000, nil
		}},
		&mockLiabilityRepo{sumFunc: func(ctx context.Context, userID string) (float64, error) {
			return 3_500_000, nil
		}},
		&mockRankRepo{},
	)

	summary, err := svc.Summary(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.Assets != 10_000_000 {
		t.Errorf("Assets = %v", summary.Assets)
	}
	if summary.Liabilities != 3_500_000 {
		t.Errorf("Liabilities = %v", summary.Liabilities)
	}
	if summary.NetWorth != 6_500_000 {
		t.Errorf("NetWorth = %v", summary.NetWorth)
	}
}

func TestService_Summary_QueryError_Propagates(t *testing.T) {
	svc := NewService(
		&mockAssetRepo{sumFunc: func(ctx context.Context, userID string) (float64, error) {
			return 0, errors.New("db down")
		}},
		&mockLiabilityRepo{sumFunc: func(ctx context.Context, userID string) (float64, error) {
			return 0, nil
		}},
		&mockRankRepo{},
	)

	if _, err := svc.Summary(context.Background(), "user-1"); err == nil {
		t.Error("expected error when an aggregate query fails")
	}
}

// ClaimRankがサーバー側で純資産を再計算し階層を保存することを検証
func TestService_ClaimRank_RecomputesAndStores(t *testing.T) {
	var created *model.RankCertificate
	svc := NewService(
		&mockAssetRepo{sumFunc: func(ctx context.Context, userID string) (float64, error) {
			return 35_000_000, nil
		}},
		&mockLiabilityRepo{sumFunc: func(ctx context.Context, userID string) (float64, error) {
			return 1_000_000, nil
		}},
		&mockRankRepo{createFunc: func(ctx context.Context, cert *model.RankCertificate) error {
			created = cert
			return nil
		}},
	)

	cert, err := svc.ClaimRank(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ClaimRank failed: %v", err)
	}
	if cert.Rank != "人生勝利組S級玩家卡" {
		t.Errorf("Rank = %q", cert.Rank)
	}
	if cert.NetWorth != 34_000_000 {
		t.Errorf("NetWorth = %v", cert.NetWorth)
	}
	if cert.CertificateType != RankCertificateType {
		t.Errorf("CertificateType = %q", cert.CertificateType)
	}
	if created == nil {
		t.Fatal("certificate was not persisted")
	}
}

func TestService_LatestRank_NoneClaimed_ReturnsNil(t *testing.T) {
	svc := NewService(&mockAssetRepo{}, &mockLiabilityRepo{},
		&mockRankRepo{findLatestFunc: func(ctx context.Context, userID string) (*model.RankCertificate, error) {
			return nil, nil
		}},
	)

	cert, err := svc.LatestRank(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("LatestRank failed: %v", err)
	}
	if cert != nil {
		t.Errorf("cert = %+v, want nil", cert)
	}
}
