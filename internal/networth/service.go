// Package networth は純資産の集計と財富階層憑証の判定を提供する。
package networth

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/networth/internal/model"
	"github.com/hitoshi/networth/internal/repository"
)

// RankCertificateType は財富階層憑証のvcテンプレートID。
const RankCertificateType = "0052696330_vc_asset_player_rank_certificate"

// Service は純資産集計のビジネスロジックを提供する。
type Service struct {
	assets      repository.AssetRepository
	liabilities repository.LiabilityRepository
	ranks       repository.RankCertificateRepository
}

// NewService はServiceを生成する。
func NewService(
	assets repository.AssetRepository,
	liabilities repository.LiabilityRepository,
	ranks repository.RankCertificateRepository,
) *Service {
	return &Service{assets: assets, liabilities: liabilities, ranks: ranks}
}

// Summary は資産合計・負債合計・純資産を返す。
// 2つの集計クエリは並行に実行する。トランザクションは張らない
// （ダッシュボード表示用のベストエフォートな数値であるため）。
func (s *Service) Summary(ctx context.Context, userID string) (*model.NetWorthSummary, error) {
	var assets, liabilities float64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		assets, err = s.assets.SumValueByUserID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		liabilities, err = s.liabilities.SumBalanceByUserID(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to aggregate net worth: %w", err)
	}

	return &model.NetWorthSummary{
		Assets:      assets,
		Liabilities: liabilities,
		NetWorth:    assets - liabilities,
	}, nil
}

// ClaimRank は純資産をサーバー側で再計算して財富階層を判定し、
// 憑証として保存して返す。領取のたびに新しい行が追加される。
func (s *Service) ClaimRank(ctx context.Context, userID string) (*model.RankCertificate, error) {
	summary, err := s.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}

	cert := &model.RankCertificate{
		UserID:          userID,
		Rank:            RankTier(summary.NetWorth),
		NetWorth:        summary.NetWorth,
		CertificateType: RankCertificateType,
	}
	if err := s.ranks.Create(ctx, cert); err != nil {
		return nil, fmt.Errorf("failed to save rank certificate: %w", err)
	}

	slog.Info("rank certificate claimed",
		slog.String("user_id", userID),
		slog.String("rank", cert.Rank),
	)
	return cert, nil
}

// LatestRank はユーザーの最新の財富階層憑証を返す。未領取の場合はnilを返す。
func (s *Service) LatestRank(ctx context.Context, userID string) (*model.RankCertificate, error) {
	return s.ranks.FindLatestByUserID(ctx, userID)
}
