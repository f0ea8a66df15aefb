package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/networth/internal/model"
	"github.com/hitoshi/networth/internal/networth"
)

// NetWorthServiceInterface は純資産ハンドラーが必要とするサービス操作。
type NetWorthServiceInterface interface {
	Summary(ctx context.Context, userID string) (*model.NetWorthSummary, error)
}

// NetWorthHandler は純資産サマリーのHTTPハンドラー。
type NetWorthHandler struct {
	service NetWorthServiceInterface
}

// NewNetWorthHandler はNetWorthHandlerを生成する。
func NewNetWorthHandler(service NetWorthServiceInterface) *NetWorthHandler {
	return &NetWorthHandler{service: service}
}

// GetSummary は資産・負債の合計、純資産、および台湾家計分布でのPR値を返す。
// GET /api/net-worth-summary
func (h *NetWorthHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	summary, err := h.service.Summary(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"assets":      summary.Assets,
		"liabilities": summary.Liabilities,
		"netWorth":    summary.NetWorth,
		"prValue":     networth.CalculatePRValue(summary.NetWorth),
	})
}
