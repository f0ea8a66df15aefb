package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/networth/internal/middleware"
	"github.com/hitoshi/networth/internal/model"
)

// LiabilityServiceInterface は負債ハンドラーが必要とするリポジトリ操作。
type LiabilityServiceInterface interface {
	ListByUserID(ctx context.Context, userID string) ([]*model.Liability, error)
	Delete(ctx context.Context, liabilityID, userID string) error
}

// liabilityJSON は負債のAPIレスポンス表現。
type liabilityJSON struct {
	LiabilityID      string    `json:"liability_id"`
	UserID           string    `json:"user_id"`
	LiabilityType    string    `json:"liability_type"`
	LiabilityName    string    `json:"liability_name"`
	RemainingBalance float64   `json:"remaining_balance"`
	UUID             string    `json:"uuid,omitempty"`
	CertificateType  string    `json:"certificate_type,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toLiabilityJSON(l *model.Liability) liabilityJSON {
	return liabilityJSON{
		LiabilityID:      l.LiabilityID,
		UserID:           l.UserID,
		LiabilityType:    l.LiabilityType,
		LiabilityName:    l.LiabilityName,
		RemainingBalance: l.RemainingBalance,
		UUID:             l.UUID,
		CertificateType:  l.CertificateType,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

// LiabilityHandler は負債管理のHTTPハンドラー。
type LiabilityHandler struct {
	liabilities LiabilityServiceInterface
}

// NewLiabilityHandler はLiabilityHandlerを生成する。
func NewLiabilityHandler(liabilities LiabilityServiceInterface) *LiabilityHandler {
	return &LiabilityHandler{liabilities: liabilities}
}

// ListLiabilities は現在のユーザーの負債一覧を返す。
// GET /api/liabilities
func (h *LiabilityHandler) ListLiabilities(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	liabilities, err := h.liabilities.ListByUserID(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result := make([]liabilityJSON, 0, len(liabilities))
	for _, l := range liabilities {
		result = append(result, toLiabilityJSON(l))
	}
	writeJSON(w, http.StatusOK, result)
}

// DeleteLiability は負債を削除する。所有者の一致しない行は削除されない。
// DELETE /api/liabilities/{id}
func (h *LiabilityHandler) DeleteLiability(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	liabilityID := chi.URLParam(r, "id")
	if liabilityID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("未提供負債 ID。"))
		return
	}

	if err := h.liabilities.Delete(r.Context(), liabilityID, sess.UserID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
