package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/networth/internal/middleware"
	"github.com/hitoshi/networth/internal/model"
)

// AssetServiceInterface は資産ハンドラーが必要とするリポジトリ操作。
type AssetServiceInterface interface {
	ListByUserID(ctx context.Context, userID string) ([]*model.Asset, error)
	UpdateValue(ctx context.Context, assetID, userID string, value float64) error
	Delete(ctx context.Context, assetID, userID string) error
}

// assetJSON は資産のAPIレスポンス表現。
type assetJSON struct {
	AssetID         string    `json:"asset_id"`
	UserID          string    `json:"user_id"`
	AssetType       string    `json:"asset_type"`
	AssetName       string    `json:"asset_name"`
	CurrentValue    float64   `json:"current_value"`
	Location        string    `json:"location,omitempty"`
	SizePing        float64   `json:"size_ping,omitempty"`
	ModelNo         string    `json:"model_no,omitempty"`
	ModelYear       int       `json:"model_year,omitempty"`
	UUID            string    `json:"uuid,omitempty"`
	CertificateType string    `json:"certificate_type,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toAssetJSON(a *model.Asset) assetJSON {
	return assetJSON{
		AssetID:         a.AssetID,
		UserID:          a.UserID,
		AssetType:       a.AssetType,
		AssetName:       a.AssetName,
		CurrentValue:    a.CurrentValue,
		Location:        a.Location,
		SizePing:        a.SizePing,
		ModelNo:         a.ModelNo,
		ModelYear:       a.ModelYear,
		UUID:            a.UUID,
		CertificateType: a.CertificateType,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// AssetHandler は資産管理のHTTPハンドラー。
type AssetHandler struct {
	assets AssetServiceInterface
}

// NewAssetHandler はAssetHandlerを生成する。
func NewAssetHandler(assets AssetServiceInterface) *AssetHandler {
	return &AssetHandler{assets: assets}
}

// ListAssets は現在のユーザーの資産一覧を返す。
// GET /api/assets
func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	assets, err := h.assets.ListByUserID(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result := make([]assetJSON, 0, len(assets))
	for _, a := range assets {
		result = append(result, toAssetJSON(a))
	}
	writeJSON(w, http.StatusOK, result)
}

// UpdateAssetValue は資産の現在価値を更新する。
// PUT /api/assets/{id}
func (h *AssetHandler) UpdateAssetValue(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	assetID := chi.URLParam(r, "id")
	if assetID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("未提供資產 ID。"))
		return
	}

	var req struct {
		CurrentValue *float64 `json:"current_value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CurrentValue == nil || *req.CurrentValue < 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("current_value 必須為大於等於 0 的數值。"))
		return
	}

	if err := h.assets.UpdateValue(r.Context(), assetID, sess.UserID, *req.CurrentValue); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteAsset は資産を削除する。所有者の一致しない行は削除されない。
// DELETE /api/assets/{id}
func (h *AssetHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	assetID := chi.URLParam(r, "id")
	if assetID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("未提供資產 ID。"))
		return
	}

	if err := h.assets.Delete(r.Context(), assetID, sess.UserID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
