package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/networth/internal/middleware"
	"github.com/hitoshi/networth/internal/model"
)

// ValuationServiceInterface はAI資産評価ハンドラーが必要とするサービス操作。
type ValuationServiceInterface interface {
	EstimateValue(ctx context.Context, apiKey, assetName, assetType string, details map[string]any) (float64, error)
}

// AIHandler はGeminiによる資産評価のHTTPハンドラー。
type AIHandler struct {
	valuation ValuationServiceInterface
	settings  UserSettingsServiceInterface
}

// NewAIHandler はAIHandlerを生成する。
func NewAIHandler(valuation ValuationServiceInterface, settings UserSettingsServiceInterface) *AIHandler {
	return &AIHandler{valuation: valuation, settings: settings}
}

// AnalyzeAssetValue は資産の現在市場価値をGeminiに推定させる。
// ユーザーごとに保存されたAPIキーを使い、未設定の場合は400を返す。
// POST /api/analyze-asset-value
func (h *AIHandler) AnalyzeAssetValue(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	settings, err := h.settings.FindByUserID(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !settings.HasGeminiAPIKey() {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewGeminiKeyMissingError())
		return
	}

	var req struct {
		AssetName    string         `json:"assetName"`
		AssetType    string         `json:"assetType"`
		AssetDetails map[string]any `json:"assetDetails"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AssetName == "" || req.AssetType == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("assetName 與 assetType 為必填欄位。"))
		return
	}

	// フロントエンドは資産オブジェクト全体を送ることがあるため、
	// metadataフィールドがあればそちらを詳細情報として使う
	details := req.AssetDetails
	if meta, ok := req.AssetDetails["metadata"].(map[string]any); ok {
		details = meta
	}

	value, err := h.valuation.EstimateValue(r.Context(), settings.GeminiAPIKey, req.AssetName, req.AssetType, details)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"estimatedValue": value})
}
