package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/networth/internal/middleware"
	"github.com/hitoshi/networth/internal/model"
)

// UserSettingsServiceInterface はユーザーハンドラーが必要とする設定操作。
type UserSettingsServiceInterface interface {
	FindByUserID(ctx context.Context, userID string) (*model.UserSettings, error)
	UpsertGeminiAPIKey(ctx context.Context, userID, apiKey string) error
}

// UserHandler はユーザー情報と設定のHTTPハンドラー。
type UserHandler struct {
	settings UserSettingsServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(settings UserSettingsServiceInterface) *UserHandler {
	return &UserHandler{settings: settings}
}

// GetCurrentUser は現在のログインユーザー情報を返す。
// Gemini APIキーは値そのものを返さず、設定有無のみ公開する。
// GET /api/user
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	settings, err := h.settings.FindByUserID(r.Context(), sess.UserID)
	if err != nil {
		slog.Error("failed to load user settings",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId": sess.UserID,
		"email":  sess.Email,
		"name":   sess.Name,
		"settings": map[string]any{
			"has_gemini_api_key": settings.HasGeminiAPIKey(),
		},
	})
}

// UpdateSettings はユーザー設定を更新する。
// gemini_api_keyにnullまたは空文字列を渡すとキーを削除する。
// PUT /api/user/settings
func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	var req struct {
		GeminiAPIKey *string `json:"gemini_api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("無效的請求格式。"))
		return
	}

	apiKey := ""
	if req.GeminiAPIKey != nil {
		apiKey = *req.GeminiAPIKey
	}

	if err := h.settings.UpsertGeminiAPIKey(r.Context(), sess.UserID, apiKey); err != nil {
		slog.Error("failed to update user settings",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"settings": map[string]any{
			"has_gemini_api_key": apiKey != "",
		},
	})
}
