package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/networth/internal/issuer"
	"github.com/hitoshi/networth/internal/middleware"
	"github.com/hitoshi/networth/internal/model"
	"github.com/hitoshi/networth/internal/wallet"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response body", slog.String("error", err.Error()))
	}
}

// writeServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// APIErrorは検証エラーとして400、上流API（ウォレット・発行者）の
// エラーは上流のステータスを含めた502、それ以外は500を返す。
func writeServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	var walletErr *wallet.RequestError
	if errors.As(err, &walletErr) {
		middleware.WriteErrorResponse(w, http.StatusBadGateway,
			model.NewUpstreamError(walletErr.StatusCode, walletErr.Body))
		return
	}

	var issuerErr *issuer.RequestError
	if errors.As(err, &issuerErr) {
		middleware.WriteErrorResponse(w, http.StatusBadGateway,
			model.NewUpstreamError(issuerErr.StatusCode, issuerErr.Body))
		return
	}

	slog.Error("request failed", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// sessionOr401 はコンテキストからセッションを取り出す。
// 存在しない場合は401を書き込んでnilを返す。
func sessionOr401(w http.ResponseWriter, r *http.Request) *model.Session {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return nil
	}
	return sess
}
