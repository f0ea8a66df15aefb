package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/networth/internal/certificate"
	"github.com/hitoshi/networth/internal/middleware"
	"github.com/hitoshi/networth/internal/model"
	"github.com/hitoshi/networth/internal/wallet"
)

// CertificateServiceInterface は憑証登記ハンドラーが必要とするサービス操作。
type CertificateServiceInterface interface {
	GenerateQRCode(ctx context.Context, certificateType string) (*wallet.QRCodeResult, error)
	PollResult(ctx context.Context, sess *model.Session, transactionID string) (*certificate.PollOutcome, error)
}

// CertificateHandler は憑証登記フローのHTTPハンドラー。
type CertificateHandler struct {
	service CertificateServiceInterface
}

// NewCertificateHandler はCertificateHandlerを生成する。
func NewCertificateHandler(service CertificateServiceInterface) *CertificateHandler {
	return &CertificateHandler{service: service}
}

// GenerateQRCode は憑証登記用QRコードを生成する。
// POST /api/generate-certificate-qrcode
func (h *CertificateHandler) GenerateQRCode(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	var req struct {
		CertificateType string `json:"certificateType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CertificateType == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("未提供憑證類型。"))
		return
	}

	result, err := h.service.GenerateQRCode(r.Context(), req.CertificateType)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// PollResult は憑証提示結果をポーリングする。ユーザーがまだ提示していない
// 間はstatus "pending"、提示済みならクレームの保存結果を含めて返す。
// POST /api/poll-certificate-result
func (h *CertificateHandler) PollResult(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	var req struct {
		TransactionID string `json:"transactionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TransactionID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("未提供交易 ID。"))
		return
	}

	outcome, err := h.service.PollResult(r.Context(), sess, req.TransactionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}
