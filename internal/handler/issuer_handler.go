package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/networth/internal/issuer"
	"github.com/hitoshi/networth/internal/middleware"
	"github.com/hitoshi/networth/internal/model"
)

// IssuerServiceInterface は憑証発行ハンドラーが必要とするクライアント操作。
type IssuerServiceInterface interface {
	CreateQRCode(ctx context.Context, req issuer.CreateQRCodeRequest) (*issuer.CreateQRCodeResult, error)
	QueryCredential(ctx context.Context, transactionID string) (*issuer.CredentialResult, error)
	Revoke(ctx context.Context, cid string) (*issuer.RevocationResult, error)
}

// IssuerHandler は憑証発行APIのHTTPハンドラー。
type IssuerHandler struct {
	client IssuerServiceInterface
}

// NewIssuerHandler はIssuerHandlerを生成する。
func NewIssuerHandler(client IssuerServiceInterface) *IssuerHandler {
	return &IssuerHandler{client: client}
}

// CreateQRCode は憑証発行用QRコードを生成する。
// POST /api/issuer/create-qrcode
func (h *IssuerHandler) CreateQRCode(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	var req issuer.CreateQRCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VCUid == "" || len(req.Fields) == 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("vcUid 與 fields 為必填欄位。"))
		return
	}

	result, err := h.client.CreateQRCode(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// QueryCredential は発行された憑証を照会する。
// GET /api/issuer/query-credential/{transactionId}
func (h *IssuerHandler) QueryCredential(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	transactionID := chi.URLParam(r, "transactionId")
	if transactionID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("未提供交易 ID。"))
		return
	}

	result, err := h.client.QueryCredential(r.Context(), transactionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RevokeCredential は憑証を撤銷する。
// PUT /api/issuer/revoke-credential/{cid}
func (h *IssuerHandler) RevokeCredential(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	cid := chi.URLParam(r, "cid")
	if cid == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("未提供 CID。"))
		return
	}

	result, err := h.client.Revoke(r.Context(), cid)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
