package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/networth/internal/middleware"
	"github.com/hitoshi/networth/internal/model"
	"github.com/hitoshi/networth/internal/networth"
)

// IncomeCertificateServiceInterface は年収入憑証ハンドラーが必要とするリポジトリ操作。
type IncomeCertificateServiceInterface interface {
	ListByUserID(ctx context.Context, userID string) ([]*model.IncomeCertificate, error)
	Delete(ctx context.Context, incomeCertificateID, userID string) error
}

// incomeCertificateJSON は年収入憑証のAPIレスポンス表現。
// percentileはその年収入が分布のどこに位置するかの説明文。
type incomeCertificateJSON struct {
	IncomeCertificateID string    `json:"income_certificate_id"`
	UserID              string    `json:"user_id"`
	UUID                string    `json:"uuid,omitempty"`
	Value               float64   `json:"value"`
	Description         string    `json:"description"`
	Type                string    `json:"type"`
	Year                int       `json:"year"`
	CertificateType     string    `json:"certificate_type,omitempty"`
	Percentile          string    `json:"percentile,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func toIncomeCertificateJSON(c *model.IncomeCertificate) incomeCertificateJSON {
	return incomeCertificateJSON{
		IncomeCertificateID: c.IncomeCertificateID,
		UserID:              c.UserID,
		UUID:                c.UUID,
		Value:               c.Value,
		Description:         c.Description,
		Type:                c.Type,
		Year:                c.Year,
		CertificateType:     c.CertificateType,
		Percentile:          networth.CalculateIncomePercentile(c.Value),
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// IncomeHandler は年収入憑証のHTTPハンドラー。
type IncomeHandler struct {
	incomes IncomeCertificateServiceInterface
}

// NewIncomeHandler はIncomeHandlerを生成する。
func NewIncomeHandler(incomes IncomeCertificateServiceInterface) *IncomeHandler {
	return &IncomeHandler{incomes: incomes}
}

// ListIncomeCertificates は現在のユーザーの年収入憑証一覧を返す。
// GET /api/income-certificates
func (h *IncomeHandler) ListIncomeCertificates(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	certs, err := h.incomes.ListByUserID(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result := make([]incomeCertificateJSON, 0, len(certs))
	for _, c := range certs {
		result = append(result, toIncomeCertificateJSON(c))
	}
	writeJSON(w, http.StatusOK, result)
}

// DeleteIncomeCertificate は年収入憑証を削除する。
// DELETE /api/income-certificates/{id}
func (h *IncomeHandler) DeleteIncomeCertificate(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	certID := chi.URLParam(r, "id")
	if certID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("未提供憑證 ID。"))
		return
	}

	if err := h.incomes.Delete(r.Context(), certID, sess.UserID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
