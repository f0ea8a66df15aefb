package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/networth/internal/issuer"
	"github.com/hitoshi/networth/internal/middleware"
	"github.com/hitoshi/networth/internal/model"
	"github.com/hitoshi/networth/internal/networth"
)

// RankServiceInterface は財富階層憑証ハンドラーが必要とするサービス操作。
type RankServiceInterface interface {
	ClaimRank(ctx context.Context, userID string) (*model.RankCertificate, error)
	LatestRank(ctx context.Context, userID string) (*model.RankCertificate, error)
}

// rankCertificateJSON は財富階層憑証のAPIレスポンス表現。
type rankCertificateJSON struct {
	RankCertificateID string    `json:"rank_certificate_id"`
	UserID            string    `json:"user_id"`
	Rank              string    `json:"rank"`
	NetWorth          float64   `json:"net_worth"`
	CertificateType   string    `json:"certificate_type"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toRankCertificateJSON(c *model.RankCertificate) rankCertificateJSON {
	return rankCertificateJSON{
		RankCertificateID: c.RankCertificateID,
		UserID:            c.UserID,
		Rank:              c.Rank,
		NetWorth:          c.NetWorth,
		CertificateType:   c.CertificateType,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// RankHandler は財富階層憑証のHTTPハンドラー。
type RankHandler struct {
	service RankServiceInterface
	issuer  IssuerServiceInterface
}

// NewRankHandler はRankHandlerを生成する。
func NewRankHandler(service RankServiceInterface, issuerClient IssuerServiceInterface) *RankHandler {
	return &RankHandler{service: service, issuer: issuerClient}
}

// Claim は財富階層憑証を領取する。純資産はクライアントの申告値ではなく
// サーバー側で再計算した値を使う。
// POST /api/claim-rank-certificate
func (h *RankHandler) Claim(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	cert, err := h.service.ClaimRank(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"rank":            cert.Rank,
		"netWorth":        cert.NetWorth,
		"certificateType": cert.CertificateType,
	})
}

// Get は最新の財富階層憑証を返す。未領取の場合はexists: falseを返す。
// GET /api/rank-certificate
func (h *RankHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	cert, err := h.service.LatestRank(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if cert == nil {
		writeJSON(w, http.StatusOK, map[string]any{"exists": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"exists":      true,
		"certificate": toRankCertificateJSON(cert),
	})
}

// GenerateIssuerQRCode は財富階層憑証の発行用QRコードを生成する。
// POST /api/rank-certificate/generate-qrcode
func (h *RankHandler) GenerateIssuerQRCode(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Rank         string `json:"rank"`
		IssuanceDate string `json:"issuanceDate"`
		ExpiredDate  string `json:"expiredDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Rank == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("未提供 rank。"))
		return
	}

	result, err := h.issuer.CreateQRCode(r.Context(), issuer.CreateQRCodeRequest{
		VCUid:        networth.RankCertificateType,
		Fields:       []issuer.Field{{Ename: "rank", Content: req.Rank}},
		IssuanceDate: req.IssuanceDate,
		ExpiredDate:  req.ExpiredDate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
