package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/networth/internal/model"
)

type mockIncomeService struct {
	listFn   func(ctx context.Context, userID string) ([]*model.IncomeCertificate, error)
	deleteFn func(ctx context.Context, incomeCertificateID, userID string) error
}

func (m *mockIncomeService) ListByUserID(ctx context.Context, userID string) ([]*model.IncomeCertificate, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockIncomeService) Delete(ctx context.Context, incomeCertificateID, userID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, incomeCertificateID, userID)
	}
	return nil
}

// 一覧にはDBに保存していない百分位の説明文を付けて返す
func TestIncomeHandler_ListIncomeCertificates_IncludesPercentile(t *testing.T) {
	svc := &mockIncomeService{
		listFn: func(ctx context.Context, userID string) ([]*model.IncomeCertificate, error) {
			return []*model.IncomeCertificate{
				{
					IncomeCertificateID: "income-1",
					UserID:              userID,
					Value:               600000,
					Description:         "薪資所得",
					Type:                "SALARY",
					Year:                2025,
				},
				{
					IncomeCertificateID: "income-2",
					UserID:              userID,
					Value:               2000000,
					Type:                "SALARY",
					Year:                2025,
				},
			}, nil
		},
	}
	h := NewIncomeHandler(svc)

	req := authedRequest(http.MethodGet, "/api/income-certificates", nil, testSession())
	w := httptest.NewRecorder()

	h.ListIncomeCertificates(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("len = %d, want 2", len(body))
	}
	if body[0]["percentile"] != "您的年收入贏過55%的人" {
		t.Errorf("percentile = %v", body[0]["percentile"])
	}
	// 最上位バケット超えは95%
	if body[1]["percentile"] != "您的年收入贏過95%的人" {
		t.Errorf("percentile = %v", body[1]["percentile"])
	}
}

func TestIncomeHandler_ListIncomeCertificates_Empty(t *testing.T) {
	h := NewIncomeHandler(&mockIncomeService{})

	req := authedRequest(http.MethodGet, "/api/income-certificates", nil, testSession())
	w := httptest.NewRecorder()

	h.ListIncomeCertificates(w, req)

	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestIncomeHandler_DeleteIncomeCertificate(t *testing.T) {
	var gotCertID, gotUserID string
	svc := &mockIncomeService{
		deleteFn: func(ctx context.Context, incomeCertificateID, userID string) error {
			gotCertID, gotUserID = incomeCertificateID, userID
			return nil
		},
	}
	h := NewIncomeHandler(svc)

	req := authedRequest(http.MethodDelete, "/api/income-certificates/income-1", nil, testSession())
	req = withURLParam(req, "id", "income-1")
	w := httptest.NewRecorder()

	h.DeleteIncomeCertificate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotCertID != "income-1" || gotUserID != "user-123" {
		t.Errorf("delete called with (%q, %q)", gotCertID, gotUserID)
	}
	if !strings.Contains(w.Body.String(), `"success":true`) {
		t.Errorf("body = %s", w.Body.String())
	}
}
