package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/networth/internal/model"
)

type mockAssetService struct {
	listFn   func(ctx context.Context, userID string) ([]*model.Asset, error)
	updateFn func(ctx context.Context, assetID, userID string, value float64) error
	deleteFn func(ctx context.Context, assetID, userID string) error
}

func (m *mockAssetService) ListByUserID(ctx context.Context, userID string) ([]*model.Asset, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockAssetService) UpdateValue(ctx context.Context, assetID, userID string, value float64) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, assetID, userID, value)
	}
	return nil
}

func (m *mockAssetService) Delete(ctx context.Context, assetID, userID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, assetID, userID)
	}
	return nil
}

// chiのURLパラメータをコンテキストに詰める
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestAssetHandler_ListAssets(t *testing.T) {
	now := time.Now()
	svc := &mockAssetService{
		listFn: func(ctx context.Context, userID string) ([]*model.Asset, error) {
			return []*model.Asset{
				{
					AssetID:      "asset-1",
					UserID:       userID,
					AssetType:    model.AssetTypeRealEstate,
					AssetName:    "台北大安區公寓",
					CurrentValue: 25000000,
					Location:     "台北市大安區",
					SizePing:     30,
					CreatedAt:    now,
					UpdatedAt:    now,
				},
				{
					AssetID:      "asset-2",
					UserID:       userID,
					AssetType:    model.AssetTypeVehicle,
					AssetName:    "Tesla Model 3",
					CurrentValue: 1200000,
					ModelNo:      "Model 3",
					ModelYear:    2022,
					CreatedAt:    now,
					UpdatedAt:    now,
				},
			}, nil
		},
	}
	h := NewAssetHandler(svc)

	req := authedRequest(http.MethodGet, "/api/assets", nil, testSession())
	w := httptest.NewRecorder()

	h.ListAssets(w, req)

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
	if body[0]["asset_id"] != "asset-1" || body[0]["location"] != "台北市大安區" {
		t.Errorf("unexpected first asset: %+v", body[0])
	}
	if body[1]["model_year"] != float64(2022) {
		t.Errorf("model_year = %v, want 2022", body[1]["model_year"])
	}
	// 車両に不動産専用フィールドは含まれない
	if _, ok := body[1]["location"]; ok {
		t.Error("vehicle asset should omit location")
	}
}

// 資産ゼロ件はnullではなく空配列を返す
func TestAssetHandler_ListAssets_Empty(t *testing.T) {
	h := NewAssetHandler(&mockAssetService{})

	req := authedRequest(http.MethodGet, "/api/assets", nil, testSession())
	w := httptest.NewRecorder()

	h.ListAssets(w, req)

	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestAssetHandler_UpdateAssetValue(t *testing.T) {
	var gotAssetID, gotUserID string
	var gotValue float64
	svc := &mockAssetService{
		updateFn: func(ctx context.Context, assetID, userID string, value float64) error {
			gotAssetID, gotUserID, gotValue = assetID, userID, value
			return nil
		},
	}
	h := NewAssetHandler(svc)

	req := authedRequest(http.MethodPut, "/api/assets/asset-1",
		strings.NewReader(`{"current_value":980000}`), testSession())
	req = withURLParam(req, "id", "asset-1")
	w := httptest.NewRecorder()

	h.UpdateAssetValue(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotAssetID != "asset-1" || gotUserID != "user-123" || gotValue != 980000 {
		t.Errorf("update called with (%q, %q, %v)", gotAssetID, gotUserID, gotValue)
	}
	if !strings.Contains(w.Body.String(), `"success":true`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAssetHandler_UpdateAssetValue_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing value", `{}`},
		{"negative value", `{"current_value":-1}`},
		{"non numeric", `{"current_value":"abc"}`},
		{"broken json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updateCalled := false
			svc := &mockAssetService{
				updateFn: func(ctx context.Context, assetID, userID string, value float64) error {
					updateCalled = true
					return nil
				},
			}
			h := NewAssetHandler(svc)

			req := authedRequest(http.MethodPut, "/api/assets/asset-1",
				strings.NewReader(tt.body), testSession())
			req = withURLParam(req, "id", "asset-1")
			w := httptest.NewRecorder()

			h.UpdateAssetValue(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if updateCalled {
				t.Error("update should not be called on invalid input")
			}
		})
	}
}

// 0への更新は許可される
func TestAssetHandler_UpdateAssetValue_Zero(t *testing.T) {
	h := NewAssetHandler(&mockAssetService{})

	req := authedRequest(http.MethodPut, "/api/assets/asset-1",
		strings.NewReader(`{"current_value":0}`), testSession())
	req = withURLParam(req, "id", "asset-1")
	w := httptest.NewRecorder()

	h.UpdateAssetValue(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAssetHandler_DeleteAsset(t *testing.T) {
	var gotAssetID, gotUserID string
	svc := &mockAssetService{
		deleteFn: func(ctx context.Context, assetID, userID string) error {
			gotAssetID, gotUserID = assetID, userID
			return nil
		},
	}
	h := NewAssetHandler(svc)

	req := authedRequest(http.MethodDelete, "/api/assets/asset-9", nil, testSession())
	req = withURLParam(req, "id", "asset-9")
	w := httptest.NewRecorder()

	h.DeleteAsset(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotAssetID != "asset-9" || gotUserID != "user-123" {
		t.Errorf("delete called with (%q, %q)", gotAssetID, gotUserID)
	}
}
