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

type mockValuationService struct {
	estimateFn func(ctx context.Context, apiKey, assetName, assetType string, details map[string]any) (float64, error)
}

func (m *mockValuationService) EstimateValue(ctx context.Context, apiKey, assetName, assetType string, details map[string]any) (float64, error) {
	return m.estimateFn(ctx, apiKey, assetName, assetType, details)
}

func settingsWithKey(key string) *mockSettingsService {
	return &mockSettingsService{
		findFn: func(ctx context.Context, userID string) (*model.UserSettings, error) {
			return &model.UserSettings{UserID: userID, GeminiAPIKey: key}, nil
		},
	}
}

func TestAIHandler_AnalyzeAssetValue(t *testing.T) {
	var gotAPIKey, gotName, gotType string
	var gotDetails map[string]any
	valuation := &mockValuationService{
		estimateFn: func(ctx context.Context, apiKey, assetName, assetType string, details map[string]any) (float64, error) {
			gotAPIKey, gotName, gotType, gotDetails = apiKey, assetName, assetType, details
			return 3500000, nil
		},
	}
	h := NewAIHandler(valuation, settingsWithKey("key-abc"))

	body := `{"assetName":"台北大安區公寓","assetType":"REAL_ESTATE","assetDetails":{"location":"台北市大安區","size_ping":30}}`
	req := authedRequest(http.MethodPost, "/api/analyze-asset-value",
		strings.NewReader(body), testSession())
	w := httptest.NewRecorder()

	h.AnalyzeAssetValue(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotAPIKey != "key-abc" || gotName != "台北大安區公寓" || gotType != "REAL_ESTATE" {
		t.Errorf("estimate called with (%q, %q, %q)", gotAPIKey, gotName, gotType)
	}
	if gotDetails["location"] != "台北市大安區" {
		t.Errorf("details = %+v", gotDetails)
	}

	var resp struct {
		EstimatedValue float64 `json:"estimatedValue"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.EstimatedValue != 3500000 {
		t.Errorf("estimatedValue = %v, want 3500000", resp.EstimatedValue)
	}
}

// フロントエンドが資産オブジェクト全体を送る場合はmetadataを詳細情報として使う
func TestAIHandler_AnalyzeAssetValue_UnwrapsMetadata(t *testing.T) {
	var gotDetails map[string]any
	valuation := &mockValuationService{
		estimateFn: func(ctx context.Context, apiKey, assetName, assetType string, details map[string]any) (float64, error) {
			gotDetails = details
			return 1, nil
		},
	}
	h := NewAIHandler(valuation, settingsWithKey("key-abc"))

	body := `{"assetName":"Tesla Model 3","assetType":"VEHICLE","assetDetails":{"asset_id":"a-1","metadata":{"model_no":"Model 3","model_year":2022}}}`
	req := authedRequest(http.MethodPost, "/api/analyze-asset-value",
		strings.NewReader(body), testSession())
	w := httptest.NewRecorder()

	h.AnalyzeAssetValue(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotDetails["model_no"] != "Model 3" {
		t.Errorf("details = %+v, want unwrapped metadata", gotDetails)
	}
	if _, ok := gotDetails["asset_id"]; ok {
		t.Error("outer object fields should not be passed as details")
	}
}

func TestAIHandler_AnalyzeAssetValue_NoAPIKey_Returns400(t *testing.T) {
	estimateCalled := false
	valuation := &mockValuationService{
		estimateFn: func(ctx context.Context, apiKey, assetName, assetType string, details map[string]any) (float64, error) {
			estimateCalled = true
			return 0, nil
		},
	}
	h := NewAIHandler(valuation, &mockSettingsService{})

	body := `{"assetName":"Tesla Model 3","assetType":"VEHICLE"}`
	req := authedRequest(http.MethodPost, "/api/analyze-asset-value",
		strings.NewReader(body), testSession())
	w := httptest.NewRecorder()

	h.AnalyzeAssetValue(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	respBody := decodeErrorBody(t, w)
	if respBody.Code != model.ErrCodeGeminiKeyMissing {
		t.Errorf("code = %q, want %q", respBody.Code, model.ErrCodeGeminiKeyMissing)
	}
	if estimateCalled {
		t.Error("estimate should not be called without an API key")
	}
}

func TestAIHandler_AnalyzeAssetValue_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing assetName", `{"assetType":"VEHICLE"}`},
		{"missing assetType", `{"assetName":"Tesla"}`},
		{"broken json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAIHandler(&mockValuationService{}, settingsWithKey("key-abc"))

			req := authedRequest(http.MethodPost, "/api/analyze-asset-value",
				strings.NewReader(tt.body), testSession())
			w := httptest.NewRecorder()

			h.AnalyzeAssetValue(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}
