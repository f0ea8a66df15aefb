// Package valuation はGemini APIによる資産の市場価値推定を提供する。
package valuation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

// Service はGemini APIを使った資産評価サービス。
// APIキーはユーザーごとに保存されたものをリクエスト単位で受け取る。
type Service struct {
	model  string
	logger *slog.Logger
}

// NewService はServiceを生成する。
func NewService(model string, logger *slog.Logger) *Service {
	return &Service{model: model, logger: logger}
}

// EstimateValue は資産情報からGeminiに現在の市場価値（新台幣）を推定させる。
// 応答は数字のみを期待し、数値として解釈できない場合はエラーを返す。
func (s *Service) EstimateValue(ctx context.Context, apiKey, assetName, assetType string, details map[string]any) (float64, error) {
	if apiKey == "" {
		return 0, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create gemini client: %w", err)
	}

	prompt := buildValuationPrompt(assetName, assetType, details)

	resp, err := client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return 0, fmt.Errorf("gemini request failed: %w", err)
	}

	text := resp.Text()
	s.logger.Debug("gemini valuation response",
		slog.String("asset_type", assetType),
		slog.String("response", text),
	)

	value, err := parseValuationResponse(text)
	if err != nil {
		return 0, err
	}
	return value, nil
}

// buildValuationPrompt は資産種別ごとの詳細を含む繁体字中国語のプロンプトを組み立てる。
func buildValuationPrompt(assetName, assetType string, details map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "資產名稱: %s\n", assetName)
	fmt.Fprintf(&b, "資產類型: %s\n", assetType)

	switch assetType {
	case "REAL_ESTATE":
		if len(details) > 0 {
			fmt.Fprintf(&b, "地址: %s\n", detailString(details, "location"))
			fmt.Fprintf(&b, "坪數: %s 坪\n", detailString(details, "size_ping"))
		}
	case "VEHICLE":
		if len(details) > 0 {
			fmt.Fprintf(&b, "型號: %s\n", detailString(details, "model_no"))
			fmt.Fprintf(&b, "年份: %s\n", detailString(details, "model_year"))
			b.WriteString("請考慮目前時間與二手車折舊率，常用的估價方式為 (新車價 * 0.8) - (新車價 * 5% * 年齡)")
		}
	default:
		if len(details) > 0 {
			raw, err := json.Marshal(details)
			if err == nil {
				fmt.Fprintf(&b, "其他詳細資訊: %s\n", raw)
			}
		}
	}

	return fmt.Sprintf(`請根據以下資產資訊，評估其當前的市場價值(TWD)。

---
[資產資訊]
%s
---

[任務指示]
1. 評估幣別為新台幣 (TWD)。
2. 請回傳估算的**總價值**。
3. 您的回覆必須**僅僅**包含一個純數字格式的金額。
4. **不要**使用任何縮寫（例如「萬」或「百萬」）。
5. **不要**包含任何文字說明、貨幣符號、千分位逗號或標點符號。

例如：如果估算價值為新台幣三百五十萬 (3,500,000)，請回傳：
3500000`, strings.TrimSpace(b.String()))
}

// detailString は詳細マップの値を文字列化する。JSON由来の数値はfloat64で届く。
func detailString(details map[string]any, key string) string {
	v, ok := details[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// parseValuationResponse は応答から数字と小数点以外を取り除いて数値に変換する。
func parseValuationResponse(text string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, text)

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("gemini returned a non-numeric response: %q", text)
	}
	return value, nil
}
