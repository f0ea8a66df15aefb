package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// ユーザー向けメッセージはサービスの提供言語（繁体字中国語）で記述する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, certificate, upstream, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeMissingCode         = "MISSING_CODE"
	ErrCodeConfiguration       = "CONFIGURATION_ERROR"
	ErrCodeUpstreamFailed      = "UPSTREAM_REQUEST_FAILED"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeInvalidCertType     = "INVALID_CERTIFICATE_TYPE"
	ErrCodeCertificateNotFound = "CERTIFICATE_NOT_FOUND"
	ErrCodeAssetNotFound       = "ASSET_NOT_FOUND"
	ErrCodeGeminiKeyMissing    = "GEMINI_API_KEY_MISSING"
	ErrCodeTokenDecodeFailed   = "TOKEN_DECODE_FAILED"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "尚未登入或登入已過期。",
		Category: "auth",
		Action:   "請重新登入。",
	}
}

// NewInvalidStateError はOIDCコールバックのstate不一致エラーを生成する。
func NewInvalidStateError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidState,
		Message:  "無效的 state 參數。",
		Category: "auth",
		Action:   "請從登入頁面重新開始登入流程。",
	}
}

// NewMissingCodeError は認可コード欠落エラーを生成する。
func NewMissingCodeError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingCode,
		Message:  "未提供授權碼。",
		Category: "auth",
		Action:   "請從登入頁面重新開始登入流程。",
	}
}

// NewValidationError はリクエスト検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "請確認輸入內容後重試。",
	}
}

// NewInvalidCertificateTypeError は未知の憑証タイプのエラーを生成する。
func NewInvalidCertificateTypeError(certType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCertType,
		Message:  fmt.Sprintf("無效的憑證類型: %s", certType),
		Category: "certificate",
		Action:   "請選擇支援的憑證類型。",
	}
}

// NewUpstreamError は外部API呼び出し失敗のエラーを生成する。
// statusは上流APIのHTTPステータス、detailは上流のエラーメッセージ。
func NewUpstreamError(status int, detail string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFailed,
		Message:  fmt.Sprintf("外部服務回應錯誤 (%d): %s", status, detail),
		Category: "upstream",
		Action:   "請稍後再試。若問題持續發生，請聯絡系統管理員。",
	}
}

// NewGeminiKeyMissingError はGemini APIキー未設定のエラーを生成する。
func NewGeminiKeyMissingError() *APIError {
	return &APIError{
		Code:     ErrCodeGeminiKeyMissing,
		Message:  "Gemini API Key 未設定。",
		Category: "validation",
		Action:   "請前往設定頁面設定您的 API Key。",
	}
}

// NewTokenDecodeError はIDトークンのデコード失敗エラーを生成する。
func NewTokenDecodeError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenDecodeFailed,
		Message:  "無法解析 ID Token。",
		Category: "auth",
		Action:   "請重新登入。若問題持續發生，請聯絡系統管理員。",
	}
}
