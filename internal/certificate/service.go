// Package certificate はウォレット憑証の登記フローを提供する。
// QRコード生成、提示結果のポーリング、提示されたクレームの永続化を行う。
package certificate

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/networth/internal/metrics"
	"github.com/hitoshi/networth/internal/model"
	"github.com/hitoshi/networth/internal/repository"
	"github.com/hitoshi/networth/internal/wallet"
)

// ポーリング結果のステータス。
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// pendingMessage はユーザーがまだ憑証を提示していないときの案内文。
const pendingMessage = "請掃描 QR Code 並上傳資料"

// certificateTypes は受け付ける憑証種別（vpテンプレートID）と表示名。
var certificateTypes = map[string]string{
	"0052696330_vp_liquid_finance_certificate":    "流動性金融憑證",
	"0052696330_vp_real_estate_asset_certificate": "不動產資產憑證",
	"0052696330_vp_personal_property_certificate": "動產憑證",
	"0052696330_vp_credit_liability_certificate":  "信用與負債憑證",
	"0052696330_vp_income_certificate":            "年收入憑證",
}

// certTypeCategories はvpテンプレートIDから保存先カテゴリへの対応。
var certTypeCategories = map[string]string{
	"0052696330_vp_liquid_finance_certificate":    "liquid_finance",
	"0052696330_vp_real_estate_asset_certificate": "real_estate",
	"0052696330_vp_personal_property_certificate": "personal_property",
	"0052696330_vp_credit_liability_certificate":  "credit_liability",
	"0052696330_vp_income_certificate":            "income",
}

// IsValidType は憑証種別が受け付け対象かを返す。
func IsValidType(certificateType string) bool {
	_, ok := certificateTypes[certificateType]
	return ok
}

// TypeLabel は憑証種別の表示名を返す。未知の種別は空文字列。
func TypeLabel(certificateType string) string {
	return certificateTypes[certificateType]
}

// WalletClient はウォレットAPIクライアントのインターフェース。
type WalletClient interface {
	GenerateQRCode(ctx context.Context, ref, transactionID string) (*wallet.QRCodeResult, error)
	PollResult(ctx context.Context, transactionID string) (*wallet.VerifyResult, error)
}

// SaveResult は提示されたクレームの保存結果。
type SaveResult struct {
	Success    bool     `json:"success"`
	SavedCount int      `json:"savedCount"`
	Errors     []string `json:"errors,omitempty"`
}

// PollOutcome は提示結果ポーリングの結果。
// StatusがStatusPendingの間はSaveとDataは空。
type PollOutcome struct {
	Status            string              `json:"status"`
	Message           string              `json:"message,omitempty"`
	VerifyResult      bool                `json:"verifyResult,omitempty"`
	ResultDescription string              `json:"resultDescription,omitempty"`
	Data              []wallet.Credential `json:"data,omitempty"`
	Save              *SaveResult         `json:"databaseSave,omitempty"`
}

// Service は憑証登記フローのビジネスロジックを提供する。
type Service struct {
	wallet      WalletClient
	users       repository.UserRepository
	assets      repository.AssetRepository
	liabilities repository.LiabilityRepository
	incomes     repository.IncomeCertificateRepository
	metrics     metrics.MetricsCollector
}

// NewService はServiceを生成する。
func NewService(
	walletClient WalletClient,
	users repository.UserRepository,
	assets repository.AssetRepository,
	liabilities repository.LiabilityRepository,
	incomes repository.IncomeCertificateRepository,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		wallet:      walletClient,
		users:       users,
		assets:      assets,
		liabilities: liabilities,
		incomes:     incomes,
		metrics:     collector,
	}
}

// GenerateQRCode は憑証登記用QRコードを生成する。
// certificateTypeは5種のvpテンプレートIDのいずれか。トランザクションIDは
// サーバー側で採番し、クライアントはこのIDで結果をポーリングする。
func (s *Service) GenerateQRCode(ctx context.Context, certificateType string) (*wallet.QRCodeResult, error) {
	if !IsValidType(certificateType) {
		return nil, model.NewInvalidCertificateTypeError(certificateType)
	}

	transactionID := uuid.New().String()

	start := time.Now()
	result, err := s.wallet.GenerateQRCode(ctx, certificateType, transactionID)
	s.metrics.RecordUpstreamLatency("wallet", time.Since(start))
	if err != nil {
		s.metrics.RecordWalletCall("qrcode", "failure")
		return nil, err
	}
	s.metrics.RecordWalletCall("qrcode", "success")

	return result, nil
}

// PollResult は憑証提示結果を取得し、提示が完了していればクレームを保存する。
// sessはポーリングしているユーザーのセッション。保存先のユーザー行が
// 存在しない場合はセッションの識別情報から作成する。
func (s *Service) PollResult(ctx context.Context, sess *model.Session, transactionID string) (*PollOutcome, error) {
	start := time.Now()
	result, err := s.wallet.PollResult(ctx, transactionID)
	s.metrics.RecordUpstreamLatency("wallet", time.Since(start))
	if err != nil {
		s.metrics.RecordWalletCall("poll", "failure")
		s.metrics.RecordPollStatus("error")
		return nil, err
	}
	s.metrics.RecordWalletCall("poll", "success")

	// nilはウォレット側がまだ結果を持っていない状態
	if result == nil || len(result.Data) == 0 {
		s.metrics.RecordPollStatus(StatusPending)
		return &PollOutcome{Status: StatusPending, Message: pendingMessage}, nil
	}

	save := s.saveCredential(ctx, sess, &result.Data[0])
	s.metrics.RecordPollStatus(StatusCompleted)

	return &PollOutcome{
		Status:            StatusCompleted,
		VerifyResult:      result.VerifyResult,
		ResultDescription: result.ResultDescription,
		Data:              result.Data,
		Save:              save,
	}, nil
}

// saveCredential は提示された憑証のクレームを対応するテーブルへ保存する。
// 保存失敗は呼び出し自体のエラーにせず、SaveResultに記録して返す
// （ポーリングのレスポンスとしては提示完了を伝える必要があるため）。
func (s *Service) saveCredential(ctx context.Context, sess *model.Session, cred *wallet.Credential) *SaveResult {
	if len(cred.Claims) == 0 {
		return &SaveResult{Success: false}
	}

	userID, err := s.ensureUser(ctx, sess)
	if err != nil {
		slog.Error("failed to ensure user for credential save",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
		return &SaveResult{Success: false, Errors: []string{err.Error()}}
	}

	claims := cred.ClaimsMap()
	typeClaim := claims["type"]

	refVC := cred.RefVC
	if refVC == "" {
		refVC = inferRefVC(typeClaim)
	}
	category := certTypeCategories[refVC]

	itemUUID := claims["uuid"]
	if itemUUID == "" {
		itemUUID = cred.VCUid
	}
	name := claims["description"]
	if name == "" {
		name = "未命名項目"
	}
	value, _ := strconv.ParseFloat(claims["value"], 64)

	var saveErr error
	switch category {
	case "liquid_finance":
		// typeクレームは単数形のCASH_AND_EQUIVALENTで届くことがある
		assetType := model.AssetTypeCashAndEquivalents
		if typeClaim == model.AssetTypeSecurities {
			assetType = model.AssetTypeSecurities
		}
		saveErr = s.assets.Upsert(ctx, &model.Asset{
			UserID:          userID,
			AssetType:       assetType,
			AssetName:       name,
			CurrentValue:    value,
			UUID:            itemUUID,
			CertificateType: refVC,
		})

	case "real_estate":
		sizePing, _ := strconv.ParseFloat(claims["size_ping"], 64)
		saveErr = s.assets.Upsert(ctx, &model.Asset{
			UserID:          userID,
			AssetType:       model.AssetTypeRealEstate,
			AssetName:       name,
			CurrentValue:    value,
			Location:        claims["location"],
			SizePing:        sizePing,
			UUID:            itemUUID,
			CertificateType: refVC,
		})

	case "personal_property":
		modelYear, _ := strconv.Atoi(claims["model_year"])
		saveErr = s.assets.Upsert(ctx, &model.Asset{
			UserID:          userID,
			AssetType:       model.AssetTypeVehicle,
			AssetName:       name,
			CurrentValue:    value,
			ModelNo:         claims["model_no"],
			ModelYear:       modelYear,
			UUID:            itemUUID,
			CertificateType: refVC,
		})

	case "credit_liability":
		liabilityType := typeClaim
		if liabilityType == "" {
			liabilityType = model.LiabilityTypePersonalLoan
		}
		saveErr = s.liabilities.Upsert(ctx, &model.Liability{
			UserID:           userID,
			LiabilityType:    liabilityType,
			LiabilityName:    name,
			RemainingBalance: value,
			UUID:             itemUUID,
			CertificateType:  refVC,
		})

	case "income":
		year, err := strconv.Atoi(claims["year"])
		if err != nil || year == 0 {
			year = time.Now().Year()
		}
		description := claims["description"]
		if description == "" {
			description = "年收入"
		}
		incomeType := typeClaim
		if incomeType == "" {
			incomeType = "ANNUAL_INCOME"
		}
		saveErr = s.incomes.Upsert(ctx, &model.IncomeCertificate{
			UserID:          userID,
			UUID:            itemUUID,
			Value:           value,
			Description:     description,
			Type:            incomeType,
			Year:            year,
			CertificateType: refVC,
		})

	default:
		slog.Warn("unknown certificate type in poll result",
			slog.String("ref_vc", refVC),
			slog.String("type_claim", typeClaim),
		)
		return &SaveResult{Success: false, Errors: []string{"unknown certificate type: " + refVC}}
	}

	if saveErr != nil {
		slog.Error("failed to save credential claims",
			slog.String("user_id", userID),
			slog.String("category", category),
			slog.String("error", saveErr.Error()),
		)
		return &SaveResult{Success: false, Errors: []string{saveErr.Error()}}
	}

	slog.Info("credential claims saved",
		slog.String("user_id", userID),
		slog.String("category", category),
		slog.String("uuid", itemUUID),
	)
	return &SaveResult{Success: true, SavedCount: 1}
}

// ensureUser は保存先のユーザー行を確保し、実際のユーザーIDを返す。
// セッションのUserIDが縮退値（email）の場合もここで正規のユーザー行に解決される。
func (s *Service) ensureUser(ctx context.Context, sess *model.Session) (string, error) {
	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return "", err
	}
	if user != nil {
		return user.UserID, nil
	}

	email := sess.Email
	if email == "" {
		email = sess.UserID
	}
	user, err = s.users.EnsureByEmail(ctx, email, sess.Name)
	if err != nil {
		return "", err
	}
	return user.UserID, nil
}

// inferRefVC はtypeクレームから憑証種別を推定する。refVCが欠落した
// レスポンスへの後方互換。未知のtypeは空文字列を返す。
func inferRefVC(typeClaim string) string {
	switch typeClaim {
	case "CASH_AND_EQUIVALENT", model.AssetTypeSecurities:
		return "0052696330_vp_liquid_finance_certificate"
	case model.AssetTypeRealEstate:
		return "0052696330_vp_real_estate_asset_certificate"
	case model.AssetTypeVehicle:
		return "0052696330_vp_personal_property_certificate"
	case model.LiabilityTypeMortgage, model.LiabilityTypePersonalLoan,
		model.LiabilityTypeStudentLoan, model.LiabilityTypeCarLoan,
		model.LiabilityTypeCreditCardDebt:
		return "0052696330_vp_credit_liability_certificate"
	case "ANNUAL_INCOME":
		return "0052696330_vp_income_certificate"
	}
	return ""
}
