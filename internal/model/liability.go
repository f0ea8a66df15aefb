package model

import "time"

// 負債種別。ウォレット憑証のtypeクレームに対応する。
const (
	LiabilityTypeMortgage       = "MORTGAGE"
	LiabilityTypePersonalLoan   = "PERSONAL_LOAN"
	LiabilityTypeStudentLoan    = "STUDENT_LOAN"
	LiabilityTypeCarLoan        = "CAR_LOAN"
	LiabilityTypeCreditCardDebt = "CREDIT_CARD_DEBT"
)

// Liability はユーザーの負債1件を表す。
// UUIDの意味はAssetと同じ（憑証再発行時の重複排除キー）。
type Liability struct {
	LiabilityID      string
	UserID           string
	LiabilityType    string
	LiabilityName    string
	RemainingBalance float64
	UUID             string
	CertificateType  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
