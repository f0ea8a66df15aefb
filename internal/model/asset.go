package model

import "time"

// 資産種別。ウォレット憑証のtypeクレームに対応する。
const (
	AssetTypeCashAndEquivalents = "CASH_AND_EQUIVALENTS"
	AssetTypeSecurities         = "SECURITIES"
	AssetTypeRealEstate         = "REAL_ESTATE"
	AssetTypeVehicle            = "VEHICLE"
)

// Asset はユーザーの資産1件を表す。
// UUIDは再発行された憑証の重複排除キー。同一(user_id, uuid)の
// 後続クレームが先行クレームを上書きする。
type Asset struct {
	AssetID         string
	UserID          string
	AssetType       string
	AssetName       string
	CurrentValue    float64
	Location        string  // REAL_ESTATEのみ
	SizePing        float64 // REAL_ESTATEのみ（坪）
	ModelNo         string  // VEHICLEのみ
	ModelYear       int     // VEHICLEのみ
	UUID            string
	CertificateType string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NetWorthSummary は資産・負債の合計と純資産を表す。
type NetWorthSummary struct {
	Assets      float64 `json:"assets"`
	Liabilities float64 `json:"liabilities"`
	NetWorth    float64 `json:"netWorth"`
}
