package model

import "time"

// IncomeCertificate は年収入憑証1件を表す。
type IncomeCertificate struct {
	IncomeCertificateID string
	UserID              string
	UUID                string
	Value               float64
	Description         string
	Type                string
	Year                int
	CertificateType     string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// RankCertificate は財富階層憑証1件を表す。
// 領取のたびに新しい行が追加され、取得時は最新の1件を返す。
type RankCertificate struct {
	RankCertificateID string
	UserID            string
	Rank              string
	NetWorth          float64
	CertificateType   string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
