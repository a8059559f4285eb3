package contracts

import "time"

// ConstituentWeight is one (ETF, member) pair with the member's weight in
// the ETF, in percent [0,100]. 파싱 불가 비중은 0.
type ConstituentWeight struct {
	ETFCode   string  `json:"etf_code"`
	ETFName   string  `json:"etf_name"`
	StockCode string  `json:"stock_code"`
	StockName string  `json:"stock_name"`
	WeightPct float64 `json:"weight_pct"`
}

// ETFScore is the aggregated flow score for one ETF for one run.
// 점수는 합산 후 소수점 버림(truncate)한 정수.
type ETFScore struct {
	ETFCode          string    `json:"etf_code"`
	ETFName          string    `json:"etf_name"`
	TotalScore       int64     `json:"total_score"`
	ForeignScore     int64     `json:"foreign_score"`
	InstitutionScore int64     `json:"institution_score"`
	MemberCount      int       `json:"member_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}
