package contracts

import (
	"fmt"
	"regexp"
	"time"
)

// InvestorGroup classifies the originator of a net-buy/net-sell flow.
// 개인/기타 그룹은 수집 대상이 아니다.
type InvestorGroup string

const (
	InvestorForeigner   InvestorGroup = "Foreigner"
	InvestorInstitution InvestorGroup = "Institution"
)

// RankingKind distinguishes the buy/sell ranking pages.
type RankingKind string

const (
	RankingBuy  RankingKind = "buy"
	RankingSell RankingKind = "sell"
)

var stockCodeRe = regexp.MustCompile(`^[0-9A-Z]{6}$`)

// ValidStockCode reports whether code is a 6-char KRX short code.
func ValidStockCode(code string) bool {
	return stockCodeRe.MatchString(code)
}

// FlowRecord is one investor-group net flow observation for one stock.
// Amount는 억원 단위 부호 있는 값 (양수=순매수, 음수=순매도).
type FlowRecord struct {
	Investor    InvestorGroup `json:"investor"`
	StockCode   string        `json:"stock_code"` // 빈 값 = 코드 미확인
	StockName   string        `json:"stock_name"`
	Amount      float64       `json:"amount"`
	RankingKind RankingKind   `json:"ranking_type"`
	CollectedAt time.Time     `json:"collected_at"`
}

// NaturalKey uniquely identifies a flow record for upsert de-duplication.
func (r FlowRecord) NaturalKey() string {
	return fmt.Sprintf("%s|%s|%s|%s", r.Investor, r.StockCode, r.RankingKind, r.CollectedAt.Format(time.RFC3339))
}

// HasKey reports whether every natural-key field is resolved.
// 코드 미확인 레코드는 원격 저장에서 제외하고 별도 집계한다.
func (r FlowRecord) HasKey() bool {
	return ValidStockCode(r.StockCode) && !r.CollectedAt.IsZero()
}

// TurnoverRecord is one row of the trading-value top-100 ranking.
type TurnoverRecord struct {
	Rank        int       `json:"rank"`
	StockCode   string    `json:"stock_code"`
	StockName   string    `json:"stock_name"`
	Amount      float64   `json:"amount"` // 거래대금, 억원
	ChangeRate  float64   `json:"change_rate"`
	CollectedAt time.Time `json:"collected_at"`
}

// NaturalKey for turnover rows: (stock_code, collected_at).
func (r TurnoverRecord) NaturalKey() string {
	return fmt.Sprintf("%s|%s", r.StockCode, r.CollectedAt.Format(time.RFC3339))
}

// HasKey reports whether the row can be written remotely.
func (r TurnoverRecord) HasKey() bool {
	return ValidStockCode(r.StockCode) && !r.CollectedAt.IsZero()
}

// Holding is one tracked stock from the holdings input tables.
type Holding struct {
	Code string
	Name string
}
