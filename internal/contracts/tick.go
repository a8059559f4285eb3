package contracts

import (
	"fmt"
	"time"
)

// TickSnapshot is one Kiwoom 주식체결(0B) snapshot for one stock,
// REST(ka10006) 폴링과 웹소켓 스트림이 같은 모양을 공유한다.
type TickSnapshot struct {
	StockCode    string    `json:"stk_cd"`
	StockName    string    `json:"stk_nm"`
	TradeDate    string    `json:"date"` // 원본 API의 거래일/체결시간 문자열
	ClosePrice   float64   `json:"close_pric"`
	Change       float64   `json:"pre"`    // 전일대비, 부호 보존
	ChangeRate   float64   `json:"flu_rt"` // 등락율
	OpenPrice    float64   `json:"open_pric"`
	HighPrice    float64   `json:"high_pric"`
	LowPrice     float64   `json:"low_pric"`
	Volume       int64     `json:"trde_qty"`
	TradingValue int64     `json:"trde_prica"`
	Strength     float64   `json:"cntr_str"` // 체결강도
	CollectedAt  time.Time `json:"collected_at"`
}

// NaturalKey for snapshots: (stock_code, collected_at).
func (t TickSnapshot) NaturalKey() string {
	return fmt.Sprintf("%s|%s", t.StockCode, t.CollectedAt.Format(time.RFC3339))
}

// HasKey reports whether the snapshot can be written remotely.
func (t TickSnapshot) HasKey() bool {
	return ValidStockCode(t.StockCode) && !t.CollectedAt.IsZero()
}
