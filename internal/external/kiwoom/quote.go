package kiwoom

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/internal/krparse"
)

// APIMinuteQuote is the 주식시분요청 API id.
const APIMinuteQuote = "ka10006"

// minuteQuoteResponse is the flat ka10006 response body.
// 모든 수치 필드는 부호/콤마가 섞인 문자열로 내려온다.
type minuteQuoteResponse struct {
	ReturnCode int    `json:"return_code"`
	ReturnMsg  string `json:"return_msg"`
	Date       string `json:"date"`
	ClosePric  string `json:"close_pric"`
	Pre        string `json:"pre"`
	FluRt      string `json:"flu_rt"`
	OpenPric   string `json:"open_pric"`
	HighPric   string `json:"high_pric"`
	LowPric    string `json:"low_pric"`
	TrdeQty    string `json:"trde_qty"`
	TrdePrica  string `json:"trde_prica"`
	CntrStr    string `json:"cntr_str"`
}

// FetchMinuteQuote fetches one minute-quote snapshot for a stock.
// collectedAt은 패스 전체가 공유하는 타임스탬프.
func (c *Client) FetchMinuteQuote(ctx context.Context, code, name string, collectedAt time.Time) (*contracts.TickSnapshot, error) {
	result, err := c.call(ctx, DomainMrkcond, APIMinuteQuote, map[string]string{"stk_cd": code}, "", "")
	if err != nil {
		return nil, err
	}

	var res minuteQuoteResponse
	if err := json.Unmarshal(result.Body, &res); err != nil {
		return nil, fmt.Errorf("[%s] decode response: %w", APIMinuteQuote, err)
	}

	if res.ReturnCode != ReturnOK {
		return nil, fmt.Errorf("[%s] API error return_code=%d msg=%s", APIMinuteQuote, res.ReturnCode, res.ReturnMsg)
	}

	return &contracts.TickSnapshot{
		StockCode:    code,
		StockName:    name,
		TradeDate:    res.Date,
		ClosePrice:   krparse.Number(res.ClosePric),
		Change:       krparse.Number(res.Pre),
		ChangeRate:   krparse.Number(res.FluRt),
		OpenPrice:    krparse.Number(res.OpenPric),
		HighPrice:    krparse.Number(res.HighPric),
		LowPrice:     krparse.Number(res.LowPric),
		Volume:       krparse.Int(res.TrdeQty),
		TradingValue: krparse.Int(res.TrdePrica),
		Strength:     krparse.Number(res.CntrStr),
		CollectedAt:  collectedAt,
	}, nil
}
