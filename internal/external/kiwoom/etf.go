package kiwoom

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/internal/krparse"
)

// APIETFConstituents is the ETF 구성종목 listing API id.
const APIETFConstituents = "ka40004"

// etfConstituentsResponse is one page of the ETF constituent listing.
type etfConstituentsResponse struct {
	ReturnCode int    `json:"return_code"`
	ReturnMsg  string `json:"return_msg"`
	ETFName    string `json:"etf_nm"`
	Items      []struct {
		StockCode string `json:"stk_cd"`
		StockName string `json:"stk_nm"`
		WeightRt  string `json:"wght_rt"` // 구성비중(%), 문자열
	} `json:"etf_comp"`
}

// FetchETFConstituents fetches every constituent weight row for one ETF,
// following cont-yn/next-key continuation headers across pages.
func (c *Client) FetchETFConstituents(ctx context.Context, etfCode string) ([]contracts.ConstituentWeight, error) {
	var weights []contracts.ConstituentWeight

	contYN, nextKey := "", ""
	for {
		result, err := c.call(ctx, DomainETF, APIETFConstituents, map[string]string{"stk_cd": etfCode}, contYN, nextKey)
		if err != nil {
			return nil, err
		}

		var res etfConstituentsResponse
		if err := json.Unmarshal(result.Body, &res); err != nil {
			return nil, fmt.Errorf("[%s] decode response: %w", APIETFConstituents, err)
		}

		if res.ReturnCode != ReturnOK {
			return nil, fmt.Errorf("[%s] API error return_code=%d msg=%s", APIETFConstituents, res.ReturnCode, res.ReturnMsg)
		}

		for _, item := range res.Items {
			weights = append(weights, contracts.ConstituentWeight{
				ETFCode:   etfCode,
				ETFName:   res.ETFName,
				StockCode: item.StockCode,
				StockName: item.StockName,
				// 파싱 실패 비중은 0으로 적재
				WeightPct: krparse.Number(item.WeightRt),
			})
		}

		// 연속 조회: 서버가 돌려준 헤더를 그대로 되돌려준다
		if result.ContYN != "Y" || result.NextKey == "" {
			break
		}
		contYN, nextKey = result.ContYN, result.NextKey
	}

	c.logger.WithFields(map[string]interface{}{
		"etf_code": etfCode,
		"count":    len(weights),
	}).Debug("Fetched ETF constituents")

	return weights, nil
}
