package toss

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/internal/krparse"
)

var changeRateRe = regexp.MustCompile(`([+-]?\d+\.?\d*)%`)

const turnoverLimit = 100

// FetchTurnoverTop fetches the trading-value top-100 ranking.
// 최소 행수(min_turnover_rows, 관측치 80)를 채우지 못한 시도는 버리고
// 재시도한다.
func (c *Client) FetchTurnoverTop(ctx context.Context, collectedAt time.Time) ([]contracts.TurnoverRecord, error) {
	const query = "market=kr&live-chart=biggest_total_amount&ranking-type=realtime_chart"

	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		html, err := c.fetchHTML(ctx, query)
		if err != nil {
			lastErr = err
		} else {
			records := c.parseTurnover(html, collectedAt)
			if len(records) >= c.minTurnover {
				c.logger.WithFields(map[string]interface{}{
					"count":   len(records),
					"attempt": attempt,
				}).Info("Turnover ranking collected")
				return records, nil
			}
			lastErr = fmt.Errorf("%w: got %d rows, need %d", ErrInsufficientRows, len(records), c.minTurnover)
		}

		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt,
			"error":   lastErr.Error(),
		}).Warn("Turnover fetch attempt failed")

		if attempt < maxFetchAttempts {
			time.Sleep(5 * time.Second)
		}
	}

	return nil, lastErr
}

// parseTurnover parses the realtime-chart table.
// 셀 구조: 순위 | 종목명(링크) | 현재가/등락률 | 거래대금.
// goquery의 Text()는 인접 셀 사이에 줄바꿈을 넣지 않으므로 셀 단위로 읽는다.
func (c *Client) parseTurnover(html string, collectedAt time.Time) []contracts.TurnoverRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var records []contracts.TurnoverRecord

	doc.Find("table tbody tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return true
		}

		code := ""
		anchor := row.Find("a").First()
		if href, ok := anchor.Attr("href"); ok {
			if m := stockHrefRe.FindStringSubmatch(href); m != nil {
				code = m[1]
			}
		}
		if code == "" {
			return true // 코드 없는 행은 건너뜀
		}
		name := strings.TrimSpace(anchor.Text())

		rank, _ := strconv.Atoi(strings.TrimSpace(cells.First().Text()))

		amountText := ""
		changeRate := 0.0
		cells.Each(func(_ int, cell *goquery.Selection) {
			text := strings.TrimSpace(cell.Text())
			if m := changeRateRe.FindStringSubmatch(text); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil {
					changeRate = v
				}
			}
			if strings.ContainsAny(text, "조억만") {
				amountText = text // 마지막 금액 셀이 거래대금
			}
		})

		records = append(records, contracts.TurnoverRecord{
			Rank:        rank,
			StockCode:   code,
			StockName:   name,
			Amount:      krparse.Amount(amountText),
			ChangeRate:  changeRate,
			CollectedAt: collectedAt,
		})

		return len(records) < turnoverLimit
	})

	return records
}
