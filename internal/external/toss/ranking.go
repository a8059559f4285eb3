package toss

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/internal/krparse"
)

var stockHrefRe = regexp.MustCompile(`/stocks/(?:A)?([0-9A-Z]{6})`)

// 랭킹 페이지의 섹션 순서: 외국인 → 기관 → 개인 → 기타.
// 순위가 1로 리셋될 때마다 다음 그룹으로 넘어간다.
var sectionGroups = []contracts.InvestorGroup{
	contracts.InvestorForeigner,
	contracts.InvestorInstitution,
	"individual",
	"other",
}

// FetchInvestorRanking fetches the domestic investor-trend ranking page for
// one ranking kind and maps it to canonical flow records.
//
// 수집 완결성: 외국인/기관 두 그룹 모두 목표 행수를 채우지 못하면 그 시도를
// 버리고 처음부터 재시도한다 (최대 3회, 고정 백오프). 실패 시 아무것도
// 반환하지 않는다. 부분 커밋 금지.
func (c *Client) FetchInvestorRanking(ctx context.Context, kind contracts.RankingKind, collectedAt time.Time) ([]contracts.FlowRecord, error) {
	query := fmt.Sprintf("ranking-type=domestic_investor_trend&ranking=%s", kind)

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
			records := c.parseInvestorRanking(html, kind, collectedAt)
			if c.isComplete(records) {
				c.logger.WithFields(map[string]interface{}{
					"ranking": kind,
					"count":   len(records),
					"attempt": attempt,
				}).Info("Investor ranking collected")
				return records, nil
			}
			lastErr = fmt.Errorf("%w: got %d rows (ranking=%s)", ErrInsufficientRows, len(records), kind)
		}

		c.logger.WithFields(map[string]interface{}{
			"ranking": kind,
			"attempt": attempt,
			"error":   lastErr.Error(),
		}).Warn("Ranking fetch attempt failed")

		if attempt < maxFetchAttempts {
			time.Sleep(5 * time.Second)
		}
	}

	return nil, lastErr
}

// isComplete checks that both tracked investor groups reached the target count.
func (c *Client) isComplete(records []contracts.FlowRecord) bool {
	counts := map[contracts.InvestorGroup]int{}
	for _, r := range records {
		counts[r.Investor]++
	}
	return counts[contracts.InvestorForeigner] >= c.rankingTarget &&
		counts[contracts.InvestorInstitution] >= c.rankingTarget
}

// parseInvestorRanking parses one rendered investor-trend page.
// 한 행이라도 깨져 있으면 그 행만 건너뛰고 계속 진행한다.
func (c *Client) parseInvestorRanking(html string, kind contracts.RankingKind, collectedAt time.Time) []contracts.FlowRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	baseTimes := c.parseBaseTimes(doc)
	today := krparse.Midnight(collectedAt)

	var records []contracts.FlowRecord
	groupIdx := 0

	doc.Find("a[href*='/stocks/']").Each(func(i int, item *goquery.Selection) {
		lines := itemLines(item)
		if len(lines) < 2 {
			return
		}

		rank := lines[0]
		name := lines[1]

		// 순위 리셋 = 다음 투자자 그룹 섹션 시작
		if rank == "1" && i > 0 {
			groupIdx++
		}
		if groupIdx >= len(sectionGroups) {
			return
		}
		group := sectionGroups[groupIdx]
		if group != contracts.InvestorForeigner && group != contracts.InvestorInstitution {
			return // 개인/기타는 수집 제외
		}

		code := ""
		if href, ok := item.Attr("href"); ok {
			if m := stockHrefRe.FindStringSubmatch(href); m != nil {
				code = m[1]
			}
		}

		amount := krparse.Amount(pickAmountLine(lines))
		if kind == contracts.RankingSell {
			amount = -amount // 순매도는 음수로 정규화
		}

		// 전일 스냅샷이 남아 있는 섹션은 금액을 0으로 강제 (이월분 이중집계 방지)
		if label, ok := baseTimes[group]; ok {
			if krparse.ResolveDate(label, collectedAt).Before(today) {
				amount = 0
			}
		}

		records = append(records, contracts.FlowRecord{
			Investor:    group,
			StockCode:   code,
			StockName:   name,
			Amount:      amount,
			RankingKind: kind,
			CollectedAt: collectedAt,
		})
	})

	return records
}

// parseBaseTimes extracts the per-section base-time labels.
// 섹션 순서 기반이라 페이지 구조 변경에 취약하다. 실패 시 빈 맵 (오늘로 간주).
func (c *Client) parseBaseTimes(doc *goquery.Document) map[contracts.InvestorGroup]string {
	baseTimes := make(map[contracts.InvestorGroup]string)

	doc.Find("section hgroup span").EachWithBreak(func(i int, s *goquery.Selection) bool {
		label := strings.TrimSpace(s.Text())
		if label == "" {
			return true
		}
		switch len(baseTimes) {
		case 0:
			baseTimes[contracts.InvestorForeigner] = label
		case 1:
			baseTimes[contracts.InvestorInstitution] = label
			return false
		}
		return true
	})

	return baseTimes
}

// pickAmountLine finds the line carrying the 금액 text.
// 억/만 단위가 있는 첫 줄, 없으면 원/%가 아닌 첫 줄.
func pickAmountLine(lines []string) string {
	for _, line := range lines[2:] {
		if strings.Contains(line, "억") || strings.Contains(line, "만") {
			return line
		}
	}
	for _, line := range lines[2:] {
		if !strings.Contains(line, "원") && !strings.Contains(line, "%") {
			return line
		}
	}
	return ""
}

// itemLines extracts one ranking item's rendered lines.
// Text()는 인접 요소 사이에 구분자를 넣지 않으므로 말단 요소 단위로
// 먼저 나누고, 중첩 요소가 없으면 줄바꿈으로 나눈다.
func itemLines(item *goquery.Selection) []string {
	var lines []string
	item.Find("*").Each(func(_ int, node *goquery.Selection) {
		if node.Children().Length() > 0 {
			return
		}
		lines = append(lines, splitLines(node.Text())...)
	})
	if len(lines) == 0 {
		return splitLines(item.Text())
	}
	return lines
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
