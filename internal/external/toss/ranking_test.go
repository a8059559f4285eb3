package toss

import (
	"testing"
	"time"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/internal/krparse"
)

func testClock() time.Time {
	return time.Date(2024, 3, 5, 10, 30, 0, 0, krparse.KST)
}

const sampleRankingHTML = `
<html><body>
<section>
  <hgroup><div><div><span>오늘 10:30 기준</span></div></div></hgroup>
</section>
<section>
  <hgroup><div><div><span>오늘 10:30 기준</span></div></div></hgroup>
</section>
<main>
  <a href="/stocks/A005930/order">1
삼성전자
75,000원
+1.20%
1,234억 순매수</a>
  <a href="/stocks/A000660/order">2
SK하이닉스
180,000원
-0.50%
2조 500억 순매수</a>
  <a href="/stocks/A005930/order">1
삼성전자
75,000원
+1.20%
800억 순매수</a>
  <a href="/stocks/A035420/order">2
NAVER
190,000원
+0.10%
3,000만 순매수</a>
  <a href="/stocks/A005930/order">1
삼성전자
75,000원
+1.20%
100억 순매수</a>
</main>
</body></html>`

func TestParseInvestorRanking(t *testing.T) {
	c := &Client{rankingTarget: 2}
	now := testClock()

	records := c.parseInvestorRanking(sampleRankingHTML, contracts.RankingBuy, now)

	// 외국인 2 + 기관 2, 세번째 섹션(개인)은 제외
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}

	first := records[0]
	if first.Investor != contracts.InvestorForeigner {
		t.Errorf("Investor = %s, want Foreigner", first.Investor)
	}
	if first.StockCode != "005930" {
		t.Errorf("StockCode = %s, want 005930", first.StockCode)
	}
	if first.StockName != "삼성전자" {
		t.Errorf("StockName = %s, want 삼성전자", first.StockName)
	}
	if first.Amount != 1234.0 {
		t.Errorf("Amount = %v, want 1234", first.Amount)
	}
	if first.RankingKind != contracts.RankingBuy {
		t.Errorf("RankingKind = %s, want buy", first.RankingKind)
	}
	if !first.CollectedAt.Equal(now) {
		t.Errorf("CollectedAt = %v, want %v", first.CollectedAt, now)
	}

	// 조 단위 분해
	if records[1].Amount != 20500.0 {
		t.Errorf("records[1].Amount = %v, want 20500", records[1].Amount)
	}

	// 두번째 섹션은 기관
	if records[2].Investor != contracts.InvestorInstitution {
		t.Errorf("records[2].Investor = %s, want Institution", records[2].Investor)
	}
	if records[3].Amount != 0.3 {
		t.Errorf("records[3].Amount = %v, want 0.3", records[3].Amount)
	}

	if !c.isComplete(records) {
		t.Error("isComplete() = false, want true")
	}
}

func TestParseInvestorRankingSellNegates(t *testing.T) {
	c := &Client{rankingTarget: 2}
	records := c.parseInvestorRanking(sampleRankingHTML, contracts.RankingSell, testClock())

	if len(records) == 0 {
		t.Fatal("no records parsed")
	}
	if records[0].Amount != -1234.0 {
		t.Errorf("sell Amount = %v, want -1234", records[0].Amount)
	}
	if records[0].RankingKind != contracts.RankingSell {
		t.Errorf("RankingKind = %s, want sell", records[0].RankingKind)
	}
}

func TestParseInvestorRankingStaleBaseTime(t *testing.T) {
	// 기준 시간이 어제인 섹션은 금액을 0으로 강제
	stale := `
<html><body>
<section><hgroup><div><div><span>어제 15:30 기준</span></div></div></hgroup></section>
<section><hgroup><div><div><span>오늘 09:10 기준</span></div></div></hgroup></section>
<main>
  <a href="/stocks/A005930/order">1
삼성전자
75,000원
500억 순매수</a>
  <a href="/stocks/A005930/order">1
삼성전자
75,000원
300억 순매수</a>
</main>
</body></html>`

	c := &Client{rankingTarget: 1}
	records := c.parseInvestorRanking(stale, contracts.RankingBuy, testClock())

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Amount != 0 {
		t.Errorf("stale Foreigner Amount = %v, want 0", records[0].Amount)
	}
	if records[1].Amount != 300 {
		t.Errorf("fresh Institution Amount = %v, want 300", records[1].Amount)
	}
}

func TestParseInvestorRankingUnmatchedCode(t *testing.T) {
	html := `
<html><body>
<main>
  <a href="/stocks/unknown">1
이상한종목
100억 순매수</a>
</main>
</body></html>`

	c := &Client{rankingTarget: 1}
	records := c.parseInvestorRanking(html, contracts.RankingBuy, testClock())

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].StockCode != "" {
		t.Errorf("StockCode = %q, want empty for unmatched href", records[0].StockCode)
	}
	if records[0].HasKey() {
		t.Error("HasKey() = true, want false for empty code")
	}
}

func TestParseInvestorRankingNestedMarkup(t *testing.T) {
	// 필드가 중첩 요소로 들어오고 사이에 줄바꿈이 없는 마크업
	html := `<html><body><main><a href="/stocks/A005930/order"><span>1</span><span>삼성전자</span><span>75,000원</span><span>+1.20%</span><span>1,234억 순매수</span></a></main></body></html>`

	c := &Client{rankingTarget: 1}
	records := c.parseInvestorRanking(html, contracts.RankingBuy, testClock())

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].StockName != "삼성전자" {
		t.Errorf("StockName = %s, want 삼성전자", records[0].StockName)
	}
	if records[0].Amount != 1234.0 {
		t.Errorf("Amount = %v, want 1234", records[0].Amount)
	}
}

func TestIsCompleteBelowTarget(t *testing.T) {
	c := &Client{rankingTarget: 5}
	records := []contracts.FlowRecord{
		{Investor: contracts.InvestorForeigner},
		{Investor: contracts.InvestorInstitution},
	}
	if c.isComplete(records) {
		t.Error("isComplete() = true, want false below target")
	}
}
