package toss

import (
	"fmt"
	"strings"
	"testing"
)

func turnoverHTML(rows int) string {
	var b strings.Builder
	b.WriteString("<html><body><div><table><tbody>")
	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&b, `<tr>
			<td>%d</td>
			<td><a href="/stocks/A%06d/order">종목%d</a></td>
			<td>75,000원 +4.01%%</td>
			<td>1,234억</td>
		</tr>`, i, i, i)
	}
	b.WriteString("</tbody></table></div></body></html>")
	return b.String()
}

func TestParseTurnover(t *testing.T) {
	c := &Client{minTurnover: 80}
	now := testClock()

	records := c.parseTurnover(turnoverHTML(85), now)

	if len(records) != 85 {
		t.Fatalf("got %d records, want 85", len(records))
	}

	first := records[0]
	if first.Rank != 1 {
		t.Errorf("Rank = %d, want 1", first.Rank)
	}
	if first.StockCode != "000001" {
		t.Errorf("StockCode = %s, want 000001", first.StockCode)
	}
	if first.Amount != 1234.0 {
		t.Errorf("Amount = %v, want 1234", first.Amount)
	}
	if first.ChangeRate != 4.01 {
		t.Errorf("ChangeRate = %v, want 4.01", first.ChangeRate)
	}
	if !first.CollectedAt.Equal(now) {
		t.Errorf("CollectedAt = %v, want %v", first.CollectedAt, now)
	}
}

func TestParseTurnoverCapsAtHundred(t *testing.T) {
	c := &Client{minTurnover: 80}
	records := c.parseTurnover(turnoverHTML(130), testClock())

	if len(records) != 100 {
		t.Errorf("got %d records, want 100 (capped)", len(records))
	}
}

func TestParseTurnoverSkipsRowsWithoutCode(t *testing.T) {
	html := `<html><body><table><tbody>
		<tr><td>1</td><td>광고 배너</td><td>무언가</td></tr>
		<tr><td>2</td><td><a href="/stocks/A005930/order">삼성전자</a></td><td>+1.00%</td><td>2조 500억</td></tr>
	</tbody></table></body></html>`

	c := &Client{minTurnover: 1}
	records := c.parseTurnover(html, testClock())

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].StockCode != "005930" {
		t.Errorf("StockCode = %s, want 005930", records[0].StockCode)
	}
	if records[0].Amount != 20500.0 {
		t.Errorf("Amount = %v, want 20500", records[0].Amount)
	}
}

func TestParseTurnoverNegativeChangeRate(t *testing.T) {
	html := `<html><body><table><tbody>
		<tr><td>1</td><td><a href="/stocks/A005930/order">삼성전자</a></td><td>75,000원 -1.25%</td><td>500억</td></tr>
	</tbody></table></body></html>`

	c := &Client{minTurnover: 1}
	records := c.parseTurnover(html, testClock())

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].ChangeRate != -1.25 {
		t.Errorf("ChangeRate = %v, want -1.25", records[0].ChangeRate)
	}
}

func TestParseTurnoverSingleLineRow(t *testing.T) {
	// 셀 사이에 공백/줄바꿈이 전혀 없는 마크업도 행으로 읽어야 한다
	html := `<html><body><table><tbody><tr><td>7</td><td><a href="/stocks/A000660/order">SK하이닉스</a></td><td>210,000원 +2.50%</td><td>1조 2,000억</td></tr></tbody></table></body></html>`

	c := &Client{minTurnover: 1}
	records := c.parseTurnover(html, testClock())

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.Rank != 7 {
		t.Errorf("Rank = %d, want 7", r.Rank)
	}
	if r.StockCode != "000660" {
		t.Errorf("StockCode = %s, want 000660", r.StockCode)
	}
	if r.StockName != "SK하이닉스" {
		t.Errorf("StockName = %s, want SK하이닉스", r.StockName)
	}
	if r.Amount != 12000.0 {
		t.Errorf("Amount = %v, want 12000", r.Amount)
	}
	if r.ChangeRate != 2.50 {
		t.Errorf("ChangeRate = %v, want 2.50", r.ChangeRate)
	}
}
