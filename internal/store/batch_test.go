package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ygscore/internal/contracts"
)

func flowAt(code string, amount float64, at time.Time) contracts.FlowRecord {
	return contracts.FlowRecord{
		Investor:    contracts.InvestorForeigner,
		StockCode:   code,
		StockName:   "종목" + code,
		Amount:      amount,
		RankingKind: contracts.RankingBuy,
		CollectedAt: at,
	}
}

func TestDedupeLastKeepsLatestPerKey(t *testing.T) {
	at := time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)

	records := []contracts.FlowRecord{
		flowAt("005930", 100, at),
		flowAt("069500", 50, at),
		flowAt("005930", 120, at), // 같은 키, 나중 값이 이긴다
	}

	kept, skipped := dedupeLast(records)

	require.Len(t, kept, 2)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, "005930", kept[0].StockCode)
	assert.Equal(t, 120.0, kept[0].Amount)
	assert.Equal(t, "069500", kept[1].StockCode)
}

func TestDedupeLastCountsKeylessRecords(t *testing.T) {
	at := time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)

	records := []contracts.FlowRecord{
		flowAt("", 999, at), // 코드 미확인
		flowAt("005930", 10, at),
		flowAt("069500", 5, time.Time{}), // 타임스탬프 없음
	}

	kept, skipped := dedupeLast(records)

	require.Len(t, kept, 1)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, "005930", kept[0].StockCode)
}

func TestDedupeLastDistinguishesKindAndInvestor(t *testing.T) {
	at := time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)

	buy := flowAt("005930", 100, at)
	sell := buy
	sell.RankingKind = contracts.RankingSell
	sell.Amount = -40
	inst := buy
	inst.Investor = contracts.InvestorInstitution

	kept, skipped := dedupeLast([]contracts.FlowRecord{buy, sell, inst})

	assert.Len(t, kept, 3)
	assert.Equal(t, 0, skipped)
}

func TestDedupeFlowsMatchesSinkSet(t *testing.T) {
	at := time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)

	records := []contracts.FlowRecord{
		flowAt("005930", 100, at),
		flowAt("", 999, at), // 키 미확인, 저장에서도 빠진다
		flowAt("005930", 120, at),
	}

	// 점수 계산이 싱크가 보관하는 집합과 같은 것을 보는지
	kept := DedupeFlows(records)

	require.Len(t, kept, 1)
	assert.Equal(t, "005930", kept[0].StockCode)
	assert.Equal(t, 120.0, kept[0].Amount)
}

func TestChunkSplitsEvenly(t *testing.T) {
	items := make([]int, 250)

	batches := chunk(items, 100)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[1], 100)
	assert.Len(t, batches[2], 50)
}

func TestChunkEdgeCases(t *testing.T) {
	assert.Nil(t, chunk([]int{}, 100))

	single := chunk([]int{1, 2, 3}, 0)
	require.Len(t, single, 1)
	assert.Len(t, single[0], 3)

	exact := chunk(make([]int, 100), 100)
	assert.Len(t, exact, 1)
}
