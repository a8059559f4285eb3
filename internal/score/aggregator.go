package score

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/pkg/logger"
)

// ErrNoInput means a cycle had no flow records to score.
// 수급 레코드가 전혀 없는 사이클은 저장 없이 건너뛴다.
var ErrNoInput = errors.New("no flow records to score")

// WeightSource serves the constituent weights a computation joins against.
type WeightSource interface {
	Get(ctx context.Context) ([]contracts.ConstituentWeight, error)
}

// Aggregator turns one pass of flow records into per-ETF scores.
// ⭐ SSOT: 점수 계산 로직은 여기서만
type Aggregator struct {
	weights WeightSource
	logger  *logger.Logger
}

// NewAggregator creates a new score aggregator
func NewAggregator(weights WeightSource, log *logger.Logger) *Aggregator {
	return &Aggregator{weights: weights, logger: log}
}

// pivotKey identifies one (investor, member) cell of the flow pivot.
type pivotKey struct {
	investor contracts.InvestorGroup
	code     string
}

// Compute scores one pass of flow records against the current weights.
// 기여도 = weight_pct × amount (원본 수식 그대로, /100 하지 않는다).
// 합산을 모두 끝낸 뒤에 정수로 버림한다.
// 비중 테이블 레프트 조인이라 수급이 안 잡힌 구성종목은 0으로 기여하고,
// 수급이 전혀 없는 ETF도 0점 행으로 나온다.
func (a *Aggregator) Compute(ctx context.Context, flows []contracts.FlowRecord, updatedAt time.Time) ([]contracts.ETFScore, error) {
	if len(flows) == 0 {
		return nil, ErrNoInput
	}

	weights, err := a.weights.Get(ctx)
	if err != nil {
		return nil, err
	}

	// 1. 피벗: (투자자군, 종목) 별 순매수 합
	pivot := make(map[pivotKey]float64, len(flows))
	for _, f := range flows {
		if f.StockCode == "" {
			continue
		}
		pivot[pivotKey{f.Investor, f.StockCode}] += f.Amount
	}

	// 2. 비중 레프트 조인 후 ETF별 합산
	type accum struct {
		etfName    string
		foreignSum float64
		instSum    float64
		members    map[string]struct{}
	}
	byETF := make(map[string]*accum)

	for _, w := range weights {
		acc, ok := byETF[w.ETFCode]
		if !ok {
			acc = &accum{etfName: w.ETFName, members: make(map[string]struct{})}
			byETF[w.ETFCode] = acc
		}
		acc.members[w.StockCode] = struct{}{}

		acc.foreignSum += w.WeightPct * pivot[pivotKey{contracts.InvestorForeigner, w.StockCode}]
		acc.instSum += w.WeightPct * pivot[pivotKey{contracts.InvestorInstitution, w.StockCode}]
	}

	// 3. 버림 후 정렬
	scores := make([]contracts.ETFScore, 0, len(byETF))
	for etfCode, acc := range byETF {
		scores = append(scores, contracts.ETFScore{
			ETFCode:          etfCode,
			ETFName:          acc.etfName,
			TotalScore:       int64(acc.foreignSum + acc.instSum),
			ForeignScore:     int64(acc.foreignSum),
			InstitutionScore: int64(acc.instSum),
			MemberCount:      len(acc.members),
			UpdatedAt:        updatedAt,
		})
	}

	if len(scores) == 0 {
		return nil, ErrNoInput
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].TotalScore != scores[j].TotalScore {
			return scores[i].TotalScore > scores[j].TotalScore
		}
		return scores[i].ETFCode < scores[j].ETFCode
	})

	a.logger.WithFields(map[string]interface{}{
		"flows": len(flows),
		"etfs":  len(scores),
	}).Debug("ETF scores computed")

	return scores, nil
}
