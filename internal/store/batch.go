package store

import "github.com/wonny/ygscore/internal/contracts"

// keyed is satisfied by records carrying a natural upsert key.
type keyed interface {
	NaturalKey() string
	HasKey() bool
}

// UpsertResult summarizes one batched write pass.
type UpsertResult struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"` // 키 미확인 레코드 수 (중복 제거분 제외)
}

// dedupeLast drops records without a complete natural key and keeps the
// last record per key, preserving first-seen order.
// 같은 패스 안에서 같은 키가 두 번 나오면 나중 값이 이긴다.
func dedupeLast[T keyed](items []T) ([]T, int) {
	kept := make([]T, 0, len(items))
	index := make(map[string]int, len(items))
	skipped := 0

	for _, item := range items {
		if !item.HasKey() {
			skipped++
			continue
		}
		key := item.NaturalKey()
		if at, ok := index[key]; ok {
			kept[at] = item
			continue
		}
		index[key] = len(kept)
		kept = append(kept, item)
	}
	return kept, skipped
}

// DedupeFlows collapses flow records to the set the sink actually keeps.
// 저장과 점수 계산이 같은 레코드 집합을 보게 하려면 커맨드 계층에서
// 저장 전에 한 번 거쳐야 한다.
func DedupeFlows(records []contracts.FlowRecord) []contracts.FlowRecord {
	kept, _ := dedupeLast(records)
	return kept
}

// chunk splits items into batches of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]T{items}
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
