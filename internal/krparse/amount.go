package krparse

import (
	"math"
	"strconv"
	"strings"
)

// 금액 파싱 유틸리티.
// 토스 랭킹 페이지의 "1조 2,345억" 류 문자열과 키움 API의 "+1,234" / "▼567"
// 류 문자열을 억원 단위 float로 정규화한다.

// unit multipliers, 억원 기준 (1조 = 10000억, 1만 = 0.0001억)
const (
	joMultiplier  = 10000.0
	eokMultiplier = 1.0
	manMultiplier = 0.0001
)

// Amount normalizes a Korean magnitude-formatted amount string to 억원.
// 부호 표기("-", "순매수", "순매도")는 제거하고 괄호 표기만 음수로 처리한다.
// 파싱 불가능한 구간은 0으로 취급하며 전체 실패 시 0을 반환한다.
func Amount(text string) float64 {
	return parseAmount(text, false)
}

// SignedAmount is like Amount but preserves an explicit leading minus sign.
// 순매도 방향이 부호로 들어오는 스트리밍 데이터에 사용한다.
func SignedAmount(text string) float64 {
	return parseAmount(text, true)
}

func parseAmount(text string, keepSign bool) float64 {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0
	}

	negative := false

	// 괄호 표기는 음수
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.ReplaceAll(s, "순매수", "")
	s = strings.ReplaceAll(s, "순매도", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, "원")

	if keepSign && strings.HasPrefix(s, "-") {
		negative = !negative
	}
	s = strings.ReplaceAll(s, "-", "")

	if s == "" {
		return 0
	}

	total := 0.0
	matched := false

	// 조 → 억 → 만 순서로 왼쪽부터 분해
	if before, after, ok := strings.Cut(s, "조"); ok {
		matched = true
		if v, err := strconv.ParseFloat(before, 64); err == nil {
			total += v * joMultiplier
		}
		s = after
	}
	if before, after, ok := strings.Cut(s, "억"); ok {
		matched = true
		if before != "" {
			if v, err := strconv.ParseFloat(before, 64); err == nil {
				total += v * eokMultiplier
			}
		}
		s = after
	}
	if before, _, ok := strings.Cut(s, "만"); ok {
		matched = true
		if before != "" {
			if v, err := strconv.ParseFloat(before, 64); err == nil {
				total += v * manMultiplier
			}
		}
	}

	// 단위 없는 평범한 숫자는 그대로 사용
	if !matched {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		total = v
	}

	if negative {
		total = -total
	}
	return round4(total)
}

// Number cleans a Kiwoom-style numeric string and parses it as float64.
// ▲/▼ 기호와 콤마를 제거하되 마이너스 부호는 음수 처리를 위해 보존한다.
func Number(val string) float64 {
	s := strings.TrimSpace(val)
	if s == "" {
		return 0
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "▲", "")
	s = strings.ReplaceAll(s, "▼", "-")
	s = strings.ReplaceAll(s, "--", "-")

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	s = b.String()

	if s == "" || s == "-" {
		return 0
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Int is Number truncated to an integer.
func Int(val string) int64 {
	return int64(Number(val))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
