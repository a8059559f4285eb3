package krparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// KST is the market timezone. 모든 세션/기준일 판단은 KST로 수행한다.
var KST = time.FixedZone("KST", 9*60*60)

var monthDayRe = regexp.MustCompile(`(\d{1,2})월\s*(\d{1,2})일`)

// ResolveDate maps a relative/partial Korean date label to a calendar date.
// now는 호출자가 넘기는 현재 시각(KST). 벽시계를 직접 읽지 않아 결정적이다.
//
// 규칙 (순서대로 검사):
//   - "오늘" 포함  → 오늘 날짜
//   - "어제" 포함  → 어제 날짜
//   - "<M>월 <D>일" → 올해의 해당 날짜 (연도 추론 없음)
//   - "YYYY-MM-DD" → 그대로 통과
//   - 그 외        → 오늘 날짜 (fallback)
func ResolveDate(label string, now time.Time) time.Time {
	today := Midnight(now)

	label = strings.TrimSpace(label)

	if strings.Contains(label, "오늘") {
		return today
	}
	if strings.Contains(label, "어제") {
		return today.AddDate(0, 0, -1)
	}

	if m := monthDayRe.FindStringSubmatch(label); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		return time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, now.Location())
	}

	if d, err := time.ParseInLocation("2006-01-02", label, now.Location()); err == nil {
		return d
	}
	// ISO timestamp가 통째로 들어오는 경우 날짜 부분만 사용
	if len(label) >= 10 {
		if d, err := time.ParseInLocation("2006-01-02", label[:10], now.Location()); err == nil {
			return d
		}
	}

	return today
}

// Midnight truncates t to its local day boundary.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NowKST returns the current time in KST.
// 루프 진입점에서 한 번만 호출하고 이후엔 값을 전달할 것.
func NowKST() time.Time {
	return time.Now().In(KST)
}
