package sessionconfig

import (
	"fmt"
	"time"
)

// Loop names, one per collection command.
const (
	LoopFlow     = "flow"     // 수급 랭킹 수집
	LoopTurnover = "turnover" // 거래대금 상위 수집
	LoopPoll     = "poll"     // 시세 REST 폴링
	LoopStream   = "stream"   // 웹소켓 배치 수집
)

// Session names selectable with --session.
const (
	SessionMorning   = "morning"
	SessionAfternoon = "afternoon"
)

// Window is one collection window in wall-clock KST.
// Open이 빈 값이면 장 시작 게이트 없이 바로 수집한다.
type Window struct {
	Open            string `yaml:"open" json:"open"`                         // HH:MM
	Close           string `yaml:"close" json:"close"`                       // HH:MM
	IntervalSeconds int    `yaml:"interval_seconds" json:"interval_seconds"` // 사이클 주기
}

// Loop holds one loop's default window plus per-session overrides.
type Loop struct {
	Default  Window            `yaml:"default" json:"default"`
	Sessions map[string]Window `yaml:"sessions" json:"sessions"`
}

// Config maps loop name to its windows.
type Config struct {
	Loops map[string]Loop `yaml:"loops" json:"loops"`
}

// Resolve returns the window for one loop and session. 세션 오버라이드는
// 채워진 필드만 기본값 위에 덮어쓴다.
func (c *Config) Resolve(loop, session string) (Window, error) {
	l, ok := c.Loops[loop]
	if !ok {
		return Window{}, fmt.Errorf("unknown loop: %s", loop)
	}

	w := l.Default
	if session != "" {
		override, ok := l.Sessions[session]
		if !ok {
			return Window{}, fmt.Errorf("unknown session %q for loop %s", session, loop)
		}
		if override.Open != "" {
			w.Open = override.Open
		}
		if override.Close != "" {
			w.Close = override.Close
		}
		if override.IntervalSeconds != 0 {
			w.IntervalSeconds = override.IntervalSeconds
		}
	}
	return w, nil
}

// BeforeOpen reports whether now is before the window's open gate.
func (w Window) BeforeOpen(now time.Time) bool {
	if w.Open == "" {
		return false
	}
	return minuteOfDay(now) < hhmmMinutes(w.Open)
}

// AtOrAfterClose reports whether now has reached the window's close.
func (w Window) AtOrAfterClose(now time.Time) bool {
	return minuteOfDay(now) >= hhmmMinutes(w.Close)
}

// Interval returns the cycle period.
func (w Window) Interval() time.Duration {
	return time.Duration(w.IntervalSeconds) * time.Second
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// hhmmMinutes assumes the value already passed validation.
func hhmmMinutes(hhmm string) int {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

// Defaults returns the compiled-in windows used when no YAML is given.
func Defaults() *Config {
	return &Config{
		Loops: map[string]Loop{
			LoopFlow: {
				Default: Window{Close: "15:30", IntervalSeconds: 60},
			},
			LoopTurnover: {
				Default: Window{Close: "13:20", IntervalSeconds: 60},
				Sessions: map[string]Window{
					SessionMorning:   {Close: "12:00"},
					SessionAfternoon: {Close: "13:20"},
				},
			},
			LoopPoll: {
				Default: Window{Open: "08:55", Close: "15:20", IntervalSeconds: 10},
				Sessions: map[string]Window{
					SessionMorning:   {Close: "12:00"},
					SessionAfternoon: {Close: "15:20"},
				},
			},
			LoopStream: {
				Default: Window{Open: "08:55", Close: "15:30", IntervalSeconds: 10},
			},
		},
	}
}
