package krparse

import (
	"testing"
	"time"
)

func TestResolveDate(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, KST)

	tests := []struct {
		label string
		want  time.Time
	}{
		{"오늘", time.Date(2024, 3, 5, 0, 0, 0, 0, KST)},
		{"오늘 10:00 기준", time.Date(2024, 3, 5, 0, 0, 0, 0, KST)},
		{"어제", time.Date(2024, 3, 4, 0, 0, 0, 0, KST)},
		{"3월 5일", time.Date(2024, 3, 5, 0, 0, 0, 0, KST)},
		{"1월 30일 기준", time.Date(2024, 1, 30, 0, 0, 0, 0, KST)},
		{"2024-03-04", time.Date(2024, 3, 4, 0, 0, 0, 0, KST)},
		{"2024-03-04T09:30:00", time.Date(2024, 3, 4, 0, 0, 0, 0, KST)},
		{"", time.Date(2024, 3, 5, 0, 0, 0, 0, KST)},
		{"장전 기준", time.Date(2024, 3, 5, 0, 0, 0, 0, KST)},
	}

	for _, tt := range tests {
		got := ResolveDate(tt.label, now)
		if !got.Equal(tt.want) {
			t.Errorf("ResolveDate(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestResolveDateDeterministic(t *testing.T) {
	// 동일 (label, now) 입력 → 항상 동일 출력
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, KST)
	a := ResolveDate("어제", now)
	b := ResolveDate("어제", now)
	if !a.Equal(b) {
		t.Error("ResolveDate not deterministic")
	}
	if a.Day() != 1 {
		t.Errorf("expected Jan 1, got %v", a)
	}
}

func TestMidnight(t *testing.T) {
	now := time.Date(2024, 3, 5, 23, 59, 59, 1000, KST)
	got := Midnight(now)
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, KST)
	if !got.Equal(want) {
		t.Errorf("Midnight() = %v, want %v", got, want)
	}
}
