package krparse

import (
	"fmt"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-4
}

func TestAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1조", 10000.0},
		{"500억", 500.0},
		{"1만", 0.0001},
		{"1조 2,345억", 12345.0},
		{"2조345억6789만", 20345.6789},
		{"1.5조", 15000.0},
		{"3,000억 원", 3000.0},
		{"순매수 120억", 120.0},
		{"순매도 80억", 80.0}, // 방향 단어는 제거, 부호는 유지하지 않음
		{"-250억", 250.0},
		{"(1,234)", -1234.0},
		{"1234", 1234.0},
		{"", 0},
		{"-", 0},
		{"abc", 0},
		{"조", 0}, // 숫자 없는 단위만 있으면 구간 파싱 실패 → 0
	}

	for _, tt := range tests {
		got := Amount(tt.in)
		if !almostEqual(got, tt.want) {
			t.Errorf("Amount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAmountDecomposition(t *testing.T) {
	// j조 u억 m만 == j*10000 + u + m/10000 (1e-4 이내)
	cases := []struct{ j, u, m float64 }{
		{1, 0, 0},
		{0, 500, 0},
		{0, 0, 1},
		{3, 2500, 9999},
		{12, 1, 5000},
	}

	for _, c := range cases {
		in := fmt.Sprintf("%.0f조%.0f억%.0f만", c.j, c.u, c.m)
		want := c.j*10000 + c.u + c.m/10000
		if got := Amount(in); !almostEqual(got, want) {
			t.Errorf("Amount(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSignedAmount(t *testing.T) {
	if got := SignedAmount("-120억"); !almostEqual(got, -120.0) {
		t.Errorf("SignedAmount(-120억) = %v, want -120", got)
	}
	if got := SignedAmount("120억"); !almostEqual(got, 120.0) {
		t.Errorf("SignedAmount(120억) = %v, want 120", got)
	}
	if got := SignedAmount("-1조"); !almostEqual(got, -10000.0) {
		t.Errorf("SignedAmount(-1조) = %v, want -10000", got)
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"+1,234", 1234},
		{"-1,234", -1234},
		{"▲500", 500},
		{"▼500", -500},
		{"(250)", -250},
		{"12.5%", 12.5},
		{"", 0},
		{"-", 0},
		{"N/A", 0},
	}

	for _, tt := range tests {
		if got := Number(tt.in); !almostEqual(got, tt.want) {
			t.Errorf("Number(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInt(t *testing.T) {
	if got := Int("1,234.9"); got != 1234 {
		t.Errorf("Int(1,234.9) = %d, want 1234 (truncated)", got)
	}
	if got := Int("▼42"); got != -42 {
		t.Errorf("Int(▼42) = %d, want -42", got)
	}
}
