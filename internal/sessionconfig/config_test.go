package sessionconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("Validate(Defaults()) = %v", err)
	}
}

func TestResolveSessionOverride(t *testing.T) {
	cfg := Defaults()

	w, err := cfg.Resolve(LoopTurnover, SessionMorning)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if w.Close != "12:00" {
		t.Errorf("Close = %s, want 12:00", w.Close)
	}
	// 오버라이드에 없는 필드는 기본값 유지
	if w.IntervalSeconds != 60 {
		t.Errorf("IntervalSeconds = %d, want 60", w.IntervalSeconds)
	}

	w, err = cfg.Resolve(LoopTurnover, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if w.Close != "13:20" {
		t.Errorf("default Close = %s, want 13:20", w.Close)
	}
}

func TestResolveUnknown(t *testing.T) {
	cfg := Defaults()

	if _, err := cfg.Resolve("nope", ""); err == nil {
		t.Error("Resolve(unknown loop) should fail")
	}
	if _, err := cfg.Resolve(LoopFlow, "evening"); err == nil {
		t.Error("Resolve(unknown session) should fail")
	}
}

func TestWindowBoundaries(t *testing.T) {
	w := Window{Open: "08:55", Close: "15:30", IntervalSeconds: 10}

	at := func(hour, min int) time.Time {
		return time.Date(2026, 9, 1, hour, min, 0, 0, time.UTC)
	}

	if !w.BeforeOpen(at(8, 54)) {
		t.Error("08:54 should be before open")
	}
	if w.BeforeOpen(at(8, 55)) {
		t.Error("08:55 should not be before open")
	}
	if w.AtOrAfterClose(at(15, 29)) {
		t.Error("15:29 should not be at/after close")
	}
	if !w.AtOrAfterClose(at(15, 30)) {
		t.Error("15:30 should be at/after close")
	}

	gateless := Window{Close: "15:30", IntervalSeconds: 60}
	if gateless.BeforeOpen(at(0, 0)) {
		t.Error("window without open gate is never before open")
	}
}

func TestLoadStrictYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.yaml")

	good := `loops:
  flow:
    default:
      close: "15:30"
      interval_seconds: 60
`
	if err := os.WriteFile(path, []byte(good), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := cfg.Resolve(LoopFlow, ""); err != nil {
		t.Errorf("Resolve after Load: %v", err)
	}

	// 오타 필드는 즉시 실패
	bad := `loops:
  flow:
    default:
      clsoe: "15:30"
      interval_seconds: 60
`
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should reject unknown fields")
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	w, err := cfg.Resolve(LoopPoll, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if w.Open != "08:55" {
		t.Errorf("Open = %s, want 08:55", w.Open)
	}
}

func TestValidateRejectsBadWindows(t *testing.T) {
	tests := []struct {
		name string
		w    Window
	}{
		{"missing close", Window{IntervalSeconds: 60}},
		{"bad time", Window{Close: "25:00", IntervalSeconds: 60}},
		{"zero interval", Window{Close: "15:30"}},
		{"open after close", Window{Open: "16:00", Close: "15:30", IntervalSeconds: 60}},
	}

	for _, tt := range tests {
		cfg := &Config{Loops: map[string]Loop{"x": {Default: tt.w}}}
		if err := Validate(cfg); err == nil {
			t.Errorf("%s: Validate should fail", tt.name)
		}
	}
}
