package sessionconfig

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var hhmmRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Load reads the session window YAML.
// 경로가 비어 있으면 컴파일된 기본값을 쓴다.
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, error) {
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks every window for well-formed times and a usable period.
func Validate(cfg *Config) error {
	if len(cfg.Loops) == 0 {
		return fmt.Errorf("loops: at least one loop required")
	}

	for name, loop := range cfg.Loops {
		if err := validateWindow(loop.Default, false); err != nil {
			return fmt.Errorf("loops.%s.default: %w", name, err)
		}
		for session, w := range loop.Sessions {
			// 오버라이드는 부분 지정 가능
			if err := validateWindow(w, true); err != nil {
				return fmt.Errorf("loops.%s.sessions.%s: %w", name, session, err)
			}
		}
	}
	return nil
}

func validateWindow(w Window, partial bool) error {
	if w.Open != "" && !hhmmRe.MatchString(w.Open) {
		return fmt.Errorf("open: invalid HH:MM %q", w.Open)
	}
	if w.Close != "" && !hhmmRe.MatchString(w.Close) {
		return fmt.Errorf("close: invalid HH:MM %q", w.Close)
	}
	if partial {
		return nil
	}
	if w.Close == "" {
		return fmt.Errorf("close: required")
	}
	if w.IntervalSeconds <= 0 {
		return fmt.Errorf("interval_seconds: must be positive")
	}
	if w.Open != "" && hhmmMinutes(w.Open) >= hhmmMinutes(w.Close) {
		return fmt.Errorf("open must be before close")
	}
	return nil
}
