package kiwoom

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/wonny/ygscore/pkg/config"
	"github.com/wonny/ygscore/pkg/logger"
)

func TestParseTickRealFrame(t *testing.T) {
	raw := `{
		"trnm": "REAL",
		"data": [{
			"type": "0B",
			"item": "069500",
			"values": {
				"20": "133015",
				"10": "-34500",
				"11": "-150",
				"12": "-0.43",
				"13": "1234567",
				"14": "42600",
				"16": "+34700",
				"17": "+34750",
				"18": "-34400",
				"228": "98.55"
			}
		}]
	}`

	var msg wsInbound
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Trnm != TrnmReal {
		t.Fatalf("Trnm = %s, want REAL", msg.Trnm)
	}
	if len(msg.Data) != 1 {
		t.Fatalf("got %d entries, want 1", len(msg.Data))
	}

	now := time.Date(2026, 9, 1, 13, 30, 15, 0, time.UTC)
	tick := parseTick(msg.Data[0], now)
	if tick == nil {
		t.Fatal("parseTick returned nil for 0B entry")
	}

	if tick.StockCode != "069500" {
		t.Errorf("StockCode = %s, want 069500", tick.StockCode)
	}
	if tick.TradeDate != "133015" {
		t.Errorf("TradeDate = %s, want 133015", tick.TradeDate)
	}
	// 가격 필드는 절대값
	if tick.ClosePrice != 34500 {
		t.Errorf("ClosePrice = %v, want 34500", tick.ClosePrice)
	}
	if tick.OpenPrice != 34700 {
		t.Errorf("OpenPrice = %v, want 34700", tick.OpenPrice)
	}
	if tick.LowPrice != 34400 {
		t.Errorf("LowPrice = %v, want 34400", tick.LowPrice)
	}
	// 전일대비/등락율은 부호 보존
	if tick.Change != -150 {
		t.Errorf("Change = %v, want -150", tick.Change)
	}
	if tick.ChangeRate != -0.43 {
		t.Errorf("ChangeRate = %v, want -0.43", tick.ChangeRate)
	}
	if tick.Volume != 1234567 {
		t.Errorf("Volume = %d, want 1234567", tick.Volume)
	}
	if tick.Strength != 98.55 {
		t.Errorf("Strength = %v, want 98.55", tick.Strength)
	}
	if !tick.CollectedAt.Equal(now) {
		t.Errorf("CollectedAt = %v, want %v", tick.CollectedAt, now)
	}
}

func TestParseTickIgnoresOtherTypes(t *testing.T) {
	entry := wsRealEntry{Type: "0D", Item: "005930", Values: map[string]string{"10": "70000"}}

	if tick := parseTick(entry, time.Now()); tick != nil {
		t.Errorf("parseTick = %+v, want nil for non-0B type", tick)
	}
}

func TestPingFrameDetection(t *testing.T) {
	raw := []byte(`{"trnm":"PING","ts":"20260901133015"}`)

	var msg wsInbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Trnm != TrnmPing {
		t.Errorf("Trnm = %s, want PING", msg.Trnm)
	}
}

func TestSubscribeFrameShape(t *testing.T) {
	frame := wsSubscribe{
		Trnm:    TrnmReg,
		GrpNo:   "1",
		Refresh: "0",
		Data:    []wsSubscribeItem{{Item: []string{"069500", "005930"}, Type: []string{RealTypeTick}}},
	}

	raw, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["trnm"] != "REG" {
		t.Errorf("trnm = %v, want REG", decoded["trnm"])
	}
	if decoded["grp_no"] != "1" {
		t.Errorf("grp_no = %v, want 1", decoded["grp_no"])
	}
	if decoded["refresh"] != "0" {
		t.Errorf("refresh = %v, want 0", decoded["refresh"])
	}
}

func TestDisconnectAfterRemoteClose(t *testing.T) {
	log := logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
	c := NewWSClient(config.KiwoomConfig{}, log)

	// 서버가 먼저 끊은 상태를 재현: readLoop가 connected를 내린 뒤
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	c.Disconnect()

	select {
	case <-c.stopCh:
	default:
		t.Fatal("stop channel not closed after Disconnect")
	}

	// 중복 호출은 무해해야 한다 (stopCh 이중 close 금지)
	c.Disconnect()
}

func TestReturnCodeOf(t *testing.T) {
	tests := []struct {
		body string
		want int
	}{
		{`{"return_code":0,"return_msg":"정상"}`, 0},
		{`{"return_code":5,"return_msg":"호출 제한"}`, 5},
		{`not json`, -1},
	}

	for _, tt := range tests {
		if got := returnCodeOf([]byte(tt.body)); got != tt.want {
			t.Errorf("returnCodeOf(%q) = %d, want %d", tt.body, got, tt.want)
		}
	}
}
