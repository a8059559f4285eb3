package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wonny/ygscore/internal/sessionconfig"
	"github.com/wonny/ygscore/pkg/config"
	"github.com/wonny/ygscore/pkg/logger"
)

// fakeClock advances simulated time on every Sleep.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
}

func kst(hour, min int) time.Time {
	return time.Date(2026, 9, 1, hour, min, 0, 0, time.UTC)
}

func TestLoopWaitsForOpenAndStopsAtClose(t *testing.T) {
	clock := &fakeClock{now: kst(8, 50)}
	window := sessionconfig.Window{Open: "09:00", Close: "12:00", IntervalSeconds: 60}

	var passTimes []time.Time
	pass := func(ctx context.Context, collectedAt time.Time) error {
		passTimes = append(passTimes, collectedAt)
		return nil
	}

	loop := New("flow", window, pass, testLogger(), Options{Clock: clock})
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(passTimes) == 0 {
		t.Fatal("no passes ran")
	}
	// 개장 전에는 수집이 없어야 한다
	open := kst(9, 0)
	if passTimes[0].Before(open) {
		t.Errorf("first pass at %v, before open %v", passTimes[0], open)
	}
	// 마감 후에는 수집이 없어야 한다
	closeAt := kst(12, 0)
	for _, at := range passTimes {
		if !at.Before(closeAt) {
			t.Errorf("pass at %v, at/after close %v", at, closeAt)
		}
	}
	// 09:00~12:00, 60초 주기면 180 사이클
	if len(passTimes) != 180 {
		t.Errorf("got %d passes, want 180", len(passTimes))
	}

	if got := loop.Status(); got.State != StateDone {
		t.Errorf("State = %s, want DONE", got.State)
	}
}

func TestLoopSharedPassTimestamp(t *testing.T) {
	clock := &fakeClock{now: kst(10, 0)}
	window := sessionconfig.Window{Close: "10:02", IntervalSeconds: 60}

	var stamps []time.Time
	pass := func(ctx context.Context, collectedAt time.Time) error {
		// 패스 내부 작업이 시간이 걸려도 타임스탬프는 고정
		clock.Sleep(3 * time.Second)
		stamps = append(stamps, collectedAt)
		return nil
	}

	loop := New("flow", window, pass, testLogger(), Options{Clock: clock})
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(stamps) != 2 {
		t.Fatalf("got %d passes, want 2", len(stamps))
	}
	if !stamps[0].Equal(kst(10, 0)) {
		t.Errorf("first stamp = %v, want %v", stamps[0], kst(10, 0))
	}
	// 실행 시간을 제외한 대기: 두 번째 사이클은 정확히 60초 뒤
	if !stamps[1].Equal(kst(10, 1)) {
		t.Errorf("second stamp = %v, want %v", stamps[1], kst(10, 1))
	}
}

func TestLoopRunOnce(t *testing.T) {
	clock := &fakeClock{now: kst(16, 0)} // 마감 이후라도 --once는 실행된다
	window := sessionconfig.Window{Close: "15:30", IntervalSeconds: 60}

	runs := 0
	pass := func(ctx context.Context, collectedAt time.Time) error {
		runs++
		return nil
	}

	loop := New("flow", window, pass, testLogger(), Options{Clock: clock, Once: true})
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if runs != 1 {
		t.Errorf("got %d runs, want 1", runs)
	}
	if got := loop.Status(); got.State != StateDone {
		t.Errorf("State = %s, want DONE", got.State)
	}
}

func TestLoopErrorCooldown(t *testing.T) {
	clock := &fakeClock{now: kst(10, 0)}
	window := sessionconfig.Window{Close: "10:03", IntervalSeconds: 10}

	var starts []time.Time
	pass := func(ctx context.Context, collectedAt time.Time) error {
		starts = append(starts, collectedAt)
		if len(starts) == 1 {
			return errors.New("boom")
		}
		return nil
	}

	loop := New("flow", window, pass, testLogger(), Options{Clock: clock})
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(starts) < 2 {
		t.Fatalf("got %d passes, want at least 2", len(starts))
	}
	// 실패 후에는 주기(10초)가 아니라 60초 쿨다운
	gap := starts[1].Sub(starts[0])
	if gap != 60*time.Second {
		t.Errorf("gap after failure = %v, want 60s", gap)
	}

	snap := loop.Status()
	if snap.Failures != 1 {
		t.Errorf("Failures = %d, want 1", snap.Failures)
	}
}

func TestLoopStopsOnCancel(t *testing.T) {
	clock := &fakeClock{now: kst(10, 0)}
	window := sessionconfig.Window{Close: "15:30", IntervalSeconds: 60}

	ctx, cancel := context.WithCancel(context.Background())
	pass := func(ctx context.Context, collectedAt time.Time) error {
		cancel() // 대기 중 중단 요청
		return nil
	}

	loop := New("flow", window, pass, testLogger(), Options{Clock: clock})
	if err := loop.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestLoopIntervalOverride(t *testing.T) {
	clock := &fakeClock{now: kst(10, 0)}
	window := sessionconfig.Window{Close: "10:01", IntervalSeconds: 60}

	var starts []time.Time
	pass := func(ctx context.Context, collectedAt time.Time) error {
		starts = append(starts, collectedAt)
		return nil
	}

	loop := New("flow", window, pass, testLogger(), Options{Clock: clock, Interval: 30 * time.Second})
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(starts) != 2 {
		t.Fatalf("got %d passes, want 2", len(starts))
	}
	if gap := starts[1].Sub(starts[0]); gap != 30*time.Second {
		t.Errorf("gap = %v, want 30s", gap)
	}
}
