package collector

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/ygscore/internal/krparse"
	"github.com/wonny/ygscore/internal/sessionconfig"
	"github.com/wonny/ygscore/pkg/logger"
)

// State is the loop lifecycle phase.
type State string

const (
	StateWaitingForOpen State = "WAITING_FOR_OPEN"
	StateCollecting     State = "COLLECTING"
	StateDone           State = "DONE"
)

const (
	preOpenPoll = 30 * time.Second
	errCooldown = 60 * time.Second
)

// Clock abstracts wall time so loops can run against a simulated clock.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type kstClock struct{}

func (kstClock) Now() time.Time        { return krparse.NowKST() }
func (kstClock) Sleep(d time.Duration) { time.Sleep(d) }

// RealClock returns the wall clock in KST.
func RealClock() Clock { return kstClock{} }

// Pass executes one collection cycle. collectedAt은 패스 안의 모든
// 레코드가 공유하는 타임스탬프.
type Pass func(ctx context.Context, collectedAt time.Time) error

// Options tune one loop run.
type Options struct {
	Once     bool          // 한 사이클만 돌고 종료
	Interval time.Duration // 0이면 윈도우 기본 주기
	Clock    Clock         // nil이면 실제 KST 시계
}

// Snapshot is one loop's observable status.
type Snapshot struct {
	Name      string    `json:"name"`
	State     State     `json:"state"`
	Runs      int       `json:"runs"`
	Failures  int       `json:"failures"`
	LastRun   time.Time `json:"last_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// Loop drives one collection pass through a session window.
// ⭐ SSOT: 세션 루프 상태기계는 여기서만
type Loop struct {
	name     string
	window   sessionconfig.Window
	pass     Pass
	logger   *logger.Logger
	clock    Clock
	once     bool
	interval time.Duration

	mu       sync.Mutex
	state    State
	runs     int
	failures int
	lastRun  time.Time
	lastErr  error
}

// New creates a session loop around one pass.
func New(name string, window sessionconfig.Window, pass Pass, log *logger.Logger, opts Options) *Loop {
	clock := opts.Clock
	if clock == nil {
		clock = kstClock{}
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = window.Interval()
	}
	return &Loop{
		name:     name,
		window:   window,
		pass:     pass,
		logger:   log,
		clock:    clock,
		once:     opts.Once,
		interval: interval,
		state:    StateWaitingForOpen,
	}
}

// Run drives the loop until the window closes, one pass completes in
// run-once mode, or the context is cancelled.
//
// WAITING_FOR_OPEN → COLLECTING → DONE. 마감 체크는 사이클 시작마다,
// 중단 토큰은 사이클 시작과 대기 1초마다 확인한다. 실패한 사이클은
// 60초 쿨다운 후 재시도한다.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.WithFields(map[string]interface{}{
		"loop":     l.name,
		"open":     l.window.Open,
		"close":    l.window.Close,
		"interval": l.interval.String(),
		"once":     l.once,
	}).Info("Session loop starting")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := l.clock.Now()

		if !l.once && l.window.AtOrAfterClose(now) {
			l.setState(StateDone)
			l.logger.WithFields(map[string]interface{}{
				"loop": l.name,
				"runs": l.runCount(),
			}).Info("Session closed, loop done")
			return nil
		}

		if l.window.BeforeOpen(now) {
			l.setState(StateWaitingForOpen)
			if err := l.wait(ctx, preOpenPoll); err != nil {
				return err
			}
			continue
		}

		l.setState(StateCollecting)
		start := now
		collectedAt := now.Truncate(time.Second)

		err := l.pass(ctx, collectedAt)
		l.record(collectedAt, err)

		if l.once {
			l.setState(StateDone)
			return err
		}

		var waitFor time.Duration
		if err != nil {
			l.logger.WithError(err).WithField("loop", l.name).Error("Collection pass failed, cooling down")
			waitFor = errCooldown
		} else {
			elapsed := l.clock.Now().Sub(start)
			waitFor = l.interval - elapsed
			if waitFor < 0 {
				waitFor = 0
			}
		}

		if err := l.wait(ctx, waitFor); err != nil {
			return err
		}
	}
}

// wait sleeps in 1s steps so cancellation is noticed mid-wait.
func (l *Loop) wait(ctx context.Context, d time.Duration) error {
	for remaining := d; remaining > 0; remaining -= time.Second {
		if err := ctx.Err(); err != nil {
			return err
		}
		step := time.Second
		if remaining < step {
			step = remaining
		}
		l.clock.Sleep(step)
	}
	return ctx.Err()
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

func (l *Loop) record(at time.Time, err error) {
	l.mu.Lock()
	l.runs++
	l.lastRun = at
	l.lastErr = err
	if err != nil {
		l.failures++
	}
	l.mu.Unlock()
}

func (l *Loop) runCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runs
}

// Status returns the loop's current snapshot.
func (l *Loop) Status() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := Snapshot{
		Name:     l.name,
		State:    l.state,
		Runs:     l.runs,
		Failures: l.failures,
		LastRun:  l.lastRun,
	}
	if l.lastErr != nil {
		snap.LastError = l.lastErr.Error()
	}
	return snap
}
