package stream

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/internal/store"
	"github.com/wonny/ygscore/pkg/config"
	"github.com/wonny/ygscore/pkg/logger"
)

type stubSocket struct {
	session    *Session
	registered [][]string
	removed    [][]string
	pushPrice  float64
}

func (s *stubSocket) Register(grpNo string, codes []string, types []string, refresh string) error {
	s.registered = append(s.registered, codes)
	// 등록된 종목에 대해 체결이 밀려 들어온다
	for _, code := range codes {
		s.session.HandleTick(&contracts.TickSnapshot{StockCode: code, ClosePrice: s.pushPrice})
		s.session.HandleTick(&contracts.TickSnapshot{StockCode: code, ClosePrice: s.pushPrice + 1})
	}
	return nil
}

func (s *stubSocket) Remove(grpNo string, codes []string, types []string) error {
	s.removed = append(s.removed, codes)
	return nil
}

type stubSink struct {
	batches [][]contracts.TickSnapshot
}

func (s *stubSink) SaveBatch(ctx context.Context, ticks []contracts.TickSnapshot) (store.UpsertResult, error) {
	s.batches = append(s.batches, ticks)
	return store.UpsertResult{Saved: len(ticks)}, nil
}

type stubScores struct {
	runs int
}

func (s *stubScores) RunWebsocketScore(ctx context.Context) error {
	s.runs++
	return nil
}

type noopClock struct{}

func (noopClock) Now() time.Time        { return time.Now() }
func (noopClock) Sleep(d time.Duration) {}

func holdingsOf(n int) []contracts.Holding {
	holdings := make([]contracts.Holding, n)
	for i := range holdings {
		code := fmt.Sprintf("%06d", i+1)
		holdings[i] = contracts.Holding{Code: code, Name: "종목" + code}
	}
	return holdings
}

func newTestSession(n int) (*Session, *stubSocket, *stubSink, *stubScores) {
	socket := &stubSocket{pushPrice: 1000}
	sink := &stubSink{}
	scores := &stubScores{}
	log := logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})

	sess := NewSession(socket, sink, scores, holdingsOf(n), log, noopClock{})
	socket.session = sess
	return sess, socket, sink, scores
}

func TestPassBatchesByHundred(t *testing.T) {
	sess, socket, sink, scores := newTestSession(250)

	at := time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, sess.Pass(context.Background(), at))

	require.Len(t, socket.registered, 3)
	assert.Len(t, socket.registered[0], 100)
	assert.Len(t, socket.registered[1], 100)
	assert.Len(t, socket.registered[2], 50)
	assert.Equal(t, socket.registered, socket.removed)

	require.Len(t, sink.batches, 3)
	assert.Equal(t, 3, scores.runs)
}

func TestPassStampsAndNamesRecords(t *testing.T) {
	sess, _, sink, _ := newTestSession(2)

	at := time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, sess.Pass(context.Background(), at))

	require.Len(t, sink.batches, 1)
	records := sink.batches[0]
	require.Len(t, records, 2)

	for _, rec := range records {
		assert.Equal(t, at, rec.CollectedAt)
		assert.Equal(t, "종목"+rec.StockCode, rec.StockName)
		// 같은 종목의 두 번째 체결이 남는다
		assert.Equal(t, 1001.0, rec.ClosePrice)
	}
}

func TestPassSkipsSilentCodes(t *testing.T) {
	sess, _, sink, scores := newTestSession(3)

	// 수신이 전혀 없는 소켓: 적재도 점수 계산도 건너뛴다
	sess.socket = silentSocket{}

	require.NoError(t, sess.Pass(context.Background(), time.Now()))
	assert.Empty(t, sink.batches)
	assert.Equal(t, 0, scores.runs)
}

type silentSocket struct{}

func (silentSocket) Register(grpNo string, codes []string, types []string, refresh string) error {
	return nil
}
func (silentSocket) Remove(grpNo string, codes []string, types []string) error { return nil }
