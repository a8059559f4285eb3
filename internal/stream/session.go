package stream

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/ygscore/internal/collector"
	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/internal/external/kiwoom"
	"github.com/wonny/ygscore/internal/store"
	"github.com/wonny/ygscore/pkg/logger"
)

const (
	regGroup      = "1"
	batchSize     = 100
	collectWindow = 10 * time.Second
	batchPause    = 1 * time.Second
)

// realtimeSocket is the subscription surface of the websocket client.
type realtimeSocket interface {
	Register(grpNo string, codes []string, types []string, refresh string) error
	Remove(grpNo string, codes []string, types []string) error
}

// tickSink persists drained snapshots.
type tickSink interface {
	SaveBatch(ctx context.Context, ticks []contracts.TickSnapshot) (store.UpsertResult, error)
}

// scoreRunner triggers the server-side score function after a batch lands.
type scoreRunner interface {
	RunWebsocketScore(ctx context.Context) error
}

// Session drives websocket batch collection: 100종목씩 등록, 수신 대기,
// 버퍼 드레인 후 적재, 해지, 다음 배치.
type Session struct {
	socket   realtimeSocket
	ticks    tickSink
	scores   scoreRunner
	holdings []contracts.Holding
	logger   *logger.Logger
	clock    collector.Clock

	mu     sync.Mutex
	buffer map[string]contracts.TickSnapshot
}

// NewSession creates a websocket batch session over one holdings set.
func NewSession(socket realtimeSocket, ticks tickSink, scores scoreRunner, holdings []contracts.Holding, log *logger.Logger, clock collector.Clock) *Session {
	return &Session{
		socket:   socket,
		ticks:    ticks,
		scores:   scores,
		holdings: holdings,
		logger:   log,
		clock:    clock,
		buffer:   make(map[string]contracts.TickSnapshot),
	}
}

// HandleTick buffers one pushed snapshot. 같은 종목이 여러 번 오면
// 마지막 체결만 남는다. 웹소켓 클라이언트의 수신 콜백으로 건다.
func (s *Session) HandleTick(tick *contracts.TickSnapshot) {
	s.mu.Lock()
	s.buffer[tick.StockCode] = *tick
	s.mu.Unlock()
}

// Pass runs one full cycle over every holdings batch.
func (s *Session) Pass(ctx context.Context, collectedAt time.Time) error {
	nameOf := make(map[string]string, len(s.holdings))
	codes := make([]string, 0, len(s.holdings))
	for _, h := range s.holdings {
		nameOf[h.Code] = h.Name
		codes = append(codes, h.Code)
	}

	types := []string{kiwoom.RealTypeTick}

	for start := 0; start < len(codes); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + batchSize
		if end > len(codes) {
			end = len(codes)
		}
		batch := codes[start:end]

		s.resetBuffer()
		// refresh=0: 이전 등록 초기화
		if err := s.socket.Register(regGroup, batch, types, "0"); err != nil {
			return err
		}

		s.clock.Sleep(collectWindow)

		records := s.drain(batch, nameOf, collectedAt)
		if len(records) > 0 {
			result, err := s.ticks.SaveBatch(ctx, records)
			if err != nil {
				s.logger.WithError(err).Error("Websocket batch save failed")
			} else {
				s.logger.WithFields(map[string]interface{}{
					"batch": start/batchSize + 1,
					"saved": result.Saved,
				}).Info("Websocket batch saved")

				if err := s.scores.RunWebsocketScore(ctx); err != nil {
					s.logger.WithError(err).Error("Websocket score update failed")
				}
			}
		}

		if err := s.socket.Remove(regGroup, batch, types); err != nil {
			s.logger.WithError(err).Warn("Realtime unsubscribe failed")
		}

		s.clock.Sleep(batchPause)
	}

	return nil
}

func (s *Session) resetBuffer() {
	s.mu.Lock()
	s.buffer = make(map[string]contracts.TickSnapshot)
	s.mu.Unlock()
}

// drain collects buffered snapshots for one batch, in batch order.
// 모든 레코드가 패스 타임스탬프를 공유한다.
func (s *Session) drain(batch []string, nameOf map[string]string, collectedAt time.Time) []contracts.TickSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []contracts.TickSnapshot
	for _, code := range batch {
		tick, ok := s.buffer[code]
		if !ok {
			continue
		}
		tick.StockName = nameOf[code]
		tick.CollectedAt = collectedAt
		records = append(records, tick)
	}
	return records
}
