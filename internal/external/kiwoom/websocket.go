package kiwoom

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/internal/krparse"
	"github.com/wonny/ygscore/pkg/config"
	"github.com/wonny/ygscore/pkg/logger"
)

// trnm discriminators of the realtime socket protocol
const (
	TrnmLogin  = "LOGIN"
	TrnmReg    = "REG"
	TrnmRemove = "REMOVE"
	TrnmReal   = "REAL"
	TrnmPing   = "PING"
)

// RealTypeTick is the 주식체결 realtime field-set type.
const RealTypeTick = "0B"

const loginTimeout = 10 * time.Second

// WSClient handles the Kiwoom realtime WebSocket session.
// ⭐ SSOT: 실시간 소켓 통신은 이 클라이언트에서만
type WSClient struct {
	cfg    config.KiwoomConfig
	logger *logger.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	connected bool // 쓰기 가능 여부 (서버가 끊으면 false)
	closed    bool // 정리 완료 여부, Disconnect가 한 번만 수행되게

	// Callbacks
	onTick func(tick *contracts.TickSnapshot)

	loginCh chan error
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewWSClient creates a new realtime socket client
func NewWSClient(cfg config.KiwoomConfig, log *logger.Logger) *WSClient {
	return &WSClient{
		cfg:     cfg,
		logger:  log,
		loginCh: make(chan error, 1),
		stopCh:  make(chan struct{}),
	}
}

// OnTick registers the tick callback. Connect 전에 설정할 것.
func (c *WSClient) OnTick(fn func(*contracts.TickSnapshot)) {
	c.onTick = fn
}

// Connect dials the socket, sends the LOGIN frame and waits for its ack.
func (c *WSClient) Connect(ctx context.Context, token string) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, c.cfg.SocketURL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connected = true
	c.connMu.Unlock()

	c.wg.Add(1)
	go c.readLoop()

	if err := c.writeJSON(map[string]string{"trnm": TrnmLogin, "token": token}); err != nil {
		c.Disconnect()
		return fmt.Errorf("send login: %w", err)
	}

	select {
	case err := <-c.loginCh:
		if err != nil {
			c.Disconnect()
			return err
		}
	case <-time.After(loginTimeout):
		c.Disconnect()
		return fmt.Errorf("login ack timeout")
	case <-ctx.Done():
		c.Disconnect()
		return ctx.Err()
	}

	c.logger.Info("Kiwoom WebSocket connected")
	return nil
}

// Disconnect closes the connection.
// 서버가 먼저 끊어 connected가 내려간 뒤에도 소켓 정리는 수행된다.
func (c *WSClient) Disconnect() {
	c.connMu.Lock()
	if c.closed {
		c.connMu.Unlock()
		return
	}
	c.closed = true
	c.connected = false
	close(c.stopCh)
	if c.conn != nil {
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	c.logger.Info("Kiwoom WebSocket disconnected")
}

// IsConnected returns connection status
func (c *WSClient) IsConnected() bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.connected
}

// Register subscribes a group of codes to realtime field-set types.
// refresh="0"이면 이전 등록을 초기화하고 새로 등록한다.
func (c *WSClient) Register(grpNo string, codes []string, types []string, refresh string) error {
	return c.writeJSON(wsSubscribe{
		Trnm:    TrnmReg,
		GrpNo:   grpNo,
		Refresh: refresh,
		Data:    []wsSubscribeItem{{Item: codes, Type: types}},
	})
}

// Remove unsubscribes a group of codes.
func (c *WSClient) Remove(grpNo string, codes []string, types []string) error {
	return c.writeJSON(wsSubscribe{
		Trnm:  TrnmRemove,
		GrpNo: grpNo,
		Data:  []wsSubscribeItem{{Item: codes, Type: types}},
	})
}

// wsSubscribe is the REG/REMOVE request frame
type wsSubscribe struct {
	Trnm    string            `json:"trnm"`
	GrpNo   string            `json:"grp_no"`
	Refresh string            `json:"refresh,omitempty"`
	Data    []wsSubscribeItem `json:"data"`
}

type wsSubscribeItem struct {
	Item []string `json:"item"`
	Type []string `json:"type"`
}

// wsInbound is the common shape of server frames
type wsInbound struct {
	Trnm       string        `json:"trnm"`
	ReturnCode *int          `json:"return_code"`
	ReturnMsg  string        `json:"return_msg"`
	Data       []wsRealEntry `json:"data"`
}

// wsRealEntry is one REAL push entry
type wsRealEntry struct {
	Type   string            `json:"type"`
	Item   string            `json:"item"`
	Values map[string]string `json:"values"`
}

// readLoop receives frames until the socket closes or Disconnect is called.
func (c *WSClient) readLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stopCh:
			default:
				c.logger.WithError(err).Warn("WebSocket read failed, connection closed by server")
				c.connMu.Lock()
				c.connected = false
				c.connMu.Unlock()
			}
			return
		}

		c.handleFrame(raw)
	}
}

// handleFrame dispatches one inbound frame by its trnm discriminator.
func (c *WSClient) handleFrame(raw []byte) {
	var msg wsInbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.WithError(err).Warn("Malformed WebSocket frame skipped")
		return
	}

	switch msg.Trnm {
	case TrnmLogin:
		if msg.ReturnCode != nil && *msg.ReturnCode != 0 {
			c.loginCh <- fmt.Errorf("websocket login failed: %s", msg.ReturnMsg)
		} else {
			c.loginCh <- nil
		}

	case TrnmReg, TrnmRemove:
		if msg.ReturnCode != nil && *msg.ReturnCode != 0 {
			c.logger.WithFields(map[string]interface{}{
				"trnm":  msg.Trnm,
				"error": msg.ReturnMsg,
			}).Warn("Realtime subscription request failed")
		}

	case TrnmReal:
		collectedAt := krparse.NowKST()
		for _, entry := range msg.Data {
			if tick := parseTick(entry, collectedAt); tick != nil && c.onTick != nil {
				c.onTick(tick)
			}
		}

	case TrnmPing:
		// 세션 유지: 받은 프레임을 그대로 되돌려준다
		if err := c.writeRaw(raw); err != nil {
			c.logger.WithError(err).Warn("PING echo failed")
		}
	}
}

// 0B(주식체결) 필드 번호 매핑
const (
	fieldTime       = "20"  // 체결시간
	fieldClose      = "10"  // 현재가
	fieldChange     = "11"  // 전일대비
	fieldChangeRate = "12"  // 등락율
	fieldAccVolume  = "13"  // 누적거래량
	fieldAccValue   = "14"  // 누적거래대금
	fieldOpen       = "16"  // 시가
	fieldHigh       = "17"  // 고가
	fieldLow        = "18"  // 저가
	fieldStrength   = "228" // 체결강도
)

// parseTick maps one REAL entry to a snapshot.
// 가격 필드는 부호 표기(+/-)가 붙어 내려와 절대값으로 정리하고,
// 전일대비/등락율만 부호를 보존한다.
func parseTick(entry wsRealEntry, collectedAt time.Time) *contracts.TickSnapshot {
	if entry.Type != RealTypeTick {
		return nil
	}

	v := entry.Values
	return &contracts.TickSnapshot{
		StockCode:    entry.Item,
		TradeDate:    v[fieldTime],
		ClosePrice:   math.Abs(krparse.Number(v[fieldClose])),
		Change:       krparse.Number(v[fieldChange]),
		ChangeRate:   krparse.Number(v[fieldChangeRate]),
		OpenPrice:    math.Abs(krparse.Number(v[fieldOpen])),
		HighPrice:    math.Abs(krparse.Number(v[fieldHigh])),
		LowPrice:     math.Abs(krparse.Number(v[fieldLow])),
		Volume:       int64(math.Abs(krparse.Number(v[fieldAccVolume]))),
		TradingValue: int64(math.Abs(krparse.Number(v[fieldAccValue]))),
		Strength:     krparse.Number(v[fieldStrength]),
		CollectedAt:  collectedAt,
	}
}

func (c *WSClient) writeJSON(v interface{}) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(v)
}

func (c *WSClient) writeRaw(raw []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}
