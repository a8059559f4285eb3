package kiwoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/ygscore/pkg/config"
	"github.com/wonny/ygscore/pkg/httputil"
	"github.com/wonny/ygscore/pkg/logger"
)

// API domains under /api/dostk/
const (
	DomainMrkcond = "mrkcond" // 시세/장중투자자
	DomainETF     = "etf"     // ETF
	DomainStkinfo = "stkinfo" // 종목정보
	DomainChart   = "chart"   // 차트
)

// Return codes
const (
	ReturnOK          = 0
	ReturnRateLimited = 5 // 일시적 호출 제한, 짧게 쉬고 1회 재시도
)

// Client handles communication with the Kiwoom REST API
// ⭐ SSOT: 키움 REST 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.KiwoomConfig
	limiter    *rate.Limiter

	// Token management
	accessToken string
	tokenMu     sync.RWMutex
}

// NewClient creates a new Kiwoom API client
func NewClient(cfg config.KiwoomConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
		// 초당 2.5회: 원본 스크립트의 호출당 0.4초 간격에 해당
		limiter: rate.NewLimiter(rate.Every(400*time.Millisecond), 1),
	}
}

// tokenResponse is the oauth2 token endpoint response
type tokenResponse struct {
	Token      string `json:"token"`
	ReturnCode int    `json:"return_code"`
	ReturnMsg  string `json:"return_msg"`
}

// Token returns a valid access token, requesting one if necessary.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.tokenMu.RLock()
	if c.accessToken != "" {
		token := c.accessToken
		c.tokenMu.RUnlock()
		return token, nil
	}
	c.tokenMu.RUnlock()

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.accessToken != "" {
		return c.accessToken, nil
	}

	url := c.cfg.BaseURL + "/oauth2/token"
	body := map[string]string{
		"grant_type": "client_credentials",
		"appkey":     c.cfg.APIKey,
		"secretkey":  c.cfg.APISecretKey,
	}

	resp, err := c.httpClient.PostJSON(ctx, url, body)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.Token == "" {
		return "", fmt.Errorf("token response has no token field (return_code=%d msg=%s)",
			tokenResp.ReturnCode, tokenResp.ReturnMsg)
	}

	c.accessToken = tokenResp.Token
	c.logger.Info("Kiwoom access token issued")

	return c.accessToken, nil
}

// callResult carries one API response body plus the continuation headers.
type callResult struct {
	Body    []byte
	NextKey string
	ContYN  string
}

// call makes one authenticated request to a Kiwoom domain endpoint.
// return_code 5(호출 제한)는 1초 쉬고 한 번만 재시도한다.
func (c *Client) call(ctx context.Context, domain, apiID string, payload interface{}, contYN, nextKey string) (*callResult, error) {
	result, err := c.callOnce(ctx, domain, apiID, payload, contYN, nextKey)
	if err != nil {
		return nil, err
	}

	if returnCodeOf(result.Body) == ReturnRateLimited {
		c.logger.WithFields(map[string]interface{}{
			"api_id": apiID,
		}).Warn("Kiwoom rate limited, retrying once")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(1 * time.Second):
		}

		return c.callOnce(ctx, domain, apiID, payload, contYN, nextKey)
	}

	return result, nil
}

func (c *Client) callOnce(ctx context.Context, domain, apiID string, payload interface{}, contYN, nextKey string) (*callResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	url := fmt.Sprintf("%s/api/dostk/%s", c.cfg.BaseURL, domain)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if contYN == "" {
		contYN = "N"
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("authorization", "Bearer "+token)
	req.Header.Set("cont-yn", contYN)
	req.Header.Set("next-key", nextKey)
	req.Header.Set("api-id", apiID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[%s] request failed: %w", apiID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("[%s] read body: %w", apiID, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("[%s] API error status %d: %s", apiID, resp.StatusCode, string(body))
	}

	return &callResult{
		Body:    body,
		NextKey: resp.Header.Get("next-key"),
		ContYN:  resp.Header.Get("cont-yn"),
	}, nil
}

// returnCodeOf extracts return_code without binding to a full response shape.
func returnCodeOf(body []byte) int {
	var probe struct {
		ReturnCode int `json:"return_code"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return -1
	}
	return probe.ReturnCode
}
