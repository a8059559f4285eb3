package toss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/ygscore/pkg/config"
	"github.com/wonny/ygscore/pkg/httputil"
	"github.com/wonny/ygscore/pkg/logger"
)

// ErrInsufficientRows is returned when a ranking page did not yield enough
// rows after all fetch attempts. 부분 수집은 커밋하지 않는다.
var ErrInsufficientRows = errors.New("toss: insufficient rows collected")

const (
	maxFetchAttempts = 3
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"
)

// Client fetches and parses Toss Invest ranking pages.
// ⭐ SSOT: 토스 페이지 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string

	// completeness thresholds
	rankingTarget int // 투자자 그룹당 최소 행수
	minTurnover   int // 거래대금 랭킹 최소 행수
}

// NewClient creates a new Toss Invest client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient:    httpClient,
		logger:        log,
		baseURL:       cfg.Toss.BaseURL,
		rankingTarget: cfg.Collect.RankingTarget,
		minTurnover:   cfg.Collect.MinTurnover,
	}
}

// fetchHTML fetches one rendered ranking page as a text blob.
func (c *Client) fetchHTML(ctx context.Context, rawQuery string) (string, error) {
	fullURL := fmt.Sprintf("%s/?%s", c.baseURL, rawQuery)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}
