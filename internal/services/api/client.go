// internal/services/api/client.go - 업스트림 실시간 모니터 API 클라이언트
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"departure-monitor/config"
	"departure-monitor/internal/models"
	"departure-monitor/internal/utils"
)

// ErrUpstreamUnavailable 업스트림 호출 실패 (네트워크/HTTP/형식/제공자 오류 모두 포함)
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// FeedClient 업스트림 모니터 피드 클라이언트 공통 인터페이스
type FeedClient interface {
	// FetchMonitors 여러 정류장의 모니터 정보를 한 번의 호출로 조회
	FetchMonitors(ctx context.Context, stationIDs []string) (*models.RawMonitorResponse, error)
}

// MonitorFeedClient 실시간 모니터 API 클라이언트 (정류장 ID를 반복 쿼리 파라미터로 전달)
type MonitorFeedClient struct {
	config *config.UpstreamConfig
	logger *utils.Logger
	client *http.Client
}

// NewMonitorFeedClient 새로운 모니터 피드 클라이언트 생성
func NewMonitorFeedClient(cfg *config.Config, logger *utils.Logger) *MonitorFeedClient {
	return &MonitorFeedClient{
		config: &cfg.Upstream,
		logger: logger,
		client: &http.Client{
			Timeout: cfg.Upstream.Timeout,
		},
	}
}

// FetchMonitors 정류장 목록에 대한 모니터 정보 조회
func (c *MonitorFeedClient) FetchMonitors(ctx context.Context, stationIDs []string) (*models.RawMonitorResponse, error) {
	if len(stationIDs) == 0 {
		return &models.RawMonitorResponse{}, nil
	}

	apiURL, err := c.buildAPIURL(stationIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: URL 생성 실패: %v", ErrUpstreamUnavailable, err)
	}
	c.logger.Debugf("업스트림 호출 URL: %s", utils.TruncateURL(apiURL, 200))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: 요청 생성 실패: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: 호출 실패 (정류장 %d개): %v", ErrUpstreamUnavailable, len(stationIDs), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: 응답 읽기 실패: %v", ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d (%s)", ErrUpstreamUnavailable, resp.StatusCode, utils.PreviewBody(body, 200))
	}

	if c.logger.IsDebug() {
		c.logger.Debugf("업스트림 응답 미리보기: %s", utils.PreviewBody(body, 500))
	}

	// XML/HTML 오류 페이지 감지
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, fmt.Errorf("%w: JSON이 아닌 응답 (%s)", ErrUpstreamUnavailable, utils.PreviewBody(body, 100))
	}

	var raw models.RawMonitorResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: JSON 파싱 실패: %v", ErrUpstreamUnavailable, err)
	}

	if !raw.Message.IsSuccess() {
		return nil, fmt.Errorf("%w: 제공자 오류 코드 %d (%s)", ErrUpstreamUnavailable, raw.Message.MessageCode, raw.Message.Value)
	}

	return &raw, nil
}

// buildAPIURL 정류장 ID를 반복 파라미터로 포함한 URL 생성
func (c *MonitorFeedClient) buildAPIURL(stationIDs []string) (string, error) {
	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", err
	}

	query := base.Query()
	for _, id := range stationIDs {
		query.Add(c.config.StationParam, id)
	}
	base.RawQuery = query.Encode()

	return base.String(), nil
}
