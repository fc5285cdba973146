package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"departure-monitor/internal/models"
	"departure-monitor/internal/utils"
)

var (
	// ErrRequestRejected 서버가 요청을 거부함 (4xx)
	ErrRequestRejected = errors.New("monitor request rejected")

	// ErrServerUnavailable 서버 오류 또는 연결 실패
	ErrServerUnavailable = errors.New("monitor server unavailable")
)

const monitorPath = "/api/v1/monitors"

// HTTPMonitorFetcher 모니터 엔드포인트 HTTP 클라이언트
type HTTPMonitorFetcher struct {
	endpoint string
	client   *http.Client
	logger   *utils.Logger
}

// NewHTTPMonitorFetcher 서버 주소와 타임아웃으로 클라이언트 생성
func NewHTTPMonitorFetcher(serverURL string, timeout time.Duration, logger *utils.Logger) *HTTPMonitorFetcher {
	return &HTTPMonitorFetcher{
		endpoint: strings.TrimRight(serverURL, "/") + monitorPath,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchMonitors 정류장 목록 조회 (etag 가 있으면 If-None-Match 전송)
func (f *HTTPMonitorFetcher) FetchMonitors(ctx context.Context, stationIDs []string, etag string) (FetchResult, error) {
	payload, err := json.Marshal(map[string][]string{"stationIds": stationIDs})
	if err != nil {
		return FetchResult{}, fmt.Errorf("요청 본문 생성 실패: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return FetchResult{}, fmt.Errorf("요청 생성 실패: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchResult{}, fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, fmt.Errorf("%w: 응답 읽기 실패: %v", ErrServerUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return FetchResult{ETag: etag, NotModified: true}, nil

	case resp.StatusCode >= 500:
		return FetchResult{}, fmt.Errorf("%w: HTTP %d (%s)", ErrServerUnavailable, resp.StatusCode, utils.PreviewBody(body, 200))

	case resp.StatusCode >= 400:
		return FetchResult{}, fmt.Errorf("%w: HTTP %d (%s)", ErrRequestRejected, resp.StatusCode, utils.PreviewBody(body, 200))

	case resp.StatusCode != http.StatusOK:
		return FetchResult{}, fmt.Errorf("%w: 예상하지 못한 HTTP %d", ErrServerUnavailable, resp.StatusCode)
	}

	var merged models.MergedMonitorResponse
	if err := json.Unmarshal(body, &merged); err != nil {
		return FetchResult{}, fmt.Errorf("%w: 응답 파싱 실패: %v", ErrServerUnavailable, err)
	}

	f.logger.Debugf("모니터 응답 수신 - 정류장 %d개, 부분=%v", len(merged.Stations), merged.Partial)
	return FetchResult{
		Response: &merged,
		ETag:     resp.Header.Get("ETag"),
	}, nil
}
