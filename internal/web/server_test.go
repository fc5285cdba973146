package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"departure-monitor/config"
	"departure-monitor/internal/models"
	"departure-monitor/internal/services/api"
	"departure-monitor/internal/services/cache"
	"departure-monitor/internal/services/coordinator"
	"departure-monitor/internal/services/merger"
	"departure-monitor/internal/utils"
)

// stubFeed 정류장마다 U1 출발 1건을 돌려주는 업스트림
type stubFeed struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *stubFeed) FetchMonitors(ctx context.Context, stationIDs []string) (*models.RawMonitorResponse, error) {
	f.mu.Lock()
	f.calls++
	fail := f.fail
	f.mu.Unlock()

	if fail {
		return nil, fmt.Errorf("%w: HTTP 503", api.ErrUpstreamUnavailable)
	}

	raw := &models.RawMonitorResponse{Message: models.RawMessage{MessageCode: 1}}
	for _, id := range stationIDs {
		raw.Data.Monitors = append(raw.Data.Monitors, models.RawMonitor{
			LocationStop: models.RawLocationStop{
				Properties: models.RawStopProperties{Name: id, Title: "Station " + id},
			},
			Lines: []models.RawLine{{
				Name:    "U1",
				Towards: "Oberlaa",
				Departures: models.RawDepartures{Departure: []models.RawDeparture{
					{DepartureTime: models.RawDepartureTime{Countdown: 3}},
				}},
			}},
		})
	}
	return raw, nil
}

func (f *stubFeed) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestServer(t *testing.T, feed api.FeedClient) *Server {
	t.Helper()

	cfg := config.FromEnvironment()
	cfg.AdminKey = "secret"
	cfg.MaxStationsPerRequest = 3
	cfg.Upstream.MinInterval = time.Millisecond
	cfg.LineAllowList = []string{"U1"}

	logger := utils.NewDiscardLogger()
	coord := coordinator.New(
		cache.NewMemorySharedCache(100, coordinator.CoordinationKeys()...),
		feed,
		merger.NewLineAllowList(cfg.LineAllowList),
		coordinator.SettingsFromConfig(cfg),
		logger,
	)
	return NewServer(cfg, logger, coord, nil)
}

func postJSON(t *testing.T, s *Server, path, body string, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeMonitor(t *testing.T, resp *http.Response) models.MergedMonitorResponse {
	t.Helper()
	defer resp.Body.Close()

	var merged models.MergedMonitorResponse
	if err := json.NewDecoder(resp.Body).Decode(&merged); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return merged
}

func TestMonitorsReturnsMergedStationsWithETag(t *testing.T) {
	feed := &stubFeed{}
	s := newTestServer(t, feed)

	resp := postJSON(t, s, "/api/v1/monitors", `{"stationIds":[200," 100 ","200"]}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	etag := resp.Header.Get("ETag")
	if !strings.HasPrefix(etag, `"`) || !strings.HasSuffix(etag, `"`) {
		t.Errorf("expected quoted ETag, got %q", etag)
	}
	if role := resp.Header.Get("X-Monitor-Role"); role != string(coordinator.RoleFetcher) {
		t.Errorf("expected fetcher role, got %q", role)
	}

	merged := decodeMonitor(t, resp)
	ids := merged.StationIDs()
	if len(ids) != 2 || ids[0] != "100" || ids[1] != "200" {
		t.Errorf("expected stations [100 200], got %v", ids)
	}
	if merged.Partial {
		t.Error("expected complete response")
	}
	if etag != `"`+merged.ContentHash()+`"` {
		t.Errorf("ETag %s does not match content hash", etag)
	}
}

func TestMonitorsNotModified(t *testing.T) {
	feed := &stubFeed{}
	s := newTestServer(t, feed)

	first := postJSON(t, s, "/api/v1/monitors", `{"stationIds":["100"]}`, nil)
	etag := first.Header.Get("ETag")
	first.Body.Close()

	second := postJSON(t, s, "/api/v1/monitors", `{"stationIds":["100"]}`, map[string]string{"If-None-Match": etag})
	defer second.Body.Close()

	if second.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", second.StatusCode)
	}
	body, _ := io.ReadAll(second.Body)
	if len(body) != 0 {
		t.Errorf("expected empty body, got %q", body)
	}
	if second.Header.Get("ETag") != etag {
		t.Errorf("expected same ETag on 304")
	}
	if feed.callCount() != 1 {
		t.Errorf("expected cached second request, upstream calls = %d", feed.callCount())
	}

	third := postJSON(t, s, "/api/v1/monitors", `{"stationIds":["100"]}`, map[string]string{"If-None-Match": `"stale"`})
	third.Body.Close()
	if third.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for mismatched ETag, got %d", third.StatusCode)
	}
}

func TestMonitorAliasRoute(t *testing.T) {
	s := newTestServer(t, &stubFeed{})

	resp := postJSON(t, s, "/api/monitor", `{"stationIds":[100]}`, nil)
	merged := decodeMonitor(t, resp)
	if resp.StatusCode != http.StatusOK || len(merged.Stations) != 1 {
		t.Errorf("unexpected alias response: %d %+v", resp.StatusCode, merged)
	}
}

func TestMonitorsRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"stationIds":`},
		{"missing field", `{}`},
		{"empty list", `{"stationIds":[]}`},
		{"blank id", `{"stationIds":["100","  "]}`},
		{"boolean id", `{"stationIds":[true]}`},
		{"object id", `{"stationIds":[{"id":1}]}`},
		{"not a list", `{"stationIds":"100"}`},
		{"too many", `{"stationIds":["1","2","3","4"]}`},
	}

	feed := &stubFeed{}
	s := newTestServer(t, feed)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, s, "/api/v1/monitors", tt.body, nil)
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}

	if feed.callCount() != 0 {
		t.Errorf("invalid requests must not reach upstream, calls = %d", feed.callCount())
	}
}

func TestMonitorsDuplicatesCountOnceTowardsLimit(t *testing.T) {
	s := newTestServer(t, &stubFeed{})

	resp := postJSON(t, s, "/api/v1/monitors", `{"stationIds":["1","2","3","3","1"]}`, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 after de-duplication, got %d", resp.StatusCode)
	}
}

func TestMonitorsUpstreamFailureWithoutData(t *testing.T) {
	s := newTestServer(t, &stubFeed{fail: true})

	resp := postJSON(t, s, "/api/v1/monitors", `{"stationIds":["100"]}`, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body["error"] != true {
		t.Errorf("expected error flag, got %v", body)
	}
}

func TestHealthAndStatus(t *testing.T) {
	s := newTestServer(t, &stubFeed{})

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	var health struct {
		Success bool `json:"success"`
		Data    struct {
			Backend string `json:"backend"`
			CacheOK bool   `json:"cacheOk"`
		} `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || !health.Success || health.Data.Backend != cache.BackendMemory {
		t.Errorf("unexpected health response: %d %+v", resp.StatusCode, health)
	}

	resp, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/api/v1/status", nil), -1)
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from status, got %d", resp.StatusCode)
	}
}

func TestInvalidateStationsRequiresAdminKey(t *testing.T) {
	feed := &stubFeed{}
	s := newTestServer(t, feed)

	warm := postJSON(t, s, "/api/v1/monitors", `{"stationIds":["100"]}`, nil)
	warm.Body.Close()

	newDelete := func(key string) *http.Request {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/cache/stations", strings.NewReader(`{"stationIds":["100"]}`))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set("X-Admin-Key", key)
		}
		return req
	}

	for _, key := range []string{"", "wrong"} {
		resp, err := s.App().Test(newDelete(key), -1)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("key %q: expected 403, got %d", key, resp.StatusCode)
		}
	}

	resp, err := s.App().Test(newDelete("secret"), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Data struct {
			DeletedKeys int64 `json:"deletedKeys"`
		} `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK || body.Data.DeletedKeys != 2 {
		t.Errorf("expected fresh and stale keys deleted, got %d %+v", resp.StatusCode, body)
	}

	again := postJSON(t, s, "/api/v1/monitors", `{"stationIds":["100"]}`, nil)
	again.Body.Close()
	if feed.callCount() != 2 {
		t.Errorf("expected refetch after invalidation, upstream calls = %d", feed.callCount())
	}
}

func TestArchiveDisabledAndUnknownRoute(t *testing.T) {
	s := newTestServer(t, &stubFeed{})

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/v1/archive/stations/100", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 with archive disabled, got %d", resp.StatusCode)
	}

	resp, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
