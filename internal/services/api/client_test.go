package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"departure-monitor/config"
	"departure-monitor/internal/utils"
)

const okBody = `{
  "data": {"monitors": [{
    "locationStop": {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [16.37, 48.20]},
      "properties": {"name": "60201234", "title": "Karlsplatz", "attributes": {"rbl": 4101}}
    },
    "lines": [{
      "name": "U1", "towards": "Leopoldau", "direction": "H",
      "departures": {"departure": [{"departureTime": {"timePlanned": "2024-01-01T10:00:00.000+0100", "countdown": 3}}]}
    }]
  }]},
  "message": {"value": "OK", "messageCode": 1, "serverTime": "2024-01-01T09:57:00.000+0100"}
}`

func newTestClient(baseURL string) *MonitorFeedClient {
	cfg := config.FromEnvironment()
	cfg.Upstream.BaseURL = baseURL
	cfg.Upstream.StationParam = "diva"
	cfg.Upstream.Timeout = 2 * time.Second
	return NewMonitorFeedClient(cfg, utils.NewDiscardLogger())
}

func TestFetchMonitorsSendsRepeatedStationParams(t *testing.T) {
	var gotIDs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIDs = r.URL.Query()["diva"]
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	raw, err := client.FetchMonitors(context.Background(), []string{"60201234", "60205678"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(gotIDs, []string{"60201234", "60205678"}) {
		t.Errorf("expected both ids as repeated params, got %v", gotIDs)
	}
	if len(raw.Data.Monitors) != 1 {
		t.Fatalf("expected 1 monitor, got %d", len(raw.Data.Monitors))
	}
	if raw.Data.Monitors[0].StationID() != "60201234" {
		t.Errorf("unexpected station id %s", raw.Data.Monitors[0].StationID())
	}
}

func TestFetchMonitorsFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "rate limited", status: http.StatusTooManyRequests, body: ``},
		{name: "html body", status: http.StatusOK, body: `<html>maintenance</html>`},
		{name: "broken json", status: http.StatusOK, body: `{"data": {"monitors": [`},
		{name: "provider error code", status: http.StatusOK, body: `{"data":{"monitors":[]},"message":{"value":"bad request","messageCode":311}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).FetchMonitors(context.Background(), []string{"1"})
			if !errors.Is(err, ErrUpstreamUnavailable) {
				t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
			}
		})
	}
}

func TestFetchMonitorsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).FetchMonitors(context.Background(), []string{"1"})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestFetchMonitorsEmptyInputSkipsCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	raw, err := newTestClient(server.URL).FetchMonitors(context.Background(), nil)
	if err != nil || raw == nil {
		t.Fatalf("expected empty response, got %v, %v", raw, err)
	}
	if called {
		t.Error("no upstream call expected for empty input")
	}
}
