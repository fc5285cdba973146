package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"departure-monitor/config"
	"departure-monitor/internal/models"
	"departure-monitor/internal/utils"
)

// fakeElasticsearch 벌크/검색 요청을 기록하는 가짜 서버
type fakeElasticsearch struct {
	mu        sync.Mutex
	bulkBody  string
	bulkReply string
	search    string
}

func (f *fakeElasticsearch) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(r.URL.Path, "/_bulk"):
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.bulkBody = string(body)
		reply := f.bulkReply
		f.mu.Unlock()
		w.Write([]byte(reply))
	case strings.HasSuffix(r.URL.Path, "/_search"):
		f.mu.Lock()
		reply := f.search
		f.mu.Unlock()
		w.Write([]byte(reply))
	default:
		w.Write([]byte(`{"name":"test","cluster_name":"test","version":{"number":"8.11.1","build_flavor":"default"},"tagline":"You Know, for Search"}`))
	}
}

func newTestArchive(t *testing.T, fake *fakeElasticsearch) *DepartureArchive {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(server.Close)

	cfg := config.FromEnvironment()
	cfg.ElasticsearchURL = server.URL
	cfg.IndexName = "departure-monitors"

	archive, err := NewDepartureArchive(cfg, utils.NewDiscardLogger())
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	return archive
}

func sampleStations() []models.StationMonitor {
	return []models.StationMonitor{
		{
			StationID: "60201234",
			Title:     "Karlsplatz",
			Lines: []models.LineMonitor{{
				Name:       "U1",
				Departures: []models.Departure{{Countdown: 1}, {Countdown: 4}},
			}},
		},
		{StationID: "60205678", Title: "Stephansplatz", Lines: []models.LineMonitor{}},
	}
}

func TestStoreSnapshotsWritesBulkBody(t *testing.T) {
	fake := &fakeElasticsearch{bulkReply: `{"errors":false,"items":[{"index":{"_id":"a","status":201}},{"index":{"_id":"b","status":201}}]}`}
	archive := newTestArchive(t, fake)

	fetchedAt := time.UnixMilli(1704096000000).UTC()
	if err := archive.StoreSnapshots(context.Background(), sampleStations(), fetchedAt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fake.mu.Lock()
	body := fake.bulkBody
	fake.mu.Unlock()

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 4 {
		t.Fatalf("expected 4 bulk lines, got %d: %q", len(lines), body)
	}

	if !strings.Contains(lines[0], `"_id":"60201234_1704096000000"`) {
		t.Errorf("unexpected meta line: %s", lines[0])
	}

	var doc SnapshotDocument
	if err := json.Unmarshal([]byte(lines[1]), &doc); err != nil {
		t.Fatalf("document line is not JSON: %v", err)
	}
	if doc.StationID != "60201234" || doc.LineCount != 1 || doc.DepartureCount != 2 {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestStoreSnapshotsReportsItemErrors(t *testing.T) {
	fake := &fakeElasticsearch{bulkReply: `{"errors":true,"items":[{"index":{"_id":"a","status":400,"error":{"type":"mapper_parsing_exception","reason":"bad"}}}]}`}
	archive := newTestArchive(t, fake)

	err := archive.StoreSnapshots(context.Background(), sampleStations()[:1], time.Now())
	if err == nil {
		t.Fatal("expected error for failed bulk item")
	}
}

func TestStoreSnapshotsEmptyIsNoop(t *testing.T) {
	fake := &fakeElasticsearch{}
	archive := newTestArchive(t, fake)

	if err := archive.StoreSnapshots(context.Background(), nil, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.bulkBody != "" {
		t.Error("no bulk request expected for empty input")
	}
}

func TestLatestSnapshot(t *testing.T) {
	fake := &fakeElasticsearch{
		search: `{"hits":{"hits":[{"_source":{"stationId":"60201234","title":"Karlsplatz","fetchedAt":"2024-01-01T08:00:00Z","lineCount":1,"departureCount":2,"station":{"stationId":"60201234","lines":[]}}}]}}`,
	}
	archive := newTestArchive(t, fake)

	doc, found, err := archive.LatestSnapshot(context.Background(), "60201234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found || doc.Title != "Karlsplatz" || doc.DepartureCount != 2 {
		t.Errorf("unexpected snapshot: found=%v doc=%+v", found, doc)
	}

	fake.mu.Lock()
	fake.search = `{"hits":{"hits":[]}}`
	fake.mu.Unlock()
	_, found, err = archive.LatestSnapshot(context.Background(), "nope")
	if err != nil || found {
		t.Errorf("expected not found, got found=%v err=%v", found, err)
	}
}
