package poller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"departure-monitor/internal/models"
	"departure-monitor/internal/utils"
)

// recordingFetcher 호출을 기록하고 동시 호출 수를 측정하는 가짜 클라이언트
type recordingFetcher struct {
	delay time.Duration

	mu      sync.Mutex
	calls   [][]string
	etags   []string
	respond func(call int, ids []string, etag string) (FetchResult, error)

	current       atomic.Int32
	maxConcurrent atomic.Int32
}

func (f *recordingFetcher) FetchMonitors(ctx context.Context, ids []string, etag string) (FetchResult, error) {
	n := f.current.Add(1)
	defer f.current.Add(-1)
	for {
		peak := f.maxConcurrent.Load()
		if n <= peak || f.maxConcurrent.CompareAndSwap(peak, n) {
			break
		}
	}

	f.mu.Lock()
	call := len(f.calls)
	f.calls = append(f.calls, ids)
	f.etags = append(f.etags, etag)
	respond := f.respond
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if respond != nil {
		return respond(call, ids, etag)
	}
	return FetchResult{Response: responseFor(ids), ETag: `"etag"`}, nil
}

func (f *recordingFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func responseFor(ids []string) *models.MergedMonitorResponse {
	resp := &models.MergedMonitorResponse{Message: "OK"}
	for _, id := range ids {
		resp.Stations = append(resp.Stations, models.StationMonitor{StationID: id})
	}
	return resp
}

func fastOptions() Options {
	return Options{
		ActiveInterval:          15 * time.Millisecond,
		InactiveInterval:        time.Hour,
		NearStationInterval:     5 * time.Millisecond,
		UrgencyThresholdMinutes: 5,
	}
}

func nextUpdate(t *testing.T, s *Scheduler) Update {
	t.Helper()
	select {
	case u, ok := <-s.Updates():
		if !ok {
			t.Fatal("updates channel closed")
		}
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
	}
	return Update{}
}

func TestSlowCallNeverOverlaps(t *testing.T) {
	fetcher := &recordingFetcher{delay: 40 * time.Millisecond}
	s := NewScheduler(fetcher, fastOptions(), utils.NewDiscardLogger())

	s.Start([]string{"100"})

	deadline := time.After(300 * time.Millisecond)
	for done := false; !done; {
		select {
		case <-s.Updates():
		case <-deadline:
			done = true
		}
	}
	s.Stop()

	if got := fetcher.maxConcurrent.Load(); got != 1 {
		t.Errorf("expected at most one call in flight, got %d", got)
	}
	if fetcher.callCount() < 2 {
		t.Errorf("expected polling to continue after slow calls, got %d calls", fetcher.callCount())
	}
	if s.DroppedTicks() == 0 {
		t.Error("ticks during a slow call should have been dropped")
	}
}

func TestSameStationSetSendsLastETag(t *testing.T) {
	fetcher := &recordingFetcher{}
	fetcher.respond = func(call int, ids []string, etag string) (FetchResult, error) {
		if call == 0 {
			return FetchResult{Response: responseFor(ids), ETag: `"v1"`}, nil
		}
		return FetchResult{ETag: etag, NotModified: true}, nil
	}

	opts := fastOptions()
	opts.ActiveInterval = 20 * time.Millisecond
	s := NewScheduler(fetcher, opts, utils.NewDiscardLogger())
	defer s.Stop()

	s.Start([]string{"100", "200"})
	first := nextUpdate(t, s)
	if first.Err != nil || first.Response == nil {
		t.Fatalf("unexpected first update: %+v", first)
	}

	s.Start([]string{"200", "100"})
	second := nextUpdate(t, s)
	if !second.NotModified {
		t.Errorf("expected not-modified update, got %+v", second)
	}
	if second.Response != first.Response {
		t.Error("not-modified update should carry the last good response")
	}

	fetcher.mu.Lock()
	etag := fetcher.etags[1]
	fetcher.mu.Unlock()
	if etag != `"v1"` {
		t.Errorf("expected last etag to be sent, got %q", etag)
	}
}

func TestChangedStationSetDiscardsOldResult(t *testing.T) {
	release := make(chan struct{})
	fetcher := &recordingFetcher{}
	fetcher.respond = func(call int, ids []string, etag string) (FetchResult, error) {
		if call == 0 {
			<-release
		}
		return FetchResult{Response: responseFor(ids), ETag: `"` + ids[0] + `"`}, nil
	}

	opts := fastOptions()
	opts.ActiveInterval = time.Hour
	s := NewScheduler(fetcher, opts, utils.NewDiscardLogger())
	defer s.Stop()

	s.Start([]string{"100"})
	for fetcher.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	s.Start([]string{"200"})
	close(release)

	update := nextUpdate(t, s)
	if !reflect.DeepEqual(update.StationIDs, []string{"200"}) {
		t.Fatalf("expected update for the new set, got %v", update.StationIDs)
	}
	if update.Response == nil || update.Response.Stations[0].StationID != "200" {
		t.Errorf("old set's response leaked: %+v", update.Response)
	}

	fetcher.mu.Lock()
	etag := fetcher.etags[1]
	fetcher.mu.Unlock()
	if etag != "" {
		t.Errorf("etag should be cleared for a new set, got %q", etag)
	}
	if got := fetcher.maxConcurrent.Load(); got != 1 {
		t.Errorf("expected at most one call in flight, got %d", got)
	}
}

func TestFailedCallKeepsLastGoodResponse(t *testing.T) {
	boom := errors.New("boom")
	fetcher := &recordingFetcher{}
	fetcher.respond = func(call int, ids []string, etag string) (FetchResult, error) {
		if call == 0 {
			return FetchResult{Response: responseFor(ids), ETag: `"v1"`}, nil
		}
		return FetchResult{}, boom
	}

	s := NewScheduler(fetcher, fastOptions(), utils.NewDiscardLogger())
	defer s.Stop()

	s.Start([]string{"100"})
	first := nextUpdate(t, s)
	second := nextUpdate(t, s)

	if !errors.Is(second.Err, boom) {
		t.Fatalf("expected error update, got %+v", second)
	}
	if second.Response != first.Response {
		t.Error("error update should carry the last good response")
	}
}

func TestHiddenWithConserveBatteryPausesAndResumes(t *testing.T) {
	fetcher := &recordingFetcher{}
	opts := fastOptions()
	opts.ConserveBattery = true
	s := NewScheduler(fetcher, opts, utils.NewDiscardLogger())
	defer s.Stop()

	s.Start([]string{"100"})
	nextUpdate(t, s)

	s.SetVisible(false)
	// 진행 중이던 호출이 끝날 시간을 준 뒤 남은 알림 비우기
	time.Sleep(30 * time.Millisecond)
	for drained := false; !drained; {
		select {
		case <-s.Updates():
		default:
			drained = true
		}
	}

	paused := fetcher.callCount()
	time.Sleep(100 * time.Millisecond)
	if fetcher.callCount() != paused {
		t.Errorf("no calls expected while paused, got %d more", fetcher.callCount()-paused)
	}

	s.SetVisible(true)
	nextUpdate(t, s)
	if fetcher.callCount() <= paused {
		t.Error("becoming visible should trigger an immediate call")
	}
}

func TestStopClosesUpdates(t *testing.T) {
	fetcher := &recordingFetcher{delay: 50 * time.Millisecond}
	s := NewScheduler(fetcher, fastOptions(), utils.NewDiscardLogger())

	s.Start([]string{"100"})
	for fetcher.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	s.Stop()

	for range s.Updates() {
	}

	// Stop 이후 호출은 막히지 않아야 함
	s.Start([]string{"200"})
	s.SetVisible(false)
	s.Stop()
}

func TestNextInterval(t *testing.T) {
	opts := Options{
		ActiveInterval:          30 * time.Second,
		InactiveInterval:        120 * time.Second,
		NearStationInterval:     15 * time.Second,
		UrgencyThresholdMinutes: 5,
	}
	ids := []string{"100", "200"}

	tests := []struct {
		name     string
		opts     Options
		visible  bool
		urgency  map[string]int
		expected time.Duration
		paused   bool
	}{
		{name: "visible", opts: opts, visible: true, expected: 30 * time.Second},
		{name: "hidden", opts: opts, visible: false, expected: 120 * time.Second},
		{name: "near station", opts: opts, visible: true, urgency: map[string]int{"200": 4}, expected: 15 * time.Second},
		{name: "at threshold", opts: opts, visible: false, urgency: map[string]int{"100": 5}, expected: 15 * time.Second},
		{name: "far away", opts: opts, visible: true, urgency: map[string]int{"100": 12}, expected: 30 * time.Second},
		{name: "other station urgent", opts: opts, visible: true, urgency: map[string]int{"999": 1}, expected: 30 * time.Second},
		{name: "hidden conserve battery", opts: Options{ConserveBattery: true}, visible: false, paused: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interval, paused := nextInterval(tt.opts, tt.visible, ids, tt.urgency)
			if paused != tt.paused {
				t.Fatalf("expected paused=%v, got %v", tt.paused, paused)
			}
			if !paused && interval != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, interval)
			}
		})
	}
}

func TestUrgencyShortensInterval(t *testing.T) {
	fetcher := &recordingFetcher{}
	opts := fastOptions()
	opts.ActiveInterval = time.Hour
	opts.NearStationInterval = 10 * time.Millisecond
	s := NewScheduler(fetcher, opts, utils.NewDiscardLogger())
	defer s.Stop()

	s.Start([]string{"100"})
	nextUpdate(t, s)

	s.SetUrgency(map[string]int{"100": 2})
	nextUpdate(t, s)

	if fetcher.callCount() < 2 {
		t.Errorf("urgent station should be polled on the short interval, got %d calls", fetcher.callCount())
	}
}

func TestHTTPMonitorFetcher(t *testing.T) {
	var gotMatch string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/monitors" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotMatch = r.Header.Get("If-None-Match")
		switch gotMatch {
		case `"v1"`:
			w.WriteHeader(http.StatusNotModified)
		case `"bad"`:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"success":false}`))
		case `"down"`:
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Header().Set("ETag", `"v1"`)
			w.Write([]byte(`{"stations":[{"stationId":"100","lines":[]}],"message":"OK","partial":false}`))
		}
	}))
	defer server.Close()

	fetcher := NewHTTPMonitorFetcher(server.URL+"/", time.Second, utils.NewDiscardLogger())
	ctx := context.Background()

	result, err := fetcher.FetchMonitors(ctx, []string{"100"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ETag != `"v1"` || len(result.Response.Stations) != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	result, err = fetcher.FetchMonitors(ctx, []string{"100"}, `"v1"`)
	if err != nil || !result.NotModified {
		t.Errorf("expected not modified, got %+v err=%v", result, err)
	}

	if _, err := fetcher.FetchMonitors(ctx, []string{"100"}, `"bad"`); !errors.Is(err, ErrRequestRejected) {
		t.Errorf("expected ErrRequestRejected, got %v", err)
	}
	if _, err := fetcher.FetchMonitors(ctx, []string{"100"}, `"down"`); !errors.Is(err, ErrServerUnavailable) {
		t.Errorf("expected ErrServerUnavailable, got %v", err)
	}
}
