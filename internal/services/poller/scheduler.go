// internal/services/poller/scheduler.go - 적응형 폴링 스케줄러 (동시 호출 최대 1건)
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"departure-monitor/internal/models"
	"departure-monitor/internal/utils"
)

// FetchResult 모니터 엔드포인트 호출 결과
type FetchResult struct {
	Response    *models.MergedMonitorResponse
	ETag        string
	NotModified bool
}

// MonitorFetcher 모니터 엔드포인트 호출 인터페이스
type MonitorFetcher interface {
	FetchMonitors(ctx context.Context, stationIDs []string, etag string) (FetchResult, error)
}

// Update 폴링 결과 알림 (오류 시에도 마지막 정상 응답 포함)
type Update struct {
	StationIDs  []string
	Response    *models.MergedMonitorResponse
	NotModified bool
	Err         error
	At          time.Time
}

// fetchOutcome 호출 고루틴이 루프로 돌려주는 결과
type fetchOutcome struct {
	generation int
	result     FetchResult
	err        error
}

// Scheduler 단일 루프 고루틴이 모든 상태를 소유하는 폴링 스케줄러
type Scheduler struct {
	fetcher MonitorFetcher
	opts    Options
	logger  *utils.Logger

	startCh   chan []string
	visibleCh chan bool
	urgencyCh chan map[string]int
	results   chan fetchOutcome
	updates   chan Update
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	droppedTicks atomic.Int64

	// 아래 필드는 루프 고루틴만 접근
	stationIDs  []string
	generation  int
	visible     bool
	urgency     map[string]int
	inFlight    bool
	inFlightGen int
	pendingTick bool
	etag        string
	lastGood    *models.MergedMonitorResponse
	timer       *time.Timer
	interval    time.Duration // 현재 타이머 간격, 0 = 중지
}

// NewScheduler 스케줄러 생성 후 루프 시작 (Start 호출 전에는 폴링하지 않음)
func NewScheduler(fetcher MonitorFetcher, opts Options, logger *utils.Logger) *Scheduler {
	s := &Scheduler{
		fetcher:   fetcher,
		opts:      opts,
		logger:    logger,
		startCh:   make(chan []string),
		visibleCh: make(chan bool),
		urgencyCh: make(chan map[string]int),
		results:   make(chan fetchOutcome),
		updates:   make(chan Update, 16),
		stopCh:    make(chan struct{}),
		visible:   true,
		urgency:   map[string]int{},
	}

	s.wg.Add(1)
	go s.run()
	return s
}

// Start 폴링 대상 정류장 설정 (같은 집합이면 ETag 유지, 다르면 타이머 재시작)
func (s *Scheduler) Start(stationIDs []string) {
	ids := utils.Slice.SortedUnique(stationIDs)
	select {
	case s.startCh <- ids:
	case <-s.stopCh:
	}
}

// SetVisible 화면 표시 여부 변경
func (s *Scheduler) SetVisible(visible bool) {
	select {
	case s.visibleCh <- visible:
	case <-s.stopCh:
	}
}

// SetUrgency 정류장별 도보 소요 시간(분) 갱신
func (s *Scheduler) SetUrgency(walkingMinutes map[string]int) {
	copied := make(map[string]int, len(walkingMinutes))
	for id, minutes := range walkingMinutes {
		copied[id] = minutes
	}

	select {
	case s.urgencyCh <- copied:
	case <-s.stopCh:
	}
}

// Updates 폴링 결과 채널 (Stop 후 닫힘)
func (s *Scheduler) Updates() <-chan Update {
	return s.updates
}

// Stop 루프 종료 (진행 중인 호출 결과는 버림)
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

// DroppedTicks 이전 호출이 진행 중이라 건너뛴 틱 수
func (s *Scheduler) DroppedTicks() int64 {
	return s.droppedTicks.Load()
}

func (s *Scheduler) run() {
	defer s.wg.Done()
	defer close(s.updates)
	defer s.stopTimer()

	for {
		select {
		case <-s.stopCh:
			return

		case ids := <-s.startCh:
			s.handleStart(ids)

		case visible := <-s.visibleCh:
			s.handleVisible(visible)

		case urgency := <-s.urgencyCh:
			s.handleUrgency(urgency)

		case <-s.timerC():
			s.tick()
			s.schedule()

		case outcome := <-s.results:
			s.handleOutcome(outcome)
		}
	}
}

func (s *Scheduler) handleStart(ids []string) {
	if equalIDs(ids, s.stationIDs) && s.generation > 0 {
		return
	}

	s.generation++
	s.stationIDs = ids
	s.etag = ""
	s.lastGood = nil

	s.logger.Infof("🔄 폴링 대상 변경 - 정류장 %d개", len(ids))
	s.tick()
	s.schedule()
}

func (s *Scheduler) handleVisible(visible bool) {
	if visible == s.visible {
		return
	}
	s.visible = visible

	if visible {
		// 다시 보이면 즉시 갱신
		s.tick()
	}
	s.schedule()
}

// handleUrgency 간격이 바뀔 때만 타이머 재설정 (잦은 갱신으로 틱이 밀리지 않도록)
func (s *Scheduler) handleUrgency(urgency map[string]int) {
	s.urgency = urgency

	interval, paused := nextInterval(s.opts, s.visible, s.stationIDs, s.urgency)
	if paused || interval == s.interval {
		return
	}
	s.logger.Debugf("폴링 주기 변경 %v -> %v", s.interval, interval)
	s.schedule()
}

// tick 호출 시작 (진행 중이면 건너뜀)
func (s *Scheduler) tick() {
	if len(s.stationIDs) == 0 {
		return
	}

	if s.inFlight {
		s.droppedTicks.Add(1)
		s.pendingTick = s.pendingTick || s.generationChanged()
		s.logger.Debug("이전 호출 진행 중 - 틱 건너뜀")
		return
	}

	s.inFlight = true
	s.inFlightGen = s.generation
	s.pendingTick = false
	go s.fetch(s.generation, s.stationIDs, s.etag)
}

// generationChanged 진행 중 호출이 이전 정류장 집합의 것인지 여부
func (s *Scheduler) generationChanged() bool {
	return s.inFlightGen != s.generation
}

func (s *Scheduler) fetch(generation int, ids []string, etag string) {
	result, err := s.fetcher.FetchMonitors(context.Background(), ids, etag)

	select {
	case s.results <- fetchOutcome{generation: generation, result: result, err: err}:
	case <-s.stopCh:
	}
}

func (s *Scheduler) handleOutcome(outcome fetchOutcome) {
	s.inFlight = false

	if outcome.generation != s.generation {
		s.logger.Debug("이전 정류장 집합의 응답 폐기")
		if s.pendingTick {
			s.tick()
		}
		return
	}

	update := Update{
		StationIDs: s.stationIDs,
		At:         time.Now(),
	}

	switch {
	case outcome.err != nil:
		s.logger.Warnf("⚠️ 폴링 실패: %v", outcome.err)
		update.Err = outcome.err
	case outcome.result.NotModified:
		update.NotModified = true
	default:
		s.etag = outcome.result.ETag
		s.lastGood = outcome.result.Response
	}
	update.Response = s.lastGood

	select {
	case s.updates <- update:
	case <-s.stopCh:
	}
}

// schedule 현재 상태로 타이머 재설정
func (s *Scheduler) schedule() {
	s.stopTimer()

	if len(s.stationIDs) == 0 {
		return
	}

	interval, paused := nextInterval(s.opts, s.visible, s.stationIDs, s.urgency)
	if paused {
		s.logger.Debug("화면 숨김 + 배터리 절약 - 폴링 일시 중지")
		return
	}
	s.timer = time.NewTimer(interval)
	s.interval = interval
}

func (s *Scheduler) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.interval = 0
}

// timerC 타이머 채널 (중지 상태면 nil 채널로 해당 case 비활성화)
func (s *Scheduler) timerC() <-chan time.Time {
	if s.timer == nil {
		return nil
	}
	return s.timer.C
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
