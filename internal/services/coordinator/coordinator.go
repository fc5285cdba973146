// internal/services/coordinator/coordinator.go - 캐시 조회, 스로틀, 락, 대기 요청 원장을 통한 요청 병합
package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"departure-monitor/internal/models"
	"departure-monitor/internal/services/api"
	"departure-monitor/internal/services/cache"
	"departure-monitor/internal/services/merger"
	"departure-monitor/internal/utils"
)

var (
	// ErrCoordinationUnavailable 공유 캐시를 전혀 읽을 수 없음
	ErrCoordinationUnavailable = errors.New("coordination backend unavailable")

	// ErrNoDataAvailable 업스트림 실패 + 제공 가능한 캐시 데이터 없음
	ErrNoDataAvailable = errors.New("no departure data available")
)

// Role 요청이 처리된 경로
type Role string

const (
	RoleCache   Role = "cache"
	RoleFetcher Role = "fetcher"
	RoleWaiter  Role = "waiter"
)

// SnapshotSink 업스트림 호출 성공 후 병합 결과를 받는 선택적 저장소
type SnapshotSink interface {
	StoreSnapshots(ctx context.Context, stations []models.StationMonitor, fetchedAt time.Time) error
}

// Resolution 요청 처리 결과
type Resolution struct {
	Response *models.MergedMonitorResponse
	Role     Role
}

// Coordinator 여러 프로세스가 공유 캐시를 통해 업스트림 호출을 하나로 모으는 조정자
type Coordinator struct {
	cache    cache.SharedCache
	feed     api.FeedClient
	allow    merger.LineAllowList
	settings Settings
	logger   *utils.Logger
	sink     SnapshotSink

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	counters counters
}

// New 새로운 조정자 생성
func New(sharedCache cache.SharedCache, feed api.FeedClient, allow merger.LineAllowList, settings Settings, logger *utils.Logger) *Coordinator {
	return &Coordinator{
		cache:    sharedCache,
		feed:     feed,
		allow:    allow,
		settings: settings,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// SetSnapshotSink 스냅샷 저장소 설정 (nil 이면 비활성화)
func (c *Coordinator) SetSnapshotSink(sink SnapshotSink) {
	c.sink = sink
}

// Resolve 정류장 목록에 대한 병합 응답 생성
//
// 캐시 확인 → 스로틀 확인 → 원장 등록 → 락 획득 시 Fetcher, 실패 시 Waiter → 마무리
func (c *Coordinator) Resolve(ctx context.Context, stationIDs []string) (*Resolution, error) {
	c.counters.requests.Add(1)

	ids := utils.Slice.SortedUnique(stationIDs)
	found := make(map[string]models.StationMonitor, len(ids))

	missing, readErrors := c.readInto(ctx, ids, found)
	if len(ids) > 0 && readErrors == len(ids) {
		return nil, fmt.Errorf("%w: 정류장 캐시 %d건 모두 조회 실패", ErrCoordinationUnavailable, readErrors)
	}

	if len(missing) == 0 {
		c.counters.cacheHits.Add(1)
		return c.finalize(ctx, ids, found, nil, RoleCache)
	}

	role := RoleWaiter
	var upstreamErr error
	enqueued := false

	for round := 1; round <= maxClaimRounds; round++ {
		// 전역 스로틀: 마지막 업스트림 호출 직후라면 창이 끝날 때까지 대기 후 재확인
		if remaining := c.throttleRemaining(ctx); remaining > 0 {
			if !fitsDeadline(ctx, remaining) {
				c.enqueue(ctx, missing)
				enqueued = true
				if c.fetchInProgress(ctx) {
					break
				}

				// 창이 끝나기 전에는 아무도 업스트림을 호출할 수 없음
				c.logger.Debugf("스로틀 창 %v 가 요청 기한을 넘김 - 대기 없이 응답 (미보유 %d건)", remaining, len(missing))
				return c.finalize(ctx, ids, found, nil, RoleWaiter)
			}

			var err error
			if missing, err = c.throttleWait(ctx, remaining, missing, found); err != nil {
				return c.finalize(ctx, ids, found, nil, RoleWaiter)
			}
			if len(missing) == 0 {
				c.counters.cacheHits.Add(1)
				return c.finalize(ctx, ids, found, nil, RoleCache)
			}
		}

		if !enqueued {
			c.enqueue(ctx, missing)
			enqueued = true
		}

		token, acquired := c.tryLock(ctx)
		if !acquired {
			break
		}

		// 락 대기 사이에 다른 프로세스가 채웠을 수 있음
		if missing, _ = c.readInto(ctx, missing, found); len(missing) == 0 {
			c.releaseLock(ctx, token)
			c.counters.cacheHits.Add(1)
			return c.finalize(ctx, ids, found, nil, RoleCache)
		}

		if c.claimThrottleWindow(ctx) {
			role = RoleFetcher
			c.counters.fetcherRuns.Add(1)
			upstreamErr = c.fetch(ctx, token, missing)
			break
		}

		// 진행 중인 페치는 없고 직전 창만 남아 있음 - 창 종료 후 다시 시도
		c.releaseLock(ctx, token)
		c.logger.Debugf("스로틀 창이 아직 열려 있음 - 창 종료 후 재시도 (%d회차)", round)
	}

	if role == RoleWaiter {
		c.counters.waiterRuns.Add(1)
		upstreamErr = c.wait(ctx, missing, found)
	}

	c.readInto(detached(ctx), missing, found)

	return c.finalize(ctx, ids, found, upstreamErr, role)
}

// readInto ids 를 캐시에서 읽어 found 에 채우고 여전히 없는 ID 목록과 조회 오류 수 반환
func (c *Coordinator) readInto(ctx context.Context, ids []string, found map[string]models.StationMonitor) ([]string, int) {
	missing := make([]string, 0, len(ids))
	readErrors := 0

	for _, id := range ids {
		if _, ok := found[id]; ok {
			continue
		}

		entry, ok, err := c.readEntry(ctx, StationKey(id))
		if err != nil {
			readErrors++
			c.logger.Warnf("정류장 캐시 조회 실패 - %s: %v", id, err)
		}
		if !ok {
			missing = append(missing, id)
			continue
		}
		found[id] = entry.Record
	}

	return missing, readErrors
}

// readEntry 캐시 항목 조회 (손상된 항목은 없는 것으로 취급)
func (c *Coordinator) readEntry(ctx context.Context, key string) (models.CacheEntry, bool, error) {
	var entry models.CacheEntry

	value, found, err := c.cache.Get(ctx, key)
	if err != nil || !found {
		return entry, false, err
	}

	if err := json.Unmarshal([]byte(value), &entry); err != nil {
		c.logger.Warnf("손상된 캐시 항목 무시 - %s: %v", key, err)
		return entry, false, nil
	}
	return entry, true, nil
}

// throttleRemaining 전역 최소 호출 간격 중 남은 시간
func (c *Coordinator) throttleRemaining(ctx context.Context) time.Duration {
	value, found, err := c.cache.Get(ctx, lastFetchKey)
	if err != nil || !found {
		return 0
	}

	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}

	remaining := time.UnixMilli(ms).Add(c.settings.MinUpstreamInterval).Sub(c.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// throttleWait 스로틀 창이 끝날 때까지 대기 간격마다 캐시를 다시 확인
func (c *Coordinator) throttleWait(ctx context.Context, remaining time.Duration, missing []string, found map[string]models.StationMonitor) ([]string, error) {
	c.counters.throttleWaits.Add(1)
	c.logger.Debugf("⏳ 스로틀 대기 %v (미보유 %d건)", remaining, len(missing))

	until := c.now().Add(remaining)
	for len(missing) > 0 {
		step := until.Sub(c.now())
		if step <= 0 {
			break
		}
		if interval := c.settings.WaitInterval; interval > 0 && step > interval {
			step = interval
		}

		if err := c.sleep(ctx, step); err != nil {
			return missing, err
		}
		missing, _ = c.readInto(ctx, missing, found)
	}
	return missing, nil
}

// enqueue 미보유 정류장을 원장에 등록 (이미 있으면 기존 순서 유지)
func (c *Coordinator) enqueue(ctx context.Context, missing []string) {
	requestedAt := float64(c.now().UnixMilli())

	members := make([]cache.ZMember, 0, len(missing))
	for _, id := range missing {
		members = append(members, cache.ZMember{Member: id, Score: requestedAt})
	}

	if _, err := c.cache.ZAdd(ctx, pendingKey, cache.ZAddOptions{OnlyIfAbsent: true}, members...); err != nil {
		c.logger.Warnf("원장 등록 실패 (%d건): %v", len(missing), err)
		return
	}
	if _, err := c.cache.Expire(ctx, pendingKey, c.settings.LedgerTTL); err != nil {
		c.logger.Warnf("원장 TTL 갱신 실패: %v", err)
	}
}

// finalize 캐시/대기 결과로 응답 구성 (미해결 ID는 오래된 사본으로 보충하거나 누락 표시)
func (c *Coordinator) finalize(ctx context.Context, ids []string, found map[string]models.StationMonitor, upstreamErr error, role Role) (*Resolution, error) {
	readCtx := detached(ctx)

	var stale, missing []string
	var oldest time.Duration
	for _, id := range ids {
		if _, ok := found[id]; ok {
			continue
		}

		entry, ok, _ := c.readEntry(readCtx, StaleKey(id))
		if ok {
			found[id] = entry.Record
			stale = append(stale, id)
			if age := entry.Age(c.now()); age > oldest {
				oldest = age
			}
			continue
		}
		missing = append(missing, id)
	}

	if upstreamErr != nil && len(found) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoDataAvailable, upstreamErr)
	}

	stations := make([]models.StationMonitor, 0, len(found))
	for _, id := range ids {
		if station, ok := found[id]; ok {
			stations = append(stations, station)
		}
	}

	response := &models.MergedMonitorResponse{
		Stations:          stations,
		Message:           "OK",
		Timestamp:         c.now(),
		Partial:           len(stale) > 0 || len(missing) > 0,
		StaleStationIDs:   stale,
		MissingStationIDs: missing,
	}

	if response.Partial {
		c.counters.partialResponses.Add(1)
		response.Message = fmt.Sprintf("일부 데이터 - 오래된 정류장 %d건 (최대 %d초 경과), 누락 정류장 %d건",
			len(stale), int(oldest.Seconds()), len(missing))
		if upstreamErr != nil {
			c.logger.Warnf("⚠️ 업스트림 실패로 부분 응답 (%s): %v", role, upstreamErr)
		}
	}

	return &Resolution{Response: response, Role: role}, nil
}

// fitsDeadline 요청 기한 내에 d 만큼 대기할 수 있는지 확인
func fitsDeadline(ctx context.Context, d time.Duration) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return true
	}
	return time.Until(deadline) > d
}

// detached 요청 취소와 무관하게 짧은 정리 작업을 수행할 컨텍스트
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
