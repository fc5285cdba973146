package coordinator

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"departure-monitor/internal/models"
	"departure-monitor/internal/services/cache"
	"departure-monitor/internal/services/merger"
	"departure-monitor/internal/utils"
)

const (
	releaseTimeout = 2 * time.Second
	archiveTimeout = 10 * time.Second

	// maxClaimRounds 락은 얻었지만 스로틀 창을 차지하지 못했을 때 재시도 횟수
	maxClaimRounds = 3
)

// tryLock 페치 락 획득 시도 (소유자 토큰 반환)
func (c *Coordinator) tryLock(ctx context.Context) (string, bool) {
	token := utils.ID.GenerateOwnerToken()

	acquired, err := c.cache.Set(ctx, fetchLockKey, token, cache.SetOptions{
		TTL:          c.settings.LockTTL,
		OnlyIfAbsent: true,
	})
	if err != nil {
		c.logger.Warnf("페치 락 획득 실패: %v", err)
		return "", false
	}
	return token, acquired
}

// releaseLock 본인 소유일 때만 락 해제 (TTL 만료 후 다른 소유자의 락은 건드리지 않음)
func (c *Coordinator) releaseLock(ctx context.Context, token string) {
	releaseCtx, cancel := context.WithTimeout(detached(ctx), releaseTimeout)
	defer cancel()

	released, err := c.cache.CompareAndDelete(releaseCtx, fetchLockKey, token)
	if err != nil {
		c.logger.Warnf("페치 락 해제 실패: %v", err)
		return
	}
	if !released {
		c.logger.Warn("⚠️ 페치 락이 이미 만료되어 다른 소유자에게 넘어감")
	}
}

// claimThrottleWindow 락 보유 상태에서 이번 스로틀 창을 차지
func (c *Coordinator) claimThrottleWindow(ctx context.Context) bool {
	if c.throttleRemaining(ctx) > 0 {
		return false
	}

	stamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	if _, err := c.cache.Set(ctx, lastFetchKey, stamp, cache.SetOptions{TTL: c.settings.MinUpstreamInterval}); err != nil {
		c.logger.Warnf("마지막 호출 시각 기록 실패: %v", err)
		return false
	}
	return true
}

// fetch 원장 + 요청자 미보유 정류장을 한 번의 업스트림 호출로 갱신
func (c *Coordinator) fetch(ctx context.Context, token string, missing []string) error {
	defer c.releaseLock(ctx, token)

	batch := c.buildBatch(ctx, missing)
	c.publishStatus(ctx, models.FetchStatus{
		State:               models.FetchStateFetching,
		RequestedStationIDs: batch,
		Timestamp:           c.now(),
	})

	// 업스트림 호출은 다른 요청자도 기다리므로 요청 취소와 분리
	fetchCtx, cancel := context.WithTimeout(detached(ctx), c.settings.LockTTL)
	defer cancel()

	c.counters.upstreamCalls.Add(1)
	started := time.Now()

	raw, err := c.feed.FetchMonitors(fetchCtx, batch)
	if err != nil {
		c.counters.upstreamFailures.Add(1)
		c.logger.Errorf("업스트림 호출 실패 (정류장 %d건, 소요시간: %v): %v", len(batch), time.Since(started), err)
		c.publishStatus(fetchCtx, models.FetchStatus{
			State:               models.FetchStateDone,
			RequestedStationIDs: batch,
			FetchedStationIDs:   []string{},
			Timestamp:           c.now(),
			Error:               err.Error(),
		})
		return err
	}

	result := merger.Merge(raw, c.allow)
	if result.Dropped > 0 {
		c.logger.Warnf("⚠️ 정류장 ID 없는 모니터 항목 %d건 제외", result.Dropped)
	}

	fetchedAt := c.now()
	fetched := c.storeStations(fetchCtx, result.Stations, fetchedAt)

	// 응답에 없던 정류장도 시도한 것으로 보고 원장에서 제거
	if _, err := c.cache.ZRem(fetchCtx, pendingKey, batch...); err != nil {
		c.logger.Warnf("원장 정리 실패: %v", err)
	}

	c.publishStatus(fetchCtx, models.FetchStatus{
		State:               models.FetchStateDone,
		RequestedStationIDs: batch,
		FetchedStationIDs:   fetched,
		Timestamp:           c.now(),
	})
	c.counters.lastFetchAt.Store(fetchedAt.UnixMilli())

	c.logger.Infof("📡 업스트림 호출 완료 - 요청 %d건, 수신 %d건 (소요시간: %v)",
		len(batch), len(fetched), time.Since(started))

	if c.sink != nil && len(result.Stations) > 0 {
		go c.archive(result.Stations, fetchedAt)
	}

	return nil
}

// buildBatch 원장(오래된 순) ∪ 요청자 미보유 정류장, 최대 개수 제한
func (c *Coordinator) buildBatch(ctx context.Context, missing []string) []string {
	ledger, err := c.cache.ZRange(ctx, pendingKey, 0, -1)
	if err != nil {
		c.logger.Warnf("원장 조회 실패 - 요청자 정류장만 사용: %v", err)
		ledger = nil
	}

	candidates := utils.Slice.RemoveDuplicateStrings(append(append([]string{}, ledger...), missing...))

	limit := c.settings.MaxStationsPerFetch
	if len(candidates) > limit {
		c.logger.Debugf("페치 상한 %d건 도달 - %d건은 다음 주기로", limit, len(candidates)-limit)
		candidates = candidates[:limit]
	}
	return candidates
}

// storeStations 정류장별 캐시 항목과 오래된 사본 기록 (전체 덮어쓰기)
func (c *Coordinator) storeStations(ctx context.Context, stations []models.StationMonitor, writtenAt time.Time) []string {
	fetched := make([]string, 0, len(stations))

	for _, station := range stations {
		entry := models.CacheEntry{
			StationID:  station.StationID,
			Record:     station,
			WrittenAt:  writtenAt,
			TTLSeconds: int(c.settings.CacheTTL / time.Second),
		}

		data, err := json.Marshal(entry)
		if err != nil {
			c.logger.Errorf("캐시 항목 직렬화 실패 - %s: %v", station.StationID, err)
			continue
		}

		if _, err := c.cache.Set(ctx, StationKey(station.StationID), string(data), cache.SetOptions{TTL: c.settings.CacheTTL}); err != nil {
			c.logger.Warnf("정류장 캐시 저장 실패 - %s: %v", station.StationID, err)
			continue
		}
		if _, err := c.cache.Set(ctx, StaleKey(station.StationID), string(data), cache.SetOptions{TTL: c.settings.StaleCacheTTL}); err != nil {
			c.logger.Warnf("오래된 사본 저장 실패 - %s: %v", station.StationID, err)
		}

		fetched = append(fetched, station.StationID)
	}

	return fetched
}

// publishStatus 페치 진행 상태 게시
func (c *Coordinator) publishStatus(ctx context.Context, status models.FetchStatus) {
	data, err := json.Marshal(status)
	if err != nil {
		return
	}
	if _, err := c.cache.Set(ctx, fetchStatusKey, string(data), cache.SetOptions{TTL: c.settings.StatusTTL}); err != nil {
		c.logger.Warnf("페치 상태 게시 실패 (%s): %v", status.State, err)
	}
}

// archive 스냅샷 저장소로 비동기 전송 (락 밖에서 실행)
func (c *Coordinator) archive(stations []models.StationMonitor, fetchedAt time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if err := c.sink.StoreSnapshots(ctx, stations, fetchedAt); err != nil {
		c.logger.Warnf("스냅샷 저장 실패 (%d건): %v", len(stations), err)
	}
}
