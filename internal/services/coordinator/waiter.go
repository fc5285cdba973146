package coordinator

import (
	"context"
	"encoding/json"
	"fmt"

	"departure-monitor/internal/models"
	"departure-monitor/internal/services/api"
)

// wait 다른 프로세스의 페치를 제한된 횟수만큼 폴링하며 대기
//
// 매 회차마다 캐시를 직접 다시 확인하고, 대기 시작 이후 미해결 정류장을 모두 요청한 페치가 완료되면 종료.
// 완료 상태가 업스트림 실패를 보고하면 ErrUpstreamUnavailable 을 감싸서 반환.
func (c *Coordinator) wait(ctx context.Context, missing []string, found map[string]models.StationMonitor) error {
	started := c.now()
	pending := missing

	for attempt := 1; attempt <= c.settings.WaitAttempts; attempt++ {
		if err := c.sleep(ctx, c.settings.WaitInterval); err != nil {
			c.logger.Debugf("대기 중단 (%d회차): %v", attempt, err)
			return nil
		}

		pending, _ = c.readInto(ctx, pending, found)
		if len(pending) == 0 {
			return nil
		}

		// 다른 정류장만 다룬 페치는 이 대기와 무관
		status, ok := c.CurrentStatus(ctx)
		if !ok || status.State != models.FetchStateDone || status.Timestamp.Before(started) || !status.Covers(pending) {
			continue
		}

		if status.Failed() {
			return fmt.Errorf("%w: %s", api.ErrUpstreamUnavailable, status.Error)
		}
		c.logger.Debugf("페치 완료 확인 - 미해결 %d건 (%d회차)", len(pending), attempt)
		return nil
	}

	c.logger.Debugf("대기 한도 소진 - 미해결 %d건", len(pending))
	return nil
}

// CurrentStatus 최근 페치 상태 조회
func (c *Coordinator) CurrentStatus(ctx context.Context) (models.FetchStatus, bool) {
	var status models.FetchStatus

	value, found, err := c.cache.Get(ctx, fetchStatusKey)
	if err != nil || !found {
		return status, false
	}
	if err := json.Unmarshal([]byte(value), &status); err != nil {
		return status, false
	}
	return status, true
}

// fetchInProgress 다른 프로세스가 페치 락을 보유 중인지 확인
func (c *Coordinator) fetchInProgress(ctx context.Context) bool {
	_, held, err := c.cache.Get(ctx, fetchLockKey)
	return err == nil && held
}
