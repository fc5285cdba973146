// internal/services/cache/factory.go - 공유 캐시 백엔드 선택
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"departure-monitor/config"
	"departure-monitor/internal/utils"
)

const (
	probeKey        = "monitor:probe"
	probeMaxRetries = 2
	probeTimeout    = 5 * time.Second
)

// NewSharedCache 시작 시 한 번 백엔드 선택 (Redis 실패 시 인메모리로 대체, 시작은 실패하지 않음)
// pinned 는 인메모리 백엔드에서 LRU 축출 대상에서 제외할 키
func NewSharedCache(cfg *config.Config, logger *utils.Logger, pinned ...string) SharedCache {
	if !cfg.UsesRedis() {
		logger.Warn("⚠️ REDIS_ADDR 미설정 - 인메모리 공유 캐시 사용 (단일 인스턴스 전용)")
		return NewMemorySharedCache(cfg.MemoryCacheSize, pinned...)
	}

	redisCache := NewRedisSharedCache(NewRedisClient(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	if err := Probe(ctx, redisCache); err != nil {
		logger.Warnf("⚠️ Redis(%s) 사용 불가 - 인메모리 공유 캐시로 대체: %v", cfg.Redis.Addr, err)
		redisCache.Close()
		return NewMemorySharedCache(cfg.MemoryCacheSize, pinned...)
	}

	logger.Infof("✅ Redis 공유 캐시 연결 성공 (%s, DB %d)", cfg.Redis.Addr, cfg.Redis.DB)
	return redisCache
}

// Probe 쓰기/읽기 왕복으로 백엔드 사용 가능 여부 확인 (제한된 재시도)
func Probe(ctx context.Context, cache SharedCache) error {
	token := utils.ID.GenerateOwnerToken()

	operation := func() error {
		if _, err := cache.Set(ctx, probeKey, token, SetOptions{TTL: 10 * time.Second}); err != nil {
			return err
		}
		value, found, err := cache.Get(ctx, probeKey)
		if err != nil {
			return err
		}
		if !found || value != token {
			return fmt.Errorf("probe 값 불일치")
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), probeMaxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("%s 백엔드 probe 실패: %w", cache.Backend(), err)
	}

	cache.Del(ctx, probeKey)
	return nil
}
