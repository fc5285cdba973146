// internal/services/cache/redis_shared_cache.go - Redis 기반 공유 캐시
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"departure-monitor/config"
)

// compareAndDeleteScript 값이 일치할 때만 삭제 (원자적)
var compareAndDeleteScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSharedCache Redis 기반 SharedCache 구현 (다중 인스턴스 조정 가능)
type RedisSharedCache struct {
	client *redis.Client
}

// NewRedisClient 설정으로 Redis 클라이언트 생성
func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.Addr,
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		PoolSize:        cfg.Redis.PoolSize,
		ConnMaxIdleTime: time.Duration(cfg.Redis.IdleTimeout) * time.Second,
		DialTimeout:     2 * time.Second,
		ReadTimeout:     2 * time.Second,
		WriteTimeout:    2 * time.Second,
	})
}

// NewRedisSharedCache 기존 클라이언트로 공유 캐시 생성
func NewRedisSharedCache(client *redis.Client) *RedisSharedCache {
	return &RedisSharedCache{client: client}
}

// Get 값 조회
func (r *RedisSharedCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis GET %s 실패: %w", key, err)
	}
	return value, true, nil
}

// Set 값 저장
func (r *RedisSharedCache) Set(ctx context.Context, key, value string, opts SetOptions) (bool, error) {
	if opts.OnlyIfAbsent {
		ok, err := r.client.SetNX(ctx, key, value, opts.TTL).Result()
		if err != nil {
			return false, fmt.Errorf("redis SETNX %s 실패: %w", key, err)
		}
		return ok, nil
	}

	if err := r.client.Set(ctx, key, value, opts.TTL).Err(); err != nil {
		return false, fmt.Errorf("redis SET %s 실패: %w", key, err)
	}
	return true, nil
}

// Del 키 삭제
func (r *RedisSharedCache) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	count, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis DEL 실패: %w", err)
	}
	return count, nil
}

// Expire TTL 갱신
func (r *RedisSharedCache) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis EXPIRE %s 실패: %w", key, err)
	}
	return ok, nil
}

// CompareAndDelete 값이 일치할 때만 삭제
func (r *RedisSharedCache) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	deleted, err := compareAndDeleteScript.Run(ctx, r.client, []string{key}, expected).Int64()
	if err != nil {
		return false, fmt.Errorf("redis compare-and-delete %s 실패: %w", key, err)
	}
	return deleted > 0, nil
}

// ZAdd 정렬 집합에 멤버 추가
func (r *RedisSharedCache) ZAdd(ctx context.Context, setKey string, opts ZAddOptions, members ...ZMember) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}

	zs := make([]redis.Z, 0, len(members))
	for _, m := range members {
		zs = append(zs, redis.Z{Score: m.Score, Member: m.Member})
	}

	var cmd *redis.IntCmd
	if opts.OnlyIfAbsent {
		cmd = r.client.ZAddNX(ctx, setKey, zs...)
	} else {
		cmd = r.client.ZAdd(ctx, setKey, zs...)
	}

	added, err := cmd.Result()
	if err != nil {
		return 0, fmt.Errorf("redis ZADD %s 실패: %w", setKey, err)
	}
	return added, nil
}

// ZRange 점수 오름차순 멤버 조회
func (r *RedisSharedCache) ZRange(ctx context.Context, setKey string, start, stop int64) ([]string, error) {
	members, err := r.client.ZRange(ctx, setKey, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ZRANGE %s 실패: %w", setKey, err)
	}
	return members, nil
}

// ZRangeWithScores 점수 포함 조회
func (r *RedisSharedCache) ZRangeWithScores(ctx context.Context, setKey string, start, stop int64) ([]ZMember, error) {
	zs, err := r.client.ZRangeWithScores(ctx, setKey, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ZRANGE WITHSCORES %s 실패: %w", setKey, err)
	}

	result := make([]ZMember, 0, len(zs))
	for _, z := range zs {
		result = append(result, ZMember{Member: fmt.Sprint(z.Member), Score: z.Score})
	}
	return result, nil
}

// ZRem 멤버 제거
func (r *RedisSharedCache) ZRem(ctx context.Context, setKey string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}

	args := make([]interface{}, 0, len(members))
	for _, m := range members {
		args = append(args, m)
	}

	removed, err := r.client.ZRem(ctx, setKey, args...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ZREM %s 실패: %w", setKey, err)
	}
	return removed, nil
}

// Ping 연결 확인
func (r *RedisSharedCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Backend 백엔드 이름
func (r *RedisSharedCache) Backend() string {
	return BackendRedis
}

// Close Redis 연결 종료
func (r *RedisSharedCache) Close() error {
	return r.client.Close()
}
