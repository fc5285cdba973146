// internal/services/cache/memory_shared_cache.go - 인메모리 대체 캐시
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bluele/gcache"
)

// MemorySharedCache 단일 프로세스용 SharedCache 구현
// Redis 미설정/연결 실패 시 사용. 프로세스 간 락/원장/상태 공유가 불가능하므로
// 여러 인스턴스로 배포하면 인스턴스마다 독립적으로 업스트림을 호출하게 됨.
// 문자열 키는 LRU 크기 제한을 받지만 고정(pinned) 키는 TTL로만 사라짐.
type MemorySharedCache struct {
	mu      sync.Mutex
	strings gcache.Cache
	pins    map[string]struct{}
	pinned  map[string]*memoryValue
	sets    map[string]*memorySortedSet
	now     func() time.Time
}

// memoryValue LRU 밖에 보관하는 고정 키 값
type memoryValue struct {
	value     string
	expiresAt time.Time // zero = 만료 없음
}

func (v *memoryValue) expired(now time.Time) bool {
	return !v.expiresAt.IsZero() && !now.Before(v.expiresAt)
}

// memorySortedSet 정렬 집합 + 수동 TTL 관리
type memorySortedSet struct {
	scores    map[string]float64
	expiresAt time.Time // zero = 만료 없음
}

func (s *memorySortedSet) expired(now time.Time) bool {
	return !s.expiresAt.IsZero() && !now.Before(s.expiresAt)
}

// NewMemorySharedCache 인메모리 공유 캐시 생성
// size 는 LRU 최대 문자열 키 수, pinned 는 축출되면 안 되는 키 (락, 상태 등)
func NewMemorySharedCache(size int, pinned ...string) *MemorySharedCache {
	return newMemorySharedCacheWithClock(size, gcache.NewRealClock(), pinned...)
}

// newMemorySharedCacheWithClock 문자열 키와 정렬 집합이 같은 시계를 사용
func newMemorySharedCacheWithClock(size int, clock gcache.Clock, pinned ...string) *MemorySharedCache {
	if size <= 0 {
		size = 10000
	}

	pins := make(map[string]struct{}, len(pinned))
	for _, key := range pinned {
		pins[key] = struct{}{}
	}

	return &MemorySharedCache{
		strings: gcache.New(size).LRU().Clock(clock).Build(),
		pins:    pins,
		pinned:  make(map[string]*memoryValue),
		sets:    make(map[string]*memorySortedSet),
		now:     clock.Now,
	}
}

// Get 값 조회
func (m *MemorySharedCache) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(key)
}

func (m *MemorySharedCache) getLocked(key string) (string, bool, error) {
	if _, ok := m.pins[key]; ok {
		v, found := m.pinned[key]
		if !found {
			return "", false, nil
		}
		if v.expired(m.now()) {
			delete(m.pinned, key)
			return "", false, nil
		}
		return v.value, true, nil
	}

	value, err := m.strings.Get(key)
	if errors.Is(err, gcache.KeyNotFoundError) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("memory GET %s 실패: %w", key, err)
	}

	str, ok := value.(string)
	if !ok {
		return "", false, fmt.Errorf("memory GET %s: 문자열이 아닌 값", key)
	}
	return str, true, nil
}

// Set 값 저장 (조건부 저장은 mutex로 원자성 보장)
func (m *MemorySharedCache) Set(ctx context.Context, key, value string, opts SetOptions) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if opts.OnlyIfAbsent {
		if _, found, err := m.getLocked(key); err != nil || found {
			return false, err
		}
	}

	if err := m.setLocked(key, value, opts.TTL); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MemorySharedCache) setLocked(key, value string, ttl time.Duration) error {
	if _, ok := m.pins[key]; ok {
		v := &memoryValue{value: value}
		if ttl > 0 {
			v.expiresAt = m.now().Add(ttl)
		}
		m.pinned[key] = v
		return nil
	}

	var err error
	if ttl > 0 {
		err = m.strings.SetWithExpire(key, value, ttl)
	} else {
		err = m.strings.Set(key, value)
	}
	if err != nil {
		return fmt.Errorf("memory SET %s 실패: %w", key, err)
	}
	return nil
}

// removeLocked 문자열 키 삭제 (고정 키 포함)
func (m *MemorySharedCache) removeLocked(key string) bool {
	if _, ok := m.pins[key]; ok {
		_, found := m.pinned[key]
		delete(m.pinned, key)
		return found
	}
	return m.strings.Remove(key)
}

// Del 키 삭제
func (m *MemorySharedCache) Del(ctx context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var count int64
	for _, key := range keys {
		if _, found, _ := m.getLocked(key); found {
			m.removeLocked(key)
			count++
			continue
		}
		if set, ok := m.sets[key]; ok {
			if !set.expired(now) {
				count++
			}
			delete(m.sets, key)
		}
	}
	return count, nil
}

// Expire TTL 갱신 (ttl <= 0 이면 즉시 삭제, Redis와 동일)
func (m *MemorySharedCache) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if value, found, err := m.getLocked(key); err != nil {
		return false, err
	} else if found {
		if ttl <= 0 {
			m.removeLocked(key)
			return true, nil
		}
		return true, m.setLocked(key, value, ttl)
	}

	set := m.liveSetLocked(key)
	if set == nil {
		return false, nil
	}
	if ttl <= 0 {
		delete(m.sets, key)
		return true, nil
	}
	set.expiresAt = m.now().Add(ttl)
	return true, nil
}

// CompareAndDelete 값이 일치할 때만 삭제
func (m *MemorySharedCache) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, found, err := m.getLocked(key)
	if err != nil || !found || value != expected {
		return false, err
	}
	return m.removeLocked(key), nil
}

// ZAdd 정렬 집합에 멤버 추가
func (m *MemorySharedCache) ZAdd(ctx context.Context, setKey string, opts ZAddOptions, members ...ZMember) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(members) == 0 {
		return 0, nil
	}

	set := m.liveSetLocked(setKey)
	if set == nil {
		set = &memorySortedSet{scores: make(map[string]float64)}
		m.sets[setKey] = set
	}

	var added int64
	for _, member := range members {
		if _, exists := set.scores[member.Member]; exists {
			if opts.OnlyIfAbsent {
				continue
			}
		} else {
			added++
		}
		set.scores[member.Member] = member.Score
	}
	return added, nil
}

// ZRange 점수 오름차순 멤버 조회
func (m *MemorySharedCache) ZRange(ctx context.Context, setKey string, start, stop int64) ([]string, error) {
	zs, err := m.ZRangeWithScores(ctx, setKey, start, stop)
	if err != nil {
		return nil, err
	}

	members := make([]string, 0, len(zs))
	for _, z := range zs {
		members = append(members, z.Member)
	}
	return members, nil
}

// ZRangeWithScores 점수 포함 조회 (동점은 멤버 사전순, Redis와 동일)
func (m *MemorySharedCache) ZRangeWithScores(ctx context.Context, setKey string, start, stop int64) ([]ZMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.liveSetLocked(setKey)
	if set == nil {
		return []ZMember{}, nil
	}

	sorted := make([]ZMember, 0, len(set.scores))
	for member, score := range set.scores {
		sorted = append(sorted, ZMember{Member: member, Score: score})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score < sorted[j].Score
		}
		return sorted[i].Member < sorted[j].Member
	})

	from, to, ok := normalizeRange(start, stop, int64(len(sorted)))
	if !ok {
		return []ZMember{}, nil
	}
	return sorted[from : to+1], nil
}

// ZRem 멤버 제거 (빈 집합은 키 삭제)
func (m *MemorySharedCache) ZRem(ctx context.Context, setKey string, members ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.liveSetLocked(setKey)
	if set == nil {
		return 0, nil
	}

	var removed int64
	for _, member := range members {
		if _, exists := set.scores[member]; exists {
			delete(set.scores, member)
			removed++
		}
	}
	if len(set.scores) == 0 {
		delete(m.sets, setKey)
	}
	return removed, nil
}

// Ping 항상 성공
func (m *MemorySharedCache) Ping(ctx context.Context) error {
	return nil
}

// Backend 백엔드 이름
func (m *MemorySharedCache) Backend() string {
	return BackendMemory
}

// Close 모든 데이터 정리
func (m *MemorySharedCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.strings.Purge()
	m.pinned = make(map[string]*memoryValue)
	m.sets = make(map[string]*memorySortedSet)
	return nil
}

// liveSetLocked 만료되지 않은 정렬 집합 반환 (만료된 집합은 정리)
func (m *MemorySharedCache) liveSetLocked(key string) *memorySortedSet {
	set, ok := m.sets[key]
	if !ok {
		return nil
	}
	if set.expired(m.now()) {
		delete(m.sets, key)
		return nil
	}
	return set
}

// normalizeRange Redis ZRANGE 인덱스 규칙으로 [from, to] 계산
func normalizeRange(start, stop, length int64) (int64, int64, bool) {
	if length == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += length
	}
	if stop < 0 {
		stop += length
	}
	if start < 0 {
		start = 0
	}
	if stop >= length {
		stop = length - 1
	}
	if start > stop || start >= length {
		return 0, 0, false
	}
	return start, stop, true
}
