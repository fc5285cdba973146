// internal/services/cache/interface.go - 공유 캐시 인터페이스 정의
package cache

import (
	"context"
	"time"
)

// SetOptions Set 옵션 (TTL 0 = 만료 없음)
type SetOptions struct {
	TTL          time.Duration
	OnlyIfAbsent bool
}

// ZAddOptions ZAdd 옵션 (OnlyIfAbsent = 기존 멤버 점수 유지)
type ZAddOptions struct {
	OnlyIfAbsent bool
}

// ZMember 정렬 집합 멤버
type ZMember struct {
	Member string
	Score  float64
}

// SharedCache 프로세스 간 조정을 위한 키/값 + 정렬 집합 저장소
// Redis 구현과 인메모리 구현 모두 호출자 입장에서 동일하게 동작해야 함.
// 인메모리 구현은 단일 프로세스 내에서만 조정 가능 (다중 인스턴스 배포 불가).
type SharedCache interface {
	// Get 값 조회 (없거나 만료되면 found=false)
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set 값 저장, OnlyIfAbsent 인 경우 이미 존재하면 false 반환
	Set(ctx context.Context, key, value string, opts SetOptions) (bool, error)

	// Del 키 삭제, 삭제된 개수 반환
	Del(ctx context.Context, keys ...string) (int64, error)

	// Expire 키의 TTL 갱신, 키가 없으면 false
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// CompareAndDelete 값이 expected 와 같을 때만 삭제 (락 해제용)
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)

	// ZAdd 정렬 집합에 멤버 추가, 새로 추가된 개수 반환
	ZAdd(ctx context.Context, setKey string, opts ZAddOptions, members ...ZMember) (int64, error)

	// ZRange 점수 오름차순 멤버 조회 (Redis 인덱스 규칙, 음수 = 끝에서부터)
	ZRange(ctx context.Context, setKey string, start, stop int64) ([]string, error)

	// ZRangeWithScores 점수 포함 조회
	ZRangeWithScores(ctx context.Context, setKey string, start, stop int64) ([]ZMember, error)

	// ZRem 멤버 제거, 제거된 개수 반환
	ZRem(ctx context.Context, setKey string, members ...string) (int64, error)

	// Ping 백엔드 연결 확인
	Ping(ctx context.Context) error

	// Backend 백엔드 이름 ("redis" 또는 "memory")
	Backend() string

	// Close 리소스 정리
	Close() error
}

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)
