package config

import (
	"log"
	"strings"
)

// PrintConfig 현재 설정을 출력 (디버깅용)
func (c *Config) PrintConfig() {
	log.Printf("=== 출발 정보 모니터 설정 (모드: %s) ===", c.Mode)

	if c.Mode == "poller" {
		c.printPollerConfig()
	} else {
		c.printServerConfig()
		c.printRedisConfig()
		c.printUpstreamConfig()
		c.printCoordinatorConfig()
		c.printElasticsearchConfig()
	}

	log.Println("====================================")
}

// printServerConfig 웹 서버 설정 출력
func (c *Config) printServerConfig() {
	log.Printf("=== 웹 서버 설정 ===")
	log.Printf("포트: %d", c.WebPort)
	log.Printf("요청 타임아웃: %v", c.RequestTimeout)
	log.Printf("요청당 최대 정류장 수: %d개", c.MaxStationsPerRequest)
	log.Printf("허용 노선: %s", strings.Join(c.LineAllowList, ","))
	log.Printf("관리자 키: %s", maskSensitive(c.AdminKey))
}

// printRedisConfig Redis 설정 출력
func (c *Config) printRedisConfig() {
	log.Printf("=== Redis 설정 ===")
	if !c.UsesRedis() {
		log.Printf("Redis 주소 미설정 - 인메모리 캐시 사용 (최대 %d개 키, 단일 인스턴스 전용)", c.MemoryCacheSize)
		return
	}
	log.Printf("Redis 주소: %s", c.Redis.Addr)
	log.Printf("Redis DB: %d", c.Redis.DB)
	log.Printf("Redis 풀 크기: %d", c.Redis.PoolSize)
	log.Printf("Redis 최대 재시도: %d", c.Redis.MaxRetries)
	log.Printf("Redis 유휴 타임아웃: %d초", c.Redis.IdleTimeout)
	log.Printf("Redis 비밀번호: %s", maskSensitive(c.Redis.Password))
}

// printUpstreamConfig 업스트림 설정 출력
func (c *Config) printUpstreamConfig() {
	log.Printf("=== 업스트림 설정 ===")
	log.Printf("Base URL: %s", c.Upstream.BaseURL)
	log.Printf("정류장 파라미터: %s", c.Upstream.StationParam)
	log.Printf("호출 타임아웃: %v", c.Upstream.Timeout)
	log.Printf("최소 호출 간격: %v", c.Upstream.MinInterval)
}

// printCoordinatorConfig 캐시/병합 설정 출력
func (c *Config) printCoordinatorConfig() {
	log.Printf("=== 캐시/요청 병합 설정 ===")
	log.Printf("캐시 TTL: %v (stale 사본: %v)", c.Coordinator.CacheTTL, c.Coordinator.StaleCacheTTL)
	log.Printf("락 TTL: %v, 상태 TTL: %v, 원장 TTL: %v",
		c.Coordinator.LockTTL, c.Coordinator.StatusTTL, c.Coordinator.LedgerTTL)
	log.Printf("대기: %d회 x %v (최대 %v)",
		c.Coordinator.WaitAttempts, c.Coordinator.WaitInterval, c.MaxWaiterLatency())
	log.Printf("페치당 최대 정류장 수: %d개", c.Coordinator.MaxStationsPerFetch)
}

// printElasticsearchConfig Elasticsearch 설정 출력
func (c *Config) printElasticsearchConfig() {
	log.Printf("=== Elasticsearch 아카이브 설정 ===")
	if !c.ArchiveEnabled() {
		log.Printf("비활성화 (ELASTICSEARCH_URL 미설정)")
		return
	}
	log.Printf("URL: %s", c.ElasticsearchURL)
	log.Printf("인덱스명: %s", c.IndexName)

	if c.ElasticsearchUsername != "" {
		log.Printf("사용자명: %s", c.ElasticsearchUsername)
		log.Printf("비밀번호: %s", maskSensitive(c.ElasticsearchPassword))
	} else {
		log.Printf("인증: 없음")
	}
}

// printPollerConfig 폴링 스케줄러 설정 출력
func (c *Config) printPollerConfig() {
	log.Printf("=== 폴링 스케줄러 설정 ===")
	log.Printf("서버 URL: %s", c.Poller.ServerURL)
	log.Printf("정류장: %v", c.Poller.StationIDs)
	log.Printf("주기 - 활성: %v, 비활성: %v, 정류장 근접: %v",
		c.Poller.ActiveInterval, c.Poller.InactiveInterval, c.Poller.NearStationInterval)
	log.Printf("근접 기준: 도보 %d분 이하", c.Poller.UrgencyThresholdMinutes)
	log.Printf("배터리 절약 (숨김 시 일시정지): %t", c.Poller.ConserveBattery)
	log.Printf("요청 타임아웃: %v", c.Poller.RequestTimeout)
}
