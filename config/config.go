package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// RedisConfig Redis 연결 설정
type RedisConfig struct {
	Addr        string // 비어있으면 인메모리 캐시 사용
	Password    string
	DB          int `validate:"min=0"`
	PoolSize    int `validate:"min=1"`
	MaxRetries  int `validate:"min=0"`
	IdleTimeout int // 초
}

// UpstreamConfig 실시간 출발 정보 제공자 설정
type UpstreamConfig struct {
	BaseURL      string        `validate:"required,url"`
	StationParam string        `validate:"required"`   // 정류장 ID 쿼리 파라미터 이름 (반복 전달)
	Timeout      time.Duration `validate:"gt=0"`       // HTTP 호출 타임아웃
	MinInterval  time.Duration `validate:"gt=0"`       // 전역 최소 호출 간격 (레이트 리밋)
}

// CoordinatorConfig 캐시/요청 병합 설정
type CoordinatorConfig struct {
	CacheTTL            time.Duration `validate:"gt=0"` // 정류장 캐시 TTL
	StaleCacheTTL       time.Duration `validate:"gt=0"` // 오래된 사본 TTL (업스트림 장애 시 사용)
	LockTTL             time.Duration `validate:"gt=0"` // 페치 락 TTL
	StatusTTL           time.Duration `validate:"gt=0"` // 페치 상태 브로드캐스트 TTL
	LedgerTTL           time.Duration `validate:"gt=0"` // 대기 요청 원장 TTL
	WaitAttempts        int           `validate:"min=1"`
	WaitInterval        time.Duration `validate:"gt=0"`
	MaxStationsPerFetch int           `validate:"min=1"`
}

// PollerConfig 클라이언트 폴링 스케줄러 설정
type PollerConfig struct {
	ServerURL               string        `validate:"omitempty,url"`
	StationIDs              []string
	ActiveInterval          time.Duration `validate:"gt=0"`
	InactiveInterval        time.Duration `validate:"gt=0"`
	NearStationInterval     time.Duration `validate:"gt=0"`
	UrgencyThresholdMinutes int           `validate:"min=0"`
	ConserveBattery         bool
	RequestTimeout          time.Duration `validate:"gt=0"`
}

// Config 애플리케이션 설정 구조체
type Config struct {
	Mode     string `validate:"oneof=server poller"`
	WebPort  int    `validate:"min=1,max=65535"`
	LogLevel string
	AdminKey string

	// 요청 처리 설정
	RequestTimeout        time.Duration `validate:"gt=0"`
	MaxStationsPerRequest int           `validate:"min=1"`
	LineAllowList         []string      `validate:"min=1,dive,required"`
	MemoryCacheSize       int           `validate:"min=1"` // 인메모리 LRU 크기 (정류장 항목만 축출, 락/스로틀/상태 키는 제외)

	// Elasticsearch 아카이브 설정 (URL 비어있으면 비활성화)
	ElasticsearchURL      string `validate:"omitempty,url"`
	ElasticsearchUsername string
	ElasticsearchPassword string
	IndexName             string `validate:"required"`

	Redis       RedisConfig
	Upstream    UpstreamConfig
	Coordinator CoordinatorConfig
	Poller      PollerConfig
}

// LoadConfig .env 파일과 환경변수로부터 설정을 로드하고 검증
func LoadConfig() (*Config, error) {
	// .env 파일 로드 시도 (선택사항)
	if err := godotenv.Load(); err != nil {
		log.Println(".env 파일을 찾을 수 없습니다. 시스템 환경변수를 사용합니다.")
	} else {
		log.Println(".env 파일을 성공적으로 로드했습니다.")
	}

	cfg := FromEnvironment()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("설정 검증 실패: %w", err)
	}
	return cfg, nil
}

// FromEnvironment 환경변수 또는 기본값으로 설정 구성 (검증 없음)
func FromEnvironment() *Config {
	return &Config{
		Mode:     getEnv("MODE", "server"),
		WebPort:  getIntEnv("WEB_PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		AdminKey: getEnv("ADMIN_KEY", ""),

		RequestTimeout:        getMillis("REQUEST_TIMEOUT_MS", 30000),
		MaxStationsPerRequest: getIntEnv("MAX_STATIONS_PER_REQUEST", 40),
		LineAllowList:         getList("LINE_ALLOWLIST", DefaultLineAllowList),
		MemoryCacheSize:       getIntEnv("MEMORY_CACHE_SIZE", 10000),

		ElasticsearchURL:      getEnv("ELASTICSEARCH_URL", ""),
		ElasticsearchUsername: getEnv("ELASTICSEARCH_USERNAME", ""),
		ElasticsearchPassword: getEnv("ELASTICSEARCH_PASSWORD", ""),
		IndexName:             getEnv("INDEX_NAME", "departure-monitors"),

		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", ""),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getIntEnv("REDIS_DB", 0),
			PoolSize:    getIntEnv("REDIS_POOL_SIZE", 10),
			MaxRetries:  getIntEnv("REDIS_MAX_RETRIES", 2),
			IdleTimeout: getIntEnv("REDIS_IDLE_TIMEOUT_SECONDS", 300),
		},

		// 기본값은 Wiener Linien 실시간 모니터 API 기준
		Upstream: UpstreamConfig{
			BaseURL:      getEnv("UPSTREAM_BASE_URL", "https://www.wienerlinien.at/ogd_realtime/monitor"),
			StationParam: getEnv("UPSTREAM_STATION_PARAM", "diva"),
			Timeout:      getMillis("UPSTREAM_TIMEOUT_MS", 4000),
			MinInterval:  getMillis("UPSTREAM_MIN_INTERVAL_MS", 15000),
		},

		Coordinator: CoordinatorConfig{
			CacheTTL:            getSeconds("CACHE_TTL_SECONDS", 20),
			StaleCacheTTL:       getSeconds("STALE_CACHE_TTL_SECONDS", 300),
			LockTTL:             getMillis("LOCK_TTL_MS", 6000),
			StatusTTL:           getSeconds("STATUS_TTL_SECONDS", 30),
			LedgerTTL:           getSeconds("LEDGER_TTL_SECONDS", 60),
			WaitAttempts:        getIntEnv("WAIT_ATTEMPTS", 12),
			WaitInterval:        getMillis("WAIT_INTERVAL_MS", 500),
			MaxStationsPerFetch: getIntEnv("MAX_STATIONS_PER_FETCH", 60),
		},

		Poller: PollerConfig{
			ServerURL:               getEnv("POLLER_SERVER_URL", "http://localhost:8080"),
			StationIDs:              getList("POLLER_STATION_IDS", nil),
			ActiveInterval:          getMillis("POLL_ACTIVE_INTERVAL_MS", 30000),
			InactiveInterval:        getMillis("POLL_INACTIVE_INTERVAL_MS", 120000),
			NearStationInterval:     getMillis("POLL_NEAR_STATION_INTERVAL_MS", 15000),
			UrgencyThresholdMinutes: getIntEnv("POLL_URGENCY_THRESHOLD_MINUTES", 5),
			ConserveBattery:         getBoolEnv("POLL_CONSERVE_BATTERY", false),
			RequestTimeout:          getMillis("POLL_REQUEST_TIMEOUT_MS", 35000),
		},
	}
}

// DefaultLineAllowList 기본 노선 허용 목록 (지하철 노선)
var DefaultLineAllowList = []string{"U1", "U2", "U3", "U4", "U5", "U6"}

// Validate 설정 유효성 검증 (구조체 태그 + 필드 간 제약)
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	// 캐시는 클라이언트 기본 폴링 주기보다 먼저 만료되어야 같은 스냅샷이 반복되지 않음
	if c.Coordinator.CacheTTL >= c.Poller.ActiveInterval {
		return fmt.Errorf("CACHE_TTL_SECONDS(%v)는 POLL_ACTIVE_INTERVAL_MS(%v)보다 작아야 합니다",
			c.Coordinator.CacheTTL, c.Poller.ActiveInterval)
	}

	// 락은 업스트림 1회 왕복보다 길고, 그보다 오래 유지되면 안 됨
	if c.Upstream.Timeout >= c.Coordinator.LockTTL {
		return fmt.Errorf("UPSTREAM_TIMEOUT_MS(%v)는 LOCK_TTL_MS(%v)보다 작아야 합니다",
			c.Upstream.Timeout, c.Coordinator.LockTTL)
	}

	// 스로틀 창 대기 후 페치 또는 대기자 폴링까지 요청 타임아웃 이내
	if c.MaxResolveLatency() >= c.RequestTimeout {
		return fmt.Errorf("UPSTREAM_MIN_INTERVAL_MS + WAIT_ATTEMPTS x WAIT_INTERVAL_MS + UPSTREAM_TIMEOUT_MS(%v)는 REQUEST_TIMEOUT_MS(%v)보다 작아야 합니다",
			c.MaxResolveLatency(), c.RequestTimeout)
	}

	if c.Coordinator.StaleCacheTTL < c.Coordinator.CacheTTL {
		return fmt.Errorf("STALE_CACHE_TTL_SECONDS(%v)는 CACHE_TTL_SECONDS(%v) 이상이어야 합니다",
			c.Coordinator.StaleCacheTTL, c.Coordinator.CacheTTL)
	}

	if c.Mode == "poller" {
		if c.Poller.ServerURL == "" {
			return fmt.Errorf("poller 모드에는 POLLER_SERVER_URL이 필요합니다")
		}
		if len(c.Poller.StationIDs) == 0 {
			return fmt.Errorf("poller 모드에는 POLLER_STATION_IDS가 필요합니다")
		}
	}

	return nil
}

// MaxResolveLatency 스로틀 창 대기, 대기자 폴링, 업스트림 호출을 모두 거치는 최악의 요청 시간
func (c *Config) MaxResolveLatency() time.Duration {
	return c.Upstream.MinInterval + c.MaxWaiterLatency() + c.Upstream.Timeout
}

// MaxWaiterLatency 대기자가 소비할 수 있는 최대 시간
func (c *Config) MaxWaiterLatency() time.Duration {
	return time.Duration(c.Coordinator.WaitAttempts) * c.Coordinator.WaitInterval
}

// UsesRedis Redis 백엔드 설정 여부
func (c *Config) UsesRedis() bool {
	return c.Redis.Addr != ""
}

// ArchiveEnabled Elasticsearch 아카이브 활성화 여부
func (c *Config) ArchiveEnabled() bool {
	return c.ElasticsearchURL != ""
}
