package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"departure-monitor/config"
	"departure-monitor/internal/services/api"
	"departure-monitor/internal/services/cache"
	"departure-monitor/internal/services/coordinator"
	"departure-monitor/internal/services/merger"
	"departure-monitor/internal/services/poller"
	"departure-monitor/internal/services/storage"
	"departure-monitor/internal/utils"
	"departure-monitor/internal/web"
	webServices "departure-monitor/internal/web/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	logger := utils.NewLoggerWithLevel(cfg.LogLevel)

	logger.Info("=== 출발 모니터 시작 ===")
	cfg.PrintConfig()

	switch cfg.Mode {
	case "server":
		runServerMode(cfg, logger)
	case "poller":
		runPollerMode(cfg, logger)
	default:
		log.Fatalf("지원하지 않는 모드입니다: %s (server, poller 중 선택)", cfg.Mode)
	}
}

func runServerMode(cfg *config.Config, logger *utils.Logger) {
	logger.Info("=== 서버 모드로 실행 ===")

	sharedCache := cache.NewSharedCache(cfg, logger, coordinator.CoordinationKeys()...)
	defer sharedCache.Close()

	feed := api.NewMonitorFeedClient(cfg, logger)
	coord := coordinator.New(
		sharedCache,
		feed,
		merger.NewLineAllowList(cfg.LineAllowList),
		coordinator.SettingsFromConfig(cfg),
		logger,
	)

	var archive webServices.SnapshotReader
	if departureArchive := connectArchive(cfg, logger); departureArchive != nil {
		coord.SetSnapshotSink(departureArchive)
		archive = departureArchive
	}

	server := web.NewServer(cfg, logger, coord, archive)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatalf("웹 서버 실행 실패: %v", err)
		}
	}()

	waitForSignal(logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout+time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("웹 서버 종료 실패: %v", err)
	}

	stats := coord.Stats()
	logger.Infof("📊 종료 통계 - 요청 %d건, 캐시 적중 %d건, 업스트림 호출 %d건 (실패 %d건)",
		stats.Requests, stats.CacheHits, stats.UpstreamCalls, stats.UpstreamFailures)
	logger.Info("=== 서버 종료 완료 ===")
}

// connectArchive Elasticsearch 아카이브 연결 (비활성화 또는 연결 실패 시 nil)
func connectArchive(cfg *config.Config, logger *utils.Logger) *storage.DepartureArchive {
	if !cfg.ArchiveEnabled() {
		logger.Info("Elasticsearch 아카이브 비활성화 (ELASTICSEARCH_URL 없음)")
		return nil
	}

	archive, err := storage.NewDepartureArchive(cfg, logger)
	if err != nil {
		logger.Errorf("❌ Elasticsearch 클라이언트 생성 실패: %v", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := archive.TestConnection(ctx); err != nil {
		logger.Warnf("⚠️ Elasticsearch 연결 실패 - 아카이브 없이 계속 실행합니다: %v", err)
		return nil
	}

	logger.Infof("✅ Elasticsearch 아카이브 활성화 - 인덱스: %s", archive.IndexName())
	return archive
}

func runPollerMode(cfg *config.Config, logger *utils.Logger) {
	logger.Info("=== 폴러 모드로 실행 ===")

	fetcher := poller.NewHTTPMonitorFetcher(cfg.Poller.ServerURL, cfg.Poller.RequestTimeout, logger)
	scheduler := poller.NewScheduler(fetcher, poller.OptionsFromConfig(cfg), logger)
	scheduler.Start(cfg.Poller.StationIDs)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range scheduler.Updates() {
			logUpdate(logger, update)
		}
	}()

	waitForSignal(logger)

	scheduler.Stop()
	<-done

	logger.Infof("📊 건너뛴 틱: %d회", scheduler.DroppedTicks())
	logger.Info("=== 폴러 종료 완료 ===")
}

func logUpdate(logger *utils.Logger, update poller.Update) {
	switch {
	case update.Err != nil:
		logger.Warnf("⚠️ 폴링 실패 (마지막 정상 응답 유지): %v", update.Err)
	case update.NotModified:
		logger.Debug("변경 없음 (304)")
	case update.Response != nil:
		departures := 0
		for _, station := range update.Response.Stations {
			departures += station.DepartureCount()
		}
		logger.Infof("📥 정류장 %d개, 출발 %d건, 부분=%v",
			len(update.Response.Stations), departures, update.Response.Partial)
	}
}

func waitForSignal(logger *utils.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Infof("종료 신호 수신 (%v)", sig)
}
