package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"departure-monitor/config"
	"departure-monitor/internal/models"
	"departure-monitor/internal/utils"
)

// SnapshotDocument 인덱스에 저장되는 정류장 스냅샷 문서
type SnapshotDocument struct {
	StationID      string                `json:"stationId"`
	Title          string                `json:"title,omitempty"`
	FetchedAt      time.Time             `json:"fetchedAt"`
	LineCount      int                   `json:"lineCount"`
	DepartureCount int                   `json:"departureCount"`
	Station        models.StationMonitor `json:"station"`
}

// bulkResponse 벌크 응답 중 오류 확인에 필요한 부분
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error,omitempty"`
		} `json:"index"`
	} `json:"items"`
}

// searchResponse 검색 응답 중 문서 부분
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source SnapshotDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// DepartureArchive 업스트림에서 받은 정류장 스냅샷을 Elasticsearch에 보관
type DepartureArchive struct {
	client    *elasticsearch.Client
	logger    *utils.Logger
	indexName string
}

// NewDepartureArchive 새로운 아카이브 생성
func NewDepartureArchive(cfg *config.Config, logger *utils.Logger) (*DepartureArchive, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.ElasticsearchURL},
	}

	// 인증 정보가 있는 경우 추가
	if cfg.ElasticsearchUsername != "" {
		esConfig.Username = cfg.ElasticsearchUsername
		esConfig.Password = cfg.ElasticsearchPassword
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, fmt.Errorf("Elasticsearch 클라이언트 생성 실패: %w", err)
	}

	return &DepartureArchive{
		client:    client,
		logger:    logger,
		indexName: cfg.IndexName,
	}, nil
}

// TestConnection Elasticsearch 연결 테스트
func (a *DepartureArchive) TestConnection(ctx context.Context) error {
	info, err := a.client.Info(a.client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("연결 실패: %w", err)
	}
	defer info.Body.Close()

	if info.IsError() {
		return fmt.Errorf("연결 오류: %s", info.String())
	}
	return nil
}

// StoreSnapshots 벌크 인서트로 정류장 스냅샷 저장 (정류장+수신시각 기준 문서 ID로 재전송에도 중복 없음)
func (a *DepartureArchive) StoreSnapshots(ctx context.Context, stations []models.StationMonitor, fetchedAt time.Time) error {
	if len(stations) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, station := range stations {
		meta := map[string]interface{}{
			"index": map[string]interface{}{
				"_index": a.indexName,
				"_id":    documentID(station.StationID, fetchedAt),
			},
		}

		metaBytes, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("메타데이터 마샬링 실패: %w", err)
		}

		docBytes, err := json.Marshal(SnapshotDocument{
			StationID:      station.StationID,
			Title:          station.Title,
			FetchedAt:      fetchedAt,
			LineCount:      len(station.Lines),
			DepartureCount: station.DepartureCount(),
			Station:        station,
		})
		if err != nil {
			return fmt.Errorf("문서 데이터 마샬링 실패: %w", err)
		}

		// 벌크 요청 형식: 각 라인은 \n으로 구분
		buf.Write(metaBytes)
		buf.WriteByte('\n')
		buf.Write(docBytes)
		buf.WriteByte('\n')
	}

	req := esapi.BulkRequest{
		Index: a.indexName,
		Body:  &buf,
	}

	sendStart := time.Now()
	res, err := req.Do(ctx, a.client)
	sendDuration := time.Since(sendStart)
	if err != nil {
		return fmt.Errorf("벌크 요청 실행 실패: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("벌크 요청 오류 [%s]: %s", res.Status(), utils.PreviewBody(body, 200))
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("벌크 응답 파싱 실패: %w", err)
	}

	errorCount := 0
	for _, item := range parsed.Items {
		if item.Index.Error != nil {
			errorCount++
			a.logger.Errorf("❌ ES 인덱싱 실패 %s: %s - %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason)
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("벌크 인서트 중 %d개 항목 실패", errorCount)
	}

	a.logger.Debugf("✅ ES 스냅샷 저장 완료 - %d건, 소요시간: %v", len(stations), sendDuration)
	return nil
}

// LatestSnapshot 정류장의 가장 최근 스냅샷 조회
func (a *DepartureArchive) LatestSnapshot(ctx context.Context, stationID string) (*SnapshotDocument, bool, error) {
	query := map[string]interface{}{
		"size": 1,
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"stationId": stationID,
			},
		},
		"sort": []map[string]interface{}{
			{"fetchedAt": map[string]interface{}{"order": "desc"}},
		},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, false, fmt.Errorf("쿼리 마샬링 실패: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{a.indexName},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, a.client)
	if err != nil {
		return nil, false, fmt.Errorf("검색 요청 실패: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, false, nil
	}
	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return nil, false, fmt.Errorf("검색 오류 [%s]: %s", res.Status(), utils.PreviewBody(raw, 200))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, false, fmt.Errorf("검색 응답 파싱 실패: %w", err)
	}

	if len(parsed.Hits.Hits) == 0 {
		return nil, false, nil
	}
	doc := parsed.Hits.Hits[0].Source
	return &doc, true, nil
}

// IndexName 대상 인덱스 이름
func (a *DepartureArchive) IndexName() string {
	return a.indexName
}

func documentID(stationID string, fetchedAt time.Time) string {
	return stationID + "_" + strconv.FormatInt(fetchedAt.UnixMilli(), 10)
}
