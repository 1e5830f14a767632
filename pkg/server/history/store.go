package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/logging"
	"hwp.dev/oracle/pkg/metrics"
)

// HTTPStore persists history records to an external relational service
// reached over HTTP.
type HTTPStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logging.Logger
}

// NewHTTPStore builds a store bound to baseURL. apiKey, if non-empty, is
// sent as a bearer token on every request.
func NewHTTPStore(baseURL, apiKey string, logger *logging.Logger) *HTTPStore {
	return &HTTPStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

func (s *HTTPStore) Configured() bool {
	return s.baseURL != ""
}

func (s *HTTPStore) InsertHardware(ctx context.Context, record domain.HistoryRecord) error {
	if err := s.post(ctx, "/v1/history/hardware", record); err != nil {
		s.logger.Warn("history insert failed", "series", record.AssetID, "error", err.Error())
		metrics.RecordHistoryWriteError(record.AssetID)
		return nil
	}
	return nil
}

func (s *HTTPStore) InsertRental(ctx context.Context, record domain.RentalHistoryRecord) error {
	if err := s.post(ctx, "/v1/history/rental", record); err != nil {
		s.logger.Warn("history insert failed", "series", record.GPUType, "error", err.Error())
		metrics.RecordHistoryWriteError(record.GPUType)
		return nil
	}
	return nil
}

func (s *HTTPStore) QueryRange(ctx context.Context, q RangeQuery) ([]domain.HistoryRecord, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	var records []domain.HistoryRecord
	if err := s.getRange(ctx, "/v1/history/hardware", q, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *HTTPStore) QueryRentalRange(ctx context.Context, q RangeQuery) ([]domain.RentalHistoryRecord, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	var records []domain.RentalHistoryRecord
	if err := s.getRange(ctx, "/v1/history/rental", q, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *HTTPStore) getRange(ctx context.Context, path string, q RangeQuery, out interface{}) error {
	values := url.Values{}
	if q.SeriesKey != "" {
		values.Set("seriesKey", q.SeriesKey)
	}
	if q.StartMs > 0 {
		values.Set("startTime", strconv.FormatInt(q.StartMs, 10))
	}
	if q.EndMs > 0 {
		values.Set("endTime", strconv.FormatInt(q.EndMs, 10))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}

	endpoint := s.baseURL + path + "?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("range query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("history store returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (s *HTTPStore) QueryStats(ctx context.Context, seriesKey string) (Stats, error) {
	return s.getStats(ctx, "/v1/history/stats", seriesKey)
}

func (s *HTTPStore) QueryRentalStats(ctx context.Context, gpuType string) (Stats, error) {
	return s.getStats(ctx, "/v1/history/rental/stats", gpuType)
}

func (s *HTTPStore) getStats(ctx context.Context, path, seriesKey string) (Stats, error) {
	if !s.Configured() {
		return Stats{}, ErrNotConfigured
	}

	endpoint := s.baseURL + path + "?seriesKey=" + url.QueryEscape(seriesKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("build request: %w", err)
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return Stats{}, fmt.Errorf("stats query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Stats{}, fmt.Errorf("history store returned %d: %s", resp.StatusCode, string(body))
	}

	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return Stats{}, fmt.Errorf("decode response: %w", err)
	}
	return stats, nil
}

func (s *HTTPStore) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("history store returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (s *HTTPStore) authorize(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}
