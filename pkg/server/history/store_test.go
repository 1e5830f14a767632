package history

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/logging"
)

func TestHTTPStore_ConfiguredReflectsBaseURL(t *testing.T) {
	configured := NewHTTPStore("http://example.invalid", "", logging.NewNoopLogger())
	assert.True(t, configured.Configured())

	unconfigured := NewHTTPStore("", "", logging.NewNoopLogger())
	assert.False(t, unconfigured.Configured())
}

func TestHTTPStore_QueryRangeUnconfiguredReturnsErrNotConfigured(t *testing.T) {
	s := NewHTTPStore("", "", logging.NewNoopLogger())
	_, err := s.QueryRange(context.Background(), RangeQuery{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestHTTPStore_InsertHardwareSwallowsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewHTTPStore(server.URL, "", logging.NewNoopLogger())
	err := s.InsertHardware(context.Background(), domain.HistoryRecord{AssetID: "GPU_RTX4090"})
	assert.NoError(t, err)
}

func TestHTTPStore_InsertHardwareSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewHTTPStore(server.URL, "secret-token", logging.NewNoopLogger())
	require.NoError(t, s.InsertHardware(context.Background(), domain.HistoryRecord{AssetID: "GPU_RTX4090"}))
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestHTTPStore_QueryRangeDecodesRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GPU_RTX4090", r.URL.Query().Get("seriesKey"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"assetId":"GPU_RTX4090","price":1500.0}]`))
	}))
	defer server.Close()

	s := NewHTTPStore(server.URL, "", logging.NewNoopLogger())
	records, err := s.QueryRange(context.Background(), RangeQuery{SeriesKey: "GPU_RTX4090"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "GPU_RTX4090", records[0].AssetID)
}

func TestHTTPStore_QueryRangeNonOKStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewHTTPStore(server.URL, "", logging.NewNoopLogger())
	_, err := s.QueryRange(context.Background(), RangeQuery{})
	assert.Error(t, err)
}

func TestHTTPStore_QueryStatsDecodesStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"seriesKey":"GPU_RTX4090","min":1400,"max":1600,"avg":1500,"count":10,"oldestTimestamp":1000,"newestTimestamp":2000}`))
	}))
	defer server.Close()

	s := NewHTTPStore(server.URL, "", logging.NewNoopLogger())
	stats, err := s.QueryStats(context.Background(), "GPU_RTX4090")
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Count)
	assert.Equal(t, 1500.0, stats.Avg)
	assert.Equal(t, int64(1000), stats.OldestTimestamp)
	assert.Equal(t, int64(2000), stats.NewestTimestamp)
}
