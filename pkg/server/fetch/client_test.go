package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwp.dev/oracle/pkg/logging"
)

func TestStealthClient_Get_ThreadsRefererHeader(t *testing.T) {
	var gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewStealthClient(time.Second, nil, logging.NewNoopLogger())
	resp, err := c.Get(context.Background(), server.URL, "https://example.com/")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "https://example.com/", gotReferer)
}

func TestStealthClient_FetchWithRetry_SucceedsOnFirstOK(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := NewStealthClient(time.Second, nil, logging.NewNoopLogger())
	body, status, err := c.FetchWithRetry(context.Background(), server.URL, "", 3)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, 1, calls)
}

func TestStealthClient_FetchWithRetry_RetriesOnRetryableStatus(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := NewStealthClient(time.Second, nil, logging.NewNoopLogger())
	body, status, err := c.FetchWithRetry(context.Background(), server.URL, "", 3)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, 2, calls)
}

func TestStealthClient_FetchWithRetry_NonRetryableStatusFailsImmediately(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewStealthClient(time.Second, nil, logging.NewNoopLogger())
	_, status, err := c.FetchWithRetry(context.Background(), server.URL, "", 3)
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 1, calls)
}

func TestStealthClient_Warmup_ReturnsHomepageURLAsReferer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	c := NewStealthClient(2*time.Second, nil, logging.NewNoopLogger())
	referer := c.Warmup(context.Background(), server.URL)
	assert.Equal(t, server.URL, referer)
}

func TestStealthClient_Warmup_UnreachableHostReturnsEmptyReferer(t *testing.T) {
	c := NewStealthClient(100*time.Millisecond, nil, logging.NewNoopLogger())
	referer := c.Warmup(context.Background(), "http://127.0.0.1:1")
	assert.Empty(t, referer)
}

func TestBackoffDelay_AddsExtraJitterAfterBlockedStatus(t *testing.T) {
	plain := backoffDelay(1, 0)
	blocked := backoffDelay(1, http.StatusForbidden)
	assert.Greater(t, blocked, plain)
}
