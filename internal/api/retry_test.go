package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryOptions {
	return RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection reset")
		}
		return nil
	}, fastRetry())

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		return errors.New("connection reset")
	}, fastRetry())

	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryTerminalErrorStopsImmediately(t *testing.T) {
	cause := &APIError{StatusCode: 422, Message: "Arquivo inválido"}
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		return &terminalError{err: cause}
	}, fastRetry())

	assert.Equal(t, 1, attempts, "server responses are never retried")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, cause, apiErr)
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRetry(ctx, func() error {
		return errors.New("connection reset")
	}, RetryOptions{MaxAttempts: 5, InitialDelay: time.Hour})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostMultipartRetriesTransportFailures(t *testing.T) {
	path := writeTempFile(t, "a.txt", "conteudo")

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			// Kill the connection so the client sees a transport
			// error rather than a status code.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil).WithRetry(fastRetry())
	resp, err := client.PostMultipart(context.Background(), "/analyze/icms",
		[]FilePart{{Field: "f", Filename: "a.txt", Path: path}}, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
	assert.JSONEq(t, `{"data":[]}`, string(resp.Body))
}

func TestPostMultipartDoesNotRetryServerErrors(t *testing.T) {
	path := writeTempFile(t, "a.txt", "conteudo")

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil).WithRetry(fastRetry())
	_, err := client.PostMultipart(context.Background(), "/analyze/icms",
		[]FilePart{{Field: "f", Filename: "a.txt", Path: path}}, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "an HTTP error response settles the call")
}
