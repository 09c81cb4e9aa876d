package transport_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/releasetools/fixvet/internal/transport"
	"github.com/releasetools/fixvet/pkg/errors"
)

// noRetry keeps tests fast: a single retry with zero wait.
func noRetry() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
}

func TestBasicAuthApplied(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := transport.New(&transport.BasicAuth{Username: "alice", Password: "s3cret"},
		transport.WithBackOff(noRetry))

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NoError(t, transport.DecodeResponse(resp, nil))

	expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:s3cret"))
	assert.Equal(t, expected, gotAuth)
}

func TestRetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c := transport.New(&transport.NoAuth{}, transport.WithBackOff(noRetry))

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, transport.DecodeResponse(resp, &out))
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := transport.New(&transport.NoAuth{}, transport.WithBackOff(noRetry))

	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.IsRateLimited(err))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorMessages": ["Issue does not exist"]}`))
	}))
	defer srv.Close()

	c := transport.New(&transport.NoAuth{}, transport.WithBackOff(noRetry))

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(1), attempts.Load())

	err = transport.DecodeResponse(resp, nil)
	require.Error(t, err)

	var trackerErr *errors.TrackerError
	require.True(t, errors.As(err, &trackerErr))
	assert.Equal(t, http.StatusNotFound, trackerErr.StatusCode)
	assert.Contains(t, trackerErr.Message, "Issue does not exist")
}

func TestPutSetsContentType(t *testing.T) {
	var gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := transport.New(&transport.NoAuth{}, transport.WithBackOff(noRetry))

	resp, err := c.Put(context.Background(), srv.URL, []byte(`{"fields":{}}`))
	require.NoError(t, err)
	require.NoError(t, transport.DecodeResponse(resp, nil))

	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, `{"fields":{}}`, gotBody)
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Run("both set", func(t *testing.T) {
		t.Setenv(transport.EnvUser, "alice")
		t.Setenv(transport.EnvPassword, "s3cret")

		auth, err := transport.CredentialsFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "alice", auth.Username)
	})

	t.Run("missing password", func(t *testing.T) {
		t.Setenv(transport.EnvUser, "alice")
		t.Setenv(transport.EnvPassword, "")

		_, err := transport.CredentialsFromEnv()
		require.Error(t, err)
		assert.True(t, errors.IsCredentialsRequired(err))
	})
}
