package http_test

import (
	"context"
	"errors"
	gohttp "net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/pkg/http"
)

func TestPostFormWithBasicAuth(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC1", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+380501112233", r.PostForm.Get("To"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"pending"}`))
	}))
	defer srv.Close()

	resp, err := http.Post(srv.URL).
		BasicAuth("AC1", "secret").
		Form(url.Values{"To": {"+380501112233"}}).
		Send()
	require.NoError(t, err)
	require.NoError(t, resp.Throw())

	var body struct{ Status string }
	require.NoError(t, resp.JSON(&body))
	assert.Equal(t, "pending", body.Status)
}

func TestThrowReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, _ *gohttp.Request) {
		w.WriteHeader(gohttp.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"card_declined"}`))
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL).Retry(3, time.Millisecond).Send()
	require.NoError(t, err, "status errors are not retried or returned by Send")

	var se *http.StatusError
	require.True(t, errors.As(resp.Throw(), &se))
	assert.Equal(t, gohttp.StatusPaymentRequired, se.StatusCode)
}

func TestRetryOnTransportError(t *testing.T) {
	var calls atomic.Int32
	http.DefaultClient.Transport = roundTripFunc(func(r *gohttp.Request) (*gohttp.Response, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("connection reset")
		}
		return httptest.NewRecorder().Result(), nil
	})
	defer http.ResetTransport()

	resp, err := http.Get("http://vendor.test/ping").Retry(3, time.Millisecond).Send()
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryGivesUpAfterLastAttempt(t *testing.T) {
	var calls atomic.Int32
	http.DefaultClient.Transport = roundTripFunc(func(*gohttp.Request) (*gohttp.Response, error) {
		calls.Add(1)
		return nil, errors.New("connection refused")
	})
	defer http.ResetTransport()

	_, err := http.Get("http://vendor.test/ping").Retry(4, time.Millisecond).Send()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 4 attempts failed")
	assert.Equal(t, int32(4), calls.Load())
}

func TestBackoffHonoursContext(t *testing.T) {
	http.DefaultClient.Transport = roundTripFunc(func(*gohttp.Request) (*gohttp.Response, error) {
		return nil, errors.New("connection refused")
	})
	defer http.ResetTransport()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := http.Get("http://vendor.test/ping").WithContext(ctx).Retry(5, time.Hour).Send()
	assert.ErrorIs(t, err, context.Canceled)
}

type roundTripFunc func(*gohttp.Request) (*gohttp.Response, error)

func (f roundTripFunc) RoundTrip(r *gohttp.Request) (*gohttp.Response, error) { return f(r) }
