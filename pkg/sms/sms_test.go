package sms_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/pkg/sms"
)

func twilioServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		if user != "AC1" || pass != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":20003,"message":"Authenticate"}`))
			return
		}
		require.NoError(t, r.ParseForm())
		switch r.URL.Path {
		case "/v2/Services/VA1/Verifications":
			assert.Equal(t, "sms", r.PostForm.Get("Channel"))
			_, _ = w.Write([]byte(`{"sid":"VE1","status":"pending"}`))
		case "/v2/Services/VA1/VerificationCheck":
			switch r.PostForm.Get("Code") {
			case "123456":
				_, _ = w.Write([]byte(`{"sid":"VE1","status":"approved"}`))
			case "expired":
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"code":20404,"message":"not found"}`))
			default:
				_, _ = w.Write([]byte(`{"sid":"VE1","status":"pending"}`))
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSendCode(t *testing.T) {
	srv := twilioServer(t)
	v := sms.NewTwilio("AC1", "tok", "VA1", srv.URL)

	status, err := v.SendCode(context.Background(), "+380501112233")
	require.NoError(t, err)
	assert.Equal(t, "pending", status)
}

func TestCheckCode(t *testing.T) {
	srv := twilioServer(t)
	v := sms.NewTwilio("AC1", "tok", "VA1", srv.URL)
	ctx := context.Background()

	ok, err := v.CheckCode(ctx, "+380501112233", "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.CheckCode(ctx, "+380501112233", "000000")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = v.CheckCode(ctx, "+380501112233", "expired")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVendorErrorSurfaces(t *testing.T) {
	srv := twilioServer(t)
	_, err := sms.NewTwilio("AC1", "wrong", "VA1", srv.URL).SendCode(context.Background(), "+1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Authenticate")
}
