package mail_test

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/pkg/mail"
)

func TestSendGridSender(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := mail.NewSendGrid("SG.key", "hello@grinfood.app", srv.URL)
	err := s.Send(context.Background(), mail.Message{
		To:      []string{"a@x.com"},
		Subject: "Hi",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi", got["subject"])
	assert.Equal(t, "hello@grinfood.app", got["from"].(map[string]any)["email"])
}

func TestSendGridSenderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := mail.NewSendGrid("bad", "x@y.z", srv.URL).Send(context.Background(), mail.Message{To: []string{"a@x.com"}, Subject: "s"})
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	assert.Error(t, mail.LogSender{}.Send(context.Background(), mail.Message{Subject: "s"}))
	assert.Error(t, mail.LogSender{}.Send(context.Background(), mail.Message{To: []string{"a@x.com"}}))
	assert.NoError(t, mail.LogSender{}.Send(context.Background(), mail.Message{To: []string{"a@x.com"}, Subject: "s"}))
}

func TestRecorderAndRender(t *testing.T) {
	tmpl := template.Must(template.New("reset").Parse(`<a href="{{.Link}}">Reset</a>`))
	body, err := mail.Render(tmpl, map[string]string{"Link": "https://x/reset?token=a&b"})
	require.NoError(t, err)
	assert.Contains(t, body, "token=a&amp;b")

	rec := &mail.Recorder{}
	require.NoError(t, rec.Send(context.Background(), mail.Message{To: []string{"a@x.com"}, Subject: "Reset", HTML: body}))
	assert.Len(t, rec.Sent(), 1)
}
