package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/shashiranjanraj/grinfood/pkg/http"
)

// SendGridSender delivers mail through the SendGrid v3 mail/send API.
type SendGridSender struct {
	apiKey  string
	from    string
	baseURL string
}

// NewSendGrid returns a sender. baseURL is normally https://api.sendgrid.com.
func NewSendGrid(apiKey, from, baseURL string) *SendGridSender {
	return &SendGridSender{apiKey: apiKey, from: from, baseURL: baseURL}
}

type sgAddress struct {
	Email string `json:"email"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

func (s *SendGridSender) Send(ctx context.Context, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	to := make([]sgAddress, len(m.To))
	for i, addr := range m.To {
		to[i] = sgAddress{Email: addr}
	}
	body := sgRequest{
		Personalizations: []sgPersonalization{{To: to}},
		From:             sgAddress{Email: s.from},
		Subject:          m.Subject,
		Content:          []sgContent{{Type: "text/html", Value: m.HTML}},
	}

	resp, err := http.Post(s.baseURL+"/v3/mail/send").
		WithContext(ctx).
		Bearer(s.apiKey).
		Body(body).
		Timeout(10*time.Second).
		Retry(3, 500*time.Millisecond).
		Send()
	if err != nil {
		return fmt.Errorf("mail: sendgrid: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return fmt.Errorf("mail: sendgrid: %w", err)
	}
	return nil
}
