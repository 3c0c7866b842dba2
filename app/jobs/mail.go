// Package jobs holds the background jobs the services dispatch onto the
// queue. Every job is a JSON payload; collaborators are injected by the
// factories registered in Register.
package jobs

import (
	"context"
	"html/template"

	"github.com/shashiranjanraj/grinfood/pkg/mail"
	"github.com/shashiranjanraj/grinfood/pkg/queue"
)

var (
	resetTmpl = template.Must(template.New("reset").Parse(
		`<p>Click to reset your GrinFood password: <a href="{{.Link}}">Reset password</a></p>`))
	verifyTmpl = template.Must(template.New("verify").Parse(
		`<p>Confirm your GrinFood email address: <a href="{{.Link}}">Confirm email</a></p>`))
	profileTmpl = template.Must(template.New("profile").Parse(
		`<p>Hello, <strong>{{.Name}}</strong>! Your GrinFood profile has been updated.</p>`))
)

// Register makes every mail job decodable by q, delivering through sender.
func Register(q *queue.Manager, sender mail.Sender) {
	q.Register(func() queue.Job { return &ResetPasswordEmail{sender: sender} })
	q.Register(func() queue.Job { return &VerificationEmail{sender: sender} })
	q.Register(func() queue.Job { return &ProfileUpdatedEmail{sender: sender} })
}

// ResetPasswordEmail delivers a password reset link.
type ResetPasswordEmail struct {
	To   string `json:"to"`
	Link string `json:"link"`

	sender mail.Sender
}

func (j *ResetPasswordEmail) Handle(ctx context.Context) error {
	return send(ctx, j.sender, j.To, "Reset your GrinFood password", resetTmpl, j)
}

// VerificationEmail delivers an email confirmation link.
type VerificationEmail struct {
	To   string `json:"to"`
	Link string `json:"link"`

	sender mail.Sender
}

func (j *VerificationEmail) Handle(ctx context.Context) error {
	return send(ctx, j.sender, j.To, "Confirm your GrinFood email", verifyTmpl, j)
}

// ProfileUpdatedEmail tells the owner their profile changed.
type ProfileUpdatedEmail struct {
	To   string `json:"to"`
	Name string `json:"name"`

	sender mail.Sender
}

func (j *ProfileUpdatedEmail) Handle(ctx context.Context) error {
	return send(ctx, j.sender, j.To, "Your GrinFood profile was updated", profileTmpl, j)
}

func send(ctx context.Context, sender mail.Sender, to, subject string, tmpl *template.Template, data any) error {
	body, err := mail.Render(tmpl, data)
	if err != nil {
		return err
	}
	return sender.Send(ctx, mail.Message{To: []string{to}, Subject: subject, HTML: body})
}
