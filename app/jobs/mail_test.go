package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/app/jobs"
	"github.com/shashiranjanraj/grinfood/pkg/mail"
	"github.com/shashiranjanraj/grinfood/pkg/queue"
)

func TestMailJobsRoundTripThroughQueue(t *testing.T) {
	rec := &mail.Recorder{}
	q := queue.New(queue.NewMemoryDriver())
	jobs.Register(q, rec)

	ctx, cancel := context.WithCancel(context.Background())
	q.StartWorkers(ctx, 1)
	t.Cleanup(func() {
		cancel()
		q.Wait()
	})

	require.NoError(t, q.Dispatch(ctx, &jobs.ResetPasswordEmail{To: "a@x.com", Link: "https://grinfood.test/reset?t=1&x=2"}))
	require.NoError(t, q.Dispatch(ctx, &jobs.ProfileUpdatedEmail{To: "b@x.com", Name: "<b>Bo</b>"}))

	require.Eventually(t, func() bool { return len(rec.Sent()) == 2 }, time.Second, 5*time.Millisecond)

	byTo := map[string]mail.Message{}
	for _, m := range rec.Sent() {
		byTo[m.To[0]] = m
	}
	assert.Contains(t, byTo["a@x.com"].HTML, `href="https://grinfood.test/reset?t=1&amp;x=2"`)
	assert.Equal(t, "Your GrinFood profile was updated", byTo["b@x.com"].Subject)
	assert.Contains(t, byTo["b@x.com"].HTML, "&lt;b&gt;Bo&lt;/b&gt;", "names are escaped")
}

func TestVerificationEmailHandle(t *testing.T) {
	rec := &mail.Recorder{}
	q := queue.New(queue.NewMemoryDriver())
	jobs.Register(q, rec)

	// Jobs built outside the registry have no sender, so exercise decoding
	// through the queue rather than calling Handle directly.
	ctx, cancel := context.WithCancel(context.Background())
	q.StartWorkers(ctx, 1)
	t.Cleanup(func() {
		cancel()
		q.Wait()
	})
	require.NoError(t, q.Dispatch(ctx, &jobs.VerificationEmail{To: "c@x.com", Link: "https://grinfood.test/v"}))
	require.Eventually(t, func() bool { return len(rec.Sent()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Confirm your GrinFood email", rec.Sent()[0].Subject)
}
