package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/app/services"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/sms"
)

type fakeVerifier struct {
	codes map[string]string
	err   error
}

func (v *fakeVerifier) SendCode(_ context.Context, phone string) (string, error) {
	if v.err != nil {
		return "", v.err
	}
	v.codes[phone] = "123456"
	return "pending", nil
}

func (v *fakeVerifier) CheckCode(_ context.Context, phone, code string) (bool, error) {
	if v.err != nil {
		return false, v.err
	}
	return v.codes[phone] == code, nil
}

var _ sms.Verifier = (*fakeVerifier)(nil)

func TestOneTimeCodes(t *testing.T) {
	v := &fakeVerifier{codes: map[string]string{}}
	svc := services.NewVerifyService(v)
	ctx := context.Background()
	phone := "+380501234567"

	status, err := svc.SendCode(ctx, services.SendOTPInput{Phone: phone})
	require.NoError(t, err)
	assert.Equal(t, "pending", status)

	ok, err := svc.CheckCode(ctx, services.VerifyOTPInput{Phone: phone, Code: "000000"})
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = svc.CheckCode(ctx, services.VerifyOTPInput{Phone: phone, Code: "123456"})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.SendCode(ctx, services.SendOTPInput{Phone: "0501234567"})
	requireKind(t, err, apperr.KindValidation)
	_, err = svc.CheckCode(ctx, services.VerifyOTPInput{Phone: phone, Code: "12ab"})
	requireKind(t, err, apperr.KindValidation)

	v.err = assert.AnError
	_, err = svc.SendCode(ctx, services.SendOTPInput{Phone: phone})
	requireKind(t, err, apperr.KindCollaboratorFailed)
}
