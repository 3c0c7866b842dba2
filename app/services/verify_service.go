package services

import (
	"context"

	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/sms"
)

type SendOTPInput struct {
	Phone string `json:"phone" validate:"required,phone"`
}

type VerifyOTPInput struct {
	Phone string `json:"phone" validate:"required,phone"`
	Code  string `json:"code" validate:"required,numeric,min=4,max=10"`
}

// VerifyService sends and checks SMS one-time codes.
type VerifyService struct {
	verifier sms.Verifier
}

func NewVerifyService(verifier sms.Verifier) *VerifyService {
	return &VerifyService{verifier: verifier}
}

// SendCode texts a code to the phone and returns the provider status.
func (s *VerifyService) SendCode(ctx context.Context, in SendOTPInput) (string, error) {
	if err := check(in); err != nil {
		return "", err
	}
	status, err := s.verifier.SendCode(ctx, in.Phone)
	if err != nil {
		return "", apperr.Collaborator("verify.send_code", err)
	}
	return status, nil
}

// CheckCode reports whether code is the one sent to the phone.
func (s *VerifyService) CheckCode(ctx context.Context, in VerifyOTPInput) (bool, error) {
	if err := check(in); err != nil {
		return false, err
	}
	ok, err := s.verifier.CheckCode(ctx, in.Phone, in.Code)
	if err != nil {
		return false, apperr.Collaborator("verify.check_code", err)
	}
	return ok, nil
}
