// Package sms sends and checks one-time codes through Twilio Verify.
package sms

import (
	"context"
	"errors"
	"fmt"
	gohttp "net/http"
	"net/url"
	"time"

	"github.com/shashiranjanraj/grinfood/pkg/http"
)

// StatusApproved is the Verify status of a correct code.
const StatusApproved = "approved"

// Verifier sends a code to a phone and checks it.
type Verifier interface {
	SendCode(ctx context.Context, phone string) (status string, err error)
	CheckCode(ctx context.Context, phone, code string) (approved bool, err error)
}

// Twilio is a Verifier on the Twilio Verify v2 API.
type Twilio struct {
	accountSID string
	authToken  string
	serviceSID string
	baseURL    string
}

// NewTwilio returns a Verifier for one Verify service. baseURL is normally
// https://verify.twilio.com.
func NewTwilio(accountSID, authToken, serviceSID, baseURL string) *Twilio {
	return &Twilio{accountSID: accountSID, authToken: authToken, serviceSID: serviceSID, baseURL: baseURL}
}

type verification struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (t *Twilio) post(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	if t.accountSID == "" || t.serviceSID == "" {
		return nil, errors.New("sms: twilio credentials not configured")
	}
	return http.Post(t.baseURL+"/v2/Services/"+url.PathEscape(t.serviceSID)+path).
		WithContext(ctx).
		BasicAuth(t.accountSID, t.authToken).
		Form(form).
		Timeout(10*time.Second).
		Retry(2, 300*time.Millisecond).
		Send()
}

func vendorError(op string, resp *http.Response) error {
	var te twilioError
	if resp.JSON(&te) == nil && te.Message != "" {
		return fmt.Errorf("sms: %s: twilio %d: %s", op, te.Code, te.Message)
	}
	return fmt.Errorf("sms: %s: %w", op, resp.Throw())
}

// SendCode starts an SMS verification and returns its status, normally
// "pending".
func (t *Twilio) SendCode(ctx context.Context, phone string) (string, error) {
	resp, err := t.post(ctx, "/Verifications", url.Values{"To": {phone}, "Channel": {"sms"}})
	if err != nil {
		return "", fmt.Errorf("sms: send code: %w", err)
	}
	if !resp.OK() {
		return "", vendorError("send code", resp)
	}
	var v verification
	if err := resp.JSON(&v); err != nil {
		return "", fmt.Errorf("sms: send code: %w", err)
	}
	return v.Status, nil
}

// CheckCode reports whether code is the pending code for phone. Twilio
// answers 404 when no verification is pending (expired or already
// approved), which is a rejected code rather than an outage.
func (t *Twilio) CheckCode(ctx context.Context, phone, code string) (bool, error) {
	resp, err := t.post(ctx, "/VerificationCheck", url.Values{"To": {phone}, "Code": {code}})
	if err != nil {
		return false, fmt.Errorf("sms: check code: %w", err)
	}
	if resp.StatusCode == gohttp.StatusNotFound {
		return false, nil
	}
	if !resp.OK() {
		return false, vendorError("check code", resp)
	}
	var v verification
	if err := resp.JSON(&v); err != nil {
		return false, fmt.Errorf("sms: check code: %w", err)
	}
	return v.Status == StatusApproved, nil
}
