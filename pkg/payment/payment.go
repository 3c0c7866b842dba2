// Package payment creates Stripe payment intents. Only the intent is created
// server side; confirmation happens in the client with the returned secret.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/grinfood/pkg/http"
)

// Currency used for every intent.
const Currency = "uah"

// ErrInvalidAmount is returned for a non-positive amount.
var ErrInvalidAmount = errors.New("payment: amount must be positive")

// Gateway creates payment intents. amount is in minor currency units.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency string) (clientSecret string, err error)
}

// MinorUnits converts a major-unit amount (e.g. 120.50 UAH) to minor units
// (12050), rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// Stripe is a Gateway on the Stripe REST API.
type Stripe struct {
	secretKey string
	baseURL   string
}

// NewStripe returns a Stripe gateway. baseURL is normally
// https://api.stripe.com.
func NewStripe(secretKey, baseURL string) *Stripe {
	return &Stripe{secretKey: secretKey, baseURL: baseURL}
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreatePaymentIntent creates a card-only intent. Intent creation is not
// idempotent, so the request is attempted once.
func (s *Stripe) CreatePaymentIntent(ctx context.Context, amount int64, currency string) (string, error) {
	if amount <= 0 {
		return "", ErrInvalidAmount
	}
	if s.secretKey == "" {
		return "", errors.New("payment: STRIPE_SECRET_KEY not configured")
	}

	resp, err := http.Post(s.baseURL+"/v1/payment_intents").
		WithContext(ctx).
		Bearer(s.secretKey).
		Form(url.Values{
			"amount":                 {strconv.FormatInt(amount, 10)},
			"currency":               {currency},
			"payment_method_types[]": {"card"},
		}).
		Timeout(15 * time.Second).
		Send()
	if err != nil {
		return "", fmt.Errorf("payment: create intent: %w", err)
	}
	if !resp.OK() {
		var se stripeError
		if resp.JSON(&se) == nil && se.Error.Message != "" {
			return "", fmt.Errorf("payment: stripe %d %s: %s", resp.StatusCode, se.Error.Type, se.Error.Message)
		}
		return "", fmt.Errorf("payment: create intent: %w", resp.Throw())
	}

	var intent struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := resp.JSON(&intent); err != nil {
		return "", fmt.Errorf("payment: create intent: %w", err)
	}
	if intent.ClientSecret == "" {
		return "", errors.New("payment: stripe returned no client_secret")
	}
	return intent.ClientSecret, nil
}
