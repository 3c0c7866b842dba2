package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Promotion is a marketing campaign shown to customers while its window is
// open and its flag is set.
type Promotion struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	Image       string    `bson:"image" json:"image"`
	Active      bool      `bson:"active" json:"active"`
	StartDate   time.Time `bson:"startDate" json:"startDate"`
	EndDate     time.Time `bson:"endDate" json:"endDate"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// ActiveAt reports whether the promotion is live at t. Both ends of the
// window are inclusive.
func (p Promotion) ActiveAt(t time.Time) bool {
	return p.Active && !t.Before(p.StartDate) && !t.After(p.EndDate)
}

// PromotionInput is the payload of promotion create and update. Dates stay
// strings until the service parses them.
type PromotionInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Image       string `json:"image" validate:"required"`
	Active      Flag   `json:"active"`
	StartDate   string `json:"startDate" validate:"required,date"`
	EndDate     string `json:"endDate" validate:"required,date"`
}

// Flag is a boolean that also accepts the loose encodings clients send:
// "true"/"false", "1"/"0", any number (non-zero is true) and null (false).
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = false
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*f = Flag(t)
	case float64:
		*f = t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1":
			*f = true
		case "false", "0", "":
			*f = false
		default:
			return fmt.Errorf("cannot use %q as a boolean", t)
		}
	default:
		return fmt.Errorf("cannot use %s as a boolean", data)
	}
	return nil
}
