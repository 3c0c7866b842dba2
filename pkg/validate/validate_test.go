package validate_test

import (
	"testing"
	"time"

	"github.com/shashiranjanraj/grinfood/pkg/validate"
)

type item struct {
	Name     string  `json:"name"     validate:"required"`
	Quantity int     `json:"quantity" validate:"gte=0"`
	Price    float64 `json:"price"    validate:"gte=0"`
}

type customer struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"nullable,email"`
}

type orderInput struct {
	Items    []item    `json:"items"    validate:"required,min=1,dive"`
	Total    float64   `json:"total"    validate:"required,gt=0"`
	Customer *customer `json:"customer" validate:"required,dive"`
	Status   string    `json:"status"   validate:"nullable,in=pending,confirmed,cancelled"`
	Rating   *float64  `json:"rating"   validate:"required,gte=1,lte=5"`
}

func rating(v float64) *float64 { return &v }

func TestValidInput(t *testing.T) {
	errs := validate.Struct(orderInput{
		Items:    []item{{Name: "Borscht", Quantity: 2, Price: 120}},
		Total:    240,
		Customer: &customer{Name: "Olena"},
		Rating:   rating(5),
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(orderInput{})
	for _, field := range []string{"items", "total", "customer", "rating"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected %s to be required, got %v", field, errs)
		}
	}
}

func TestDiveReportsNestedFields(t *testing.T) {
	errs := validate.Struct(orderInput{
		Items:    []item{{Name: "ok"}, {Quantity: -1}},
		Total:    10,
		Customer: &customer{Email: "nope"},
		Rating:   rating(3),
	})
	for _, field := range []string{"items[1].name", "customer.name", "customer.email"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, errs)
		}
	}
	if _, ok := errs["items[0].name"]; ok {
		t.Errorf("unexpected error for items[0].name")
	}
}

func TestPointerRange(t *testing.T) {
	errs := validate.Struct(orderInput{
		Items:    []item{{Name: "x"}},
		Total:    1,
		Customer: &customer{Name: "n"},
		Rating:   rating(9),
	})
	if _, ok := errs["rating"]; !ok {
		t.Errorf("expected rating range error, got %v", errs)
	}
}

func TestInRule(t *testing.T) {
	type in struct {
		Role string `json:"role" validate:"required,in=user,manager"`
	}
	if errs := validate.Struct(in{Role: "manager"}); validate.HasErrors(errs) {
		t.Errorf("expected manager to be allowed, got %v", errs)
	}
	if errs := validate.Struct(in{Role: "admin"}); !validate.HasErrors(errs) {
		t.Error("expected admin to be rejected")
	}
}

func TestDigitsAndPhone(t *testing.T) {
	type in struct {
		Phone string `json:"phone" validate:"required,phone"`
		Code  string `json:"code"  validate:"required,digits=6"`
	}
	if errs := validate.Struct(in{Phone: "+380501234567", Code: "123456"}); validate.HasErrors(errs) {
		t.Errorf("expected valid input, got %v", errs)
	}
	errs := validate.Struct(in{Phone: "0501234567", Code: "12a456"})
	if len(errs) != 2 {
		t.Errorf("expected phone and code errors, got %v", errs)
	}
}

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2025-01-31":                time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		"2025-01-31T10:30":          time.Date(2025, 1, 31, 10, 30, 0, 0, time.UTC),
		"2025-01-31T10:30:15":       time.Date(2025, 1, 31, 10, 30, 15, 0, time.UTC),
		"2025-01-31T12:00:00+02:00": time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC),
		"2025-01-31T12:00:00.5Z":    time.Date(2025, 1, 31, 12, 0, 0, 500_000_000, time.UTC),
	}
	for in, want := range cases {
		got, err := validate.ParseDate(in)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := validate.ParseDate("31/31/2025"); err == nil {
		t.Error("expected error for malformed date")
	}
}
