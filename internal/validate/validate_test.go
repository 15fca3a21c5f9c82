package validate_test

import (
	"testing"

	"tallybot/internal/dates"
	"tallybot/internal/validate"
)

func TestDate(t *testing.T) {
	d, ok := validate.Date("15.03.2024")
	if !ok || d.String() != "15.03.2024" {
		t.Fatalf("got %v %v", d, ok)
	}
	if d, ok := validate.Date("Today"); !ok || d != dates.Today() {
		t.Fatalf("today token should resolve to current date, got %v %v", d, ok)
	}
	for _, s := range []string{"", "2024-03-15", "yesterday", "40.01.2024"} {
		if _, ok := validate.Date(s); ok {
			t.Fatalf("%q should be rejected", s)
		}
	}
}

func TestPositiveInt(t *testing.T) {
	if n, ok := validate.PositiveInt(" 12 "); !ok || n != 12 {
		t.Fatalf("got %d %v", n, ok)
	}
	for _, s := range []string{"0", "-1", "1.5", "abc", ""} {
		if _, ok := validate.PositiveInt(s); ok {
			t.Fatalf("%q should be rejected", s)
		}
	}
}

func TestPositiveDecimal(t *testing.T) {
	if d, ok := validate.PositiveDecimal("1500,50"); !ok || d.String() != "1500.5" {
		t.Fatalf("comma separator: got %v %v", d, ok)
	}
	if d, ok := validate.PositiveDecimal("99.99"); !ok || d.String() != "99.99" {
		t.Fatalf("dot separator: got %v %v", d, ok)
	}
	for _, s := range []string{"0", "-5", "free", ""} {
		if _, ok := validate.PositiveDecimal(s); ok {
			t.Fatalf("%q should be rejected", s)
		}
	}
}

func TestTextFolds(t *testing.T) {
	if v, ok := validate.Text("  Jacket "); !ok || v != "jacket" {
		t.Fatalf("got %q %v", v, ok)
	}
	if _, ok := validate.Text("   "); ok {
		t.Fatal("blank text should be rejected")
	}
}
