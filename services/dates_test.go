package services

import (
	"errors"
	"testing"
	"time"
)

func TestStandardizeMonth(t *testing.T) {
	months := []struct {
		raw  string
		want string
	}{
		{"Agosti", "August"},
		{"Machi", "March"},
		{"Jan", "January"},
		{"Feb", "February"},
		{"Mar", "March"},
		{"Apr", "April"},
		{"Jun", "June"},
		{"Jul", "July"},
		{"Aug", "August"},
		{"Sept", "September"},
		{"Oct", "October"},
		{"Nov", "November"},
		{"Dec", "December"},
		{"Ctober", "October"},
		{"Septemba", "September"},
		{"SEPTEMBA", "September"},
		{"sep", "September"},
		{"Mei", "May"},
		{"Desemba", "December"},
		{"january", "January"},
		{"MARCH", "March"},
	}

	for _, tt := range months {
		if got := StandardizeMonth(tt.raw); got != tt.want {
			t.Errorf("StandardizeMonth(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestResolveDate(t *testing.T) {
	tests := []struct {
		filename string
		want     time.Time
	}{
		// day first
		{"sw-1700000000-Wholesale 2nd Machi 2023.pdf", time.Date(2023, time.March, 2, 0, 0, 0, 0, time.UTC)},
		{"sw-1726000000-Wholesale-12TH SEPTEMBA, 2024.pdf", time.Date(2024, time.September, 12, 0, 0, 0, 0, time.UTC)},
		{"sw-1690000000-Wholesale 21 Agosti 2023.pdf", time.Date(2023, time.August, 21, 0, 0, 0, 0, time.UTC)},
		// month first
		{"sw-0000000000-Wholesale-Jan 2 2024.pdf", time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)},
		{"sw-1695000000-Wholesale-September 18th 2023.pdf", time.Date(2023, time.September, 18, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ResolveDate(tt.filename)
		if err != nil {
			t.Errorf("ResolveDate(%q) error: %v", tt.filename, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ResolveDate(%q) = %s; want %s", tt.filename, got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
		}
	}
}

func TestExtractDateGrammarOrder(t *testing.T) {
	got, err := ExtractDate("sw-1700000000-Wholesale 2nd Machi 2023.pdf")
	if err != nil {
		t.Fatalf("ExtractDate error: %v", err)
	}
	if got != "2 March 2023" {
		t.Errorf("ExtractDate = %q; want %q", got, "2 March 2023")
	}

	got, err = ExtractDate("sw-0000000000-Wholesale-Jan 2 2024.pdf")
	if err != nil {
		t.Fatalf("ExtractDate error: %v", err)
	}
	if got != "2 January 2024" {
		t.Errorf("ExtractDate = %q; want %q", got, "2 January 2024")
	}
}

func TestResolveDateNoDate(t *testing.T) {
	_, err := ResolveDate("sw-1700000000-Wholesale.pdf")
	if !errors.Is(err, ErrDateUnresolved) {
		t.Fatalf("ResolveDate error = %v; want ErrDateUnresolved", err)
	}
}

func TestResolveDateInvalidDay(t *testing.T) {
	_, err := ResolveDate("sw-1700000000-Wholesale 32 January 2024.pdf")
	if err == nil {
		t.Fatal("expected an error for day 32")
	}
	if !errors.Is(err, ErrDateUnresolved) {
		t.Errorf("error %v does not wrap ErrDateUnresolved", err)
	}

	var perr *DateParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error %T is not a *DateParseError", err)
	}
	if perr.Value != "32 January 2024" {
		t.Errorf("Value = %q; want %q", perr.Value, "32 January 2024")
	}
}
