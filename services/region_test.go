package services

import (
	"errors"
	"strings"
	"testing"
)

func TestStandardizeRegionIdempotent(t *testing.T) {
	for _, region := range TZRegions {
		got, err := StandardizeRegion(region, TZRegions)
		if err != nil {
			t.Errorf("StandardizeRegion(%q) error: %v", region, err)
			continue
		}
		if got != region {
			t.Errorf("StandardizeRegion(%q) = %q; want itself", region, got)
		}
	}
}

func TestStandardizeRegionFuzzy(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Dar es saalam", "Dar-es-Salaam"},
		{"Dar es salaam", "Dar-es-Salaam"},
		{"MBEYA", "Mbeya"},
		{"kilimanjaro", "Kilimanjaro"},
		{"Singinda", "Singida"},
	}

	m := NewRegionMatcher(TZRegions)
	for _, tt := range tests {
		got, err := m.Standardize(tt.raw)
		if err != nil {
			t.Errorf("Standardize(%q) error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Standardize(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestRowRegionTokensResolve(t *testing.T) {
	for _, token := range regionTokens {
		if _, err := StandardizeRegion(token, TZRegions); err != nil {
			t.Errorf("region token %q does not resolve: %v", token, err)
		}
	}
}

func TestStandardizeRegionUnresolved(t *testing.T) {
	_, err := StandardizeRegion("Unknown", []string{"Mbeya", "Dodoma"})
	if err == nil {
		t.Fatal("expected an error for an unknown region")
	}
	if !errors.Is(err, ErrRegionUnresolved) {
		t.Errorf("error %v does not wrap ErrRegionUnresolved", err)
	}

	var rerr *RegionUnresolvedError
	if !errors.As(err, &rerr) {
		t.Fatalf("error %T is not a *RegionUnresolvedError", err)
	}
	if rerr.Candidate != "Unknown" {
		t.Errorf("Candidate = %q; want %q", rerr.Candidate, "Unknown")
	}
	if !strings.Contains(err.Error(), "Unknown") {
		t.Errorf("error message %q does not name the candidate", err.Error())
	}
}
