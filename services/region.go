package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// RegionCutoff is the minimum similarity ratio a canonical region name must
// reach to be accepted as the match for a captured token.
const RegionCutoff = 0.6

// TZRegions is the canonical list of Tanzanian administrative regions.
var TZRegions = []string{
	"Arusha",
	"Dar-es-Salaam",
	"Dodoma",
	"Geita",
	"Iringa",
	"Kagera",
	"Katavi",
	"Kigoma",
	"Kilimanjaro",
	"Lindi",
	"Manyara",
	"Mara",
	"Mbeya",
	"Mjini Magharibi",
	"Morogoro",
	"Mtwara",
	"Mwanza",
	"Njombe",
	"Pemba Kaskazini",
	"Pemba Kusini",
	"Pwani",
	"Rukwa",
	"Ruvuma",
	"Shinyanga",
	"Simiyu",
	"Singida",
	"Songwe",
	"Tabora",
	"Tanga",
	"Unguja Kaskazini",
	"Unguja Kusini",
}

// ErrRegionUnresolved is returned when a region token has no canonical match.
var ErrRegionUnresolved = errors.New("region unresolved")

// RegionUnresolvedError names the token that could not be matched.
type RegionUnresolvedError struct {
	Candidate string
}

func (e *RegionUnresolvedError) Error() string {
	return fmt.Sprintf("could not find region: %s from the list", e.Candidate)
}

func (e *RegionUnresolvedError) Unwrap() error { return ErrRegionUnresolved }

// RegionMatcher reconciles noisy region spellings against a canonical list.
type RegionMatcher struct {
	canonical []string
}

// NewRegionMatcher creates a RegionMatcher over the given canonical names.
func NewRegionMatcher(canonical []string) *RegionMatcher {
	return &RegionMatcher{canonical: canonical}
}

// Standardize returns the canonical name closest to candidate.
func (m *RegionMatcher) Standardize(candidate string) (string, error) {
	return StandardizeRegion(candidate, m.canonical)
}

// StandardizeRegion returns the single canonical name with the highest
// similarity ratio to candidate, provided the ratio is at least RegionCutoff.
// Ties go to the lexicographically greater name. Comparison ignores case.
func StandardizeRegion(candidate string, canonical []string) (string, error) {
	word := strings.Split(strings.ToLower(candidate), "")
	matcher := difflib.NewMatcher(nil, word)

	best, bestScore := "", -1.0
	for _, name := range canonical {
		matcher.SetSeq1(strings.Split(strings.ToLower(name), ""))
		if matcher.RealQuickRatio() < RegionCutoff || matcher.QuickRatio() < RegionCutoff {
			continue
		}
		score := matcher.Ratio()
		if score < RegionCutoff {
			continue
		}
		if score > bestScore || (score == bestScore && name > best) {
			best, bestScore = name, score
		}
	}

	if bestScore < 0 {
		return "", &RegionUnresolvedError{Candidate: candidate}
	}
	return best, nil
}
