package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const monthWords = `january|february|march|april|may|june|july|august|september|october|november|december|` +
	`jan|feb|mar|apr|jun|jul|aug|%s|oct|nov|dec|januari|februari|machi|aprili|mei|juni|` +
	`julai|agosti|septemba|novemba|desemba`

var (
	// dayFirstRegexp matches "2nd Machi 2023", "02_of_January, 2024" and the like.
	dayFirstRegexp = regexp.MustCompile(
		`(?i)(\d{1,2})\s*(?:_|.)?(?:st|nd|rd|th)?(?:_|.)?\s*?(?:of\s*)?` +
			`(` + fmt.Sprintf(monthWords, "sep") + `)\s*(?:,\s?)?(?:_|.)?(\d{4})`)

	// monthFirstRegexp matches "Jan 2 2024", "September 12th 2023" and the like.
	monthFirstRegexp = regexp.MustCompile(
		`(?i)(` + fmt.Sprintf(monthWords, "sept") + `)\s*` +
			`(\d{1,2})\s*(?:st|nd|rd|th)?\s*(\d{4})`)
)

type monthReplacement struct {
	pattern *regexp.Regexp
	month   string
}

// monthReplacements is applied in order. Abbreviations, a recurring typo and
// the Swahili month names all map to the English full name.
var monthReplacements = buildMonthReplacements([][2]string{
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
	{"Sep", "September"},
	{"Januari", "January"},
	{"Februari", "February"},
	{"Aprili", "April"},
	{"Mei", "May"},
	{"Juni", "June"},
	{"Julai", "July"},
	{"Novemba", "November"},
	{"Desemba", "December"},
})

func buildMonthReplacements(pairs [][2]string) []monthReplacement {
	out := make([]monthReplacement, len(pairs))
	for i, p := range pairs {
		out[i] = monthReplacement{
			pattern: regexp.MustCompile(`(?i)\b` + p[0] + `\b`),
			month:   p[1],
		}
	}
	return out
}

// ErrDateUnresolved is returned when no publication date can be derived from
// a bulletin filename.
var ErrDateUnresolved = errors.New("date unresolved")

// DateParseError reports a date that matched a grammar but is not a valid
// calendar date, such as day 32.
type DateParseError struct {
	Value string
	Err   error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("invalid publication date %q: %v", e.Value, e.Err)
}

func (e *DateParseError) Unwrap() []error { return []error{ErrDateUnresolved, e.Err} }

// StandardizeMonth maps a month token to its English full name, title-cased.
func StandardizeMonth(month string) string {
	for _, r := range monthReplacements {
		month = r.pattern.ReplaceAllString(month, r.month)
	}
	// A Caser keeps state, so one is made per call.
	return cases.Title(language.English).String(month)
}

// ExtractDate returns the "<day> <Month> <year>" string found in a bulletin
// filename. The day-first grammar is tried before the month-first one.
func ExtractDate(filename string) (string, error) {
	if m := dayFirstRegexp.FindStringSubmatch(filename); m != nil {
		return fmt.Sprintf("%s %s %s", m[1], StandardizeMonth(m[2]), m[3]), nil
	}
	if m := monthFirstRegexp.FindStringSubmatch(filename); m != nil {
		return fmt.Sprintf("%s %s %s", m[2], StandardizeMonth(m[1]), m[3]), nil
	}
	return "", fmt.Errorf("%w: no date in %q", ErrDateUnresolved, filename)
}

// ResolveDate derives the publication date of a bulletin from its filename.
func ResolveDate(filename string) (time.Time, error) {
	value, err := ExtractDate(filename)
	if err != nil {
		return time.Time{}, err
	}
	date, err := time.Parse("2 January 2006", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &DateParseError{Value: value, Err: err}
	}
	return date, nil
}
