package services

import (
	"fmt"
	"regexp"
	"strings"

	"cropprice-harvester/models"
)

// regionTokens are the region spellings that can open a bulletin row.
var regionTokens = []string{
	"Dar es salaam", "Dar es saalam", "Kilimanjaro", "Singida", "Arusha", "Dodoma",
	"Morogoro", "Mtwara", "Lindi", "Iringa", "Mara", "Tanga", "Songwe", "Tabora",
	"Geita", "Kagera", "Katavi", "Manyara", "Mbeya", "Shinyanga", "Ruvuma", "Mwanza",
	"Pwani", "Simiyu", "Kigoma", "Rukwa", "Njombe",
}

// priceField is one min/max cell: a number with optional thousands
// separators and up to two decimals, or the NA sentinel.
const priceField = `(?:\s+(NA|\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?))`

// rowRegexp matches region, district and exactly 16 price fields.
var rowRegexp = regexp.MustCompile(
	`(?i)(` + strings.Join(regionTokens, "|") + `)` +
		`\s+([\w\s/]+?)` +
		strings.Repeat(priceField, models.PriceColumnCount))

// RowExtractor turns the flat text of a bulletin into raw rows.
type RowExtractor struct {
	regions *RegionMatcher
}

// NewRowExtractor creates a RowExtractor that standardizes regions with m.
func NewRowExtractor(m *RegionMatcher) *RowExtractor {
	return &RowExtractor{regions: m}
}

// Extract returns one RawRow per match, in text order. The first region
// token without a canonical match fails the whole document.
func (e *RowExtractor) Extract(text string) ([]models.RawRow, error) {
	matches := rowRegexp.FindAllStringSubmatch(text, -1)
	rows := make([]models.RawRow, 0, len(matches))

	for _, m := range matches {
		region, err := e.regions.Standardize(m[1])
		if err != nil {
			return nil, fmt.Errorf("extract rows: %w", err)
		}
		row := models.RawRow{Region: region, District: m[2]}
		copy(row.Prices[:], m[3:])
		rows = append(rows, row)
	}
	return rows, nil
}
