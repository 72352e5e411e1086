package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"cropprice-harvester/models"
	"cropprice-harvester/utils"
)

// naSentinel marks a price the bulletin does not report.
const naSentinel = "NA"

// ParsePrice converts a bulletin price cell. The NA sentinel and anything
// that does not parse as a number both become null; it never fails.
func ParsePrice(raw string) models.NullPrice {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, naSentinel) {
		return models.NullPrice{}
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return models.NullPrice{}
	}
	return models.Price(v)
}

// TableBuilder assembles raw rows into a typed table.
type TableBuilder struct{}

// Build stamps every row with date and converts its price cells.
func (TableBuilder) Build(rows []models.RawRow, date time.Time) *models.NormalizedTable {
	table := &models.NormalizedTable{
		Columns: append([]string{"Date"}, models.CropColumns...),
		Rows:    make([]models.NormalizedRow, 0, len(rows)),
	}
	for _, r := range rows {
		row := models.NormalizedRow{
			Date:     date,
			Region:   r.Region,
			District: r.District,
		}
		for i, cell := range r.Prices {
			row.Prices[i] = ParsePrice(cell)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// Parser turns a staged bulletin into a NormalizedTable.
type Parser struct {
	text    TextExtractor
	rows    *RowExtractor
	builder TableBuilder
	logger  *utils.Logger
}

// NewParser creates a Parser reading PDFs and matching regions against
// TZRegions.
func NewParser(logger *utils.Logger) *Parser {
	return NewParserWith(PDFTextExtractor{}, NewRowExtractor(NewRegionMatcher(TZRegions)), logger)
}

// NewParserWith creates a Parser from explicit components.
func NewParserWith(text TextExtractor, rows *RowExtractor, logger *utils.Logger) *Parser {
	return &Parser{text: text, rows: rows, logger: logger}
}

// ParseDocument extracts the rows of the document staged at path. The
// publication date comes from filename, the name the document was published
// under, not from its content.
func (p *Parser) ParseDocument(path, filename string) (*models.NormalizedTable, error) {
	text, err := p.text.ExtractText(path)
	if err != nil {
		return nil, err
	}

	rows, err := p.rows.Extract(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	date, err := ResolveDate(filename)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("[parser] %s: %d rows dated %s", filename, len(rows), date.Format("2006-01-02"))

	return p.builder.Build(rows, date), nil
}
