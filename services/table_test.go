package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cropprice-harvester/models"
	"cropprice-harvester/utils"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want models.NullPrice
	}{
		{"NA", models.NullPrice{}},
		{"na", models.NullPrice{}},
		{"", models.NullPrice{}},
		{"1,200.50", models.Price(1200.50)},
		{"300", models.Price(300)},
		{"95,000", models.Price(95000)},
		{"garbage", models.NullPrice{}},
		{"12.3.4", models.NullPrice{}},
		{"NaN", models.NullPrice{}},
		{"Inf", models.NullPrice{}},
		{"-Infinity", models.NullPrice{}},
		{"1e400", models.NullPrice{}},
	}

	for _, tt := range tests {
		if got := ParsePrice(tt.raw); got != tt.want {
			t.Errorf("ParsePrice(%q) = %+v; want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestTableBuilder(t *testing.T) {
	date := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	row := models.RawRow{Region: "Mbeya", District: "Soweto"}
	for i := range row.Prices {
		row.Prices[i] = "NA"
	}
	row.Prices[0] = "1,000"
	row.Prices[15] = "oops"

	table := TableBuilder{}.Build([]models.RawRow{row, row}, date)

	if len(table.Columns) != 19 || table.Columns[0] != "Date" || table.Columns[1] != "Region" ||
		table.Columns[18] != "Irish Potato Max" {
		t.Errorf("unexpected columns %q", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows; want 2", len(table.Rows))
	}
	for _, r := range table.Rows {
		if !r.Date.Equal(date) {
			t.Errorf("row date = %s; want %s", r.Date, date)
		}
		if r.Prices[0] != models.Price(1000) {
			t.Errorf("maize min = %+v; want 1000", r.Prices[0])
		}
		if r.Prices[1].Valid || r.Prices[15].Valid {
			t.Errorf("NA and unparseable cells should be null: %+v", r.Prices)
		}
	}
}

type fakePages []string

func (p fakePages) NumPage() int { return len(p) }

func (p fakePages) PageText(i int) (string, error) {
	if p[i-1] == "<broken>" {
		return "", errors.New("malformed content stream")
	}
	return p[i-1], nil
}

func TestJoinPages(t *testing.T) {
	got, err := JoinPages(fakePages{"Page 1 text", "", "Page 2 text"})
	if err != nil {
		t.Fatalf("JoinPages error: %v", err)
	}
	if got != "Page 1 textPage 2 text" {
		t.Errorf("JoinPages = %q; want %q", got, "Page 1 textPage 2 text")
	}

	got, err = JoinPages(fakePages{"Page 1 text", "<broken>", "Page 3 text"})
	if err == nil {
		t.Fatalf("expected an error, got text %q", got)
	}
	if got != "" {
		t.Errorf("partial text returned: %q", got)
	}
}

func TestPDFTextExtractor(t *testing.T) {
	// Three pages: a Tj line, a TJ array and a blank page.
	got, err := PDFTextExtractor{}.ExtractText(filepath.Join("testdata", "bulletin.pdf"))
	if err != nil {
		t.Fatalf("ExtractText error: %v", err)
	}
	if want := "Mbeya Soweto 100 200 NA NA 300"; got != want {
		t.Errorf("ExtractText = %q; want %q", got, want)
	}
}

func TestPDFTextExtractorRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.pdf")
	if err := os.WriteFile(path, []byte("<html>not found</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := (PDFTextExtractor{}).ExtractText(path); err == nil {
		t.Error("expected an error for a non-PDF file")
	}
}

type fixedText string

func (f fixedText) ExtractText(string) (string, error) { return string(f), nil }

func newTestParser(text string) *Parser {
	return NewParserWith(fixedText(text), NewRowExtractor(NewRegionMatcher(TZRegions)), utils.NewNopLogger())
}

func TestParseDocument(t *testing.T) {
	table, err := newTestParser(soweto).ParseDocument("/tmp/ignored.pdf", "sw-1700000000-Wholesale 2nd Machi 2023.pdf")
	if err != nil {
		t.Fatalf("ParseDocument error: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("got %d rows; want 1", len(table.Rows))
	}

	r := table.Rows[0]
	if want := time.Date(2023, time.March, 2, 0, 0, 0, 0, time.UTC); !r.Date.Equal(want) {
		t.Errorf("date = %s; want %s", r.Date, want)
	}
	if r.Region != "Mbeya" || r.District != "Soweto" {
		t.Errorf("row = %s/%s; want Mbeya/Soweto", r.Region, r.District)
	}
}

func TestParseDocumentUndated(t *testing.T) {
	_, err := newTestParser(soweto).ParseDocument("/tmp/ignored.pdf", "sw-1700000000-Wholesale.pdf")
	if !errors.Is(err, ErrDateUnresolved) {
		t.Fatalf("ParseDocument error = %v; want ErrDateUnresolved", err)
	}
}

func TestParseDocumentWithoutRows(t *testing.T) {
	table, err := newTestParser("no table here").ParseDocument("/tmp/ignored.pdf", "sw-0000000000-Wholesale-Jan 2 2024.pdf")
	if err != nil {
		t.Fatalf("ParseDocument error: %v", err)
	}
	if !table.Empty() {
		t.Errorf("table has %d rows; want none", len(table.Rows))
	}
}
