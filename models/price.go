package models

import (
	"encoding/json"
	"strings"
	"time"
)

// PriceColumnCount is the number of positional min/max price fields in a bulletin row.
const PriceColumnCount = 16

// Crop names as they appear in the bulletin header, in column order.
var Crops = []string{
	"Maize",
	"Rice",
	"Sorghum Millet",
	"Bulrush Millet",
	"Finger Millet",
	"Wheat",
	"Beans",
	"Irish Potato",
}

// CropColumns is the fixed 18-entry bulletin schema: region, district, then
// a Min and Max column for every crop.
var CropColumns = buildCropColumns()

func buildCropColumns() []string {
	cols := []string{"Region", "District"}
	for _, crop := range Crops {
		cols = append(cols, crop+" Min", crop+" Max")
	}
	return cols
}

// ListingPage is one paginated index page enumerating bulletin links.
type ListingPage struct {
	Number int
	URL    string
}

// DocumentRef is a bulletin link that survived filtering. The filename is the
// only source of the publication date.
type DocumentRef struct {
	Prefix   string
	Filename string
}

// URL returns the percent-escaped origin URL of the document. ":" "/" and ","
// are left as-is.
func (d DocumentRef) URL() string {
	return QuoteURL(d.Prefix + d.Filename)
}

// QuoteURL escapes raw the way the bulletin origin URLs are keyed in the store:
// every byte outside the unreserved set and ":/," becomes %XX.
func QuoteURL(raw string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if keepUnescaped(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func keepUnescaped(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-._~:/,", c) >= 0
}

// RawRow is one regex match over a bulletin's text: the region as captured,
// the district, and the 16 price fields as they appear ("NA" or a number).
type RawRow struct {
	Region   string
	District string
	Prices   [PriceColumnCount]string
}

// Fields returns the row as its 18 positional strings.
func (r RawRow) Fields() []string {
	out := make([]string, 0, 2+PriceColumnCount)
	out = append(out, r.Region, r.District)
	return append(out, r.Prices[:]...)
}

// NullPrice is a price that may be absent. Both the "NA" sentinel and
// unparseable values map to an invalid NullPrice.
type NullPrice struct {
	Value float64
	Valid bool
}

// Price returns a valid NullPrice holding v.
func Price(v float64) NullPrice {
	return NullPrice{Value: v, Valid: true}
}

func (p NullPrice) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

func (p *NullPrice) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = NullPrice{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Price(v)
	return nil
}

// NormalizedRow is a bulletin row after date insertion and numeric cleaning.
type NormalizedRow struct {
	Date     time.Time
	Region   string
	District string
	Prices   [PriceColumnCount]NullPrice
}

// NormalizedTable holds the typed rows of one bulletin. Columns starts with
// "Date" followed by CropColumns.
type NormalizedTable struct {
	Columns []string
	Rows    []NormalizedRow
}

// Empty reports whether the table has no rows.
func (t *NormalizedTable) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// CropPrice is one crop's price range within a PriceRecord.
type CropPrice struct {
	Name string    `json:"name"`
	Min  NullPrice `json:"min"`
	Max  NullPrice `json:"max"`
}

// PriceRecord is the persisted unit. (SourceURL, Date, Region, District) is
// the primary key; CropPrices is stored as a JSON blob.
type PriceRecord struct {
	SourceURL  string
	Date       time.Time
	Region     string
	District   string
	CropPrices []CropPrice
}

// HarvestReport summarises one ingestion run.
type HarvestReport struct {
	RunID             string
	Pages             int
	DocumentsSeen     int
	DocumentsSkipped  int
	DocumentsIngested int
	DocumentsEmpty    int
	RecordsWritten    int
	StartedAt         time.Time
	FinishedAt        time.Time
}

// CropRange is the observed price range of one crop over stored records.
type CropRange struct {
	Name    string
	Entries int
	MinLow  float64
	MaxHigh float64
	AvgMin  float64
	AvgMax  float64
}

// PriceInsights holds analytics over the stored price records.
type PriceInsights struct {
	TotalRecords    int
	Documents       int
	FirstDate       time.Time
	LastDate        time.Time
	RecordsByRegion map[string]int
	Crops           []CropRange
}

// HarvestedDocument is one bulletin produced by the harvest stream.
type HarvestedDocument struct {
	SourceURL string
	Filename  string
	Table     *NormalizedTable
}

// StreamStats counts what the harvest stream has walked so far.
type StreamStats struct {
	Pages   int
	Seen    int
	Skipped int
}
