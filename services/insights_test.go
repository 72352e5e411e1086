package services

import (
	"testing"
	"time"

	"cropprice-harvester/models"
	"cropprice-harvester/utils"
)

func day(d int) time.Time { return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC) }

func sampleRecords() []*models.PriceRecord {
	return []*models.PriceRecord{
		{SourceURL: "a", Date: day(2), Region: "Mbeya", District: "Soweto", CropPrices: []models.CropPrice{
			{Name: "maize", Min: models.Price(60000), Max: models.Price(70000)},
			{Name: "beans", Min: models.NullPrice{}, Max: models.Price(250000)},
		}},
		{SourceURL: "a", Date: day(2), Region: "Dodoma", District: "Majengo", CropPrices: []models.CropPrice{
			{Name: "maize", Min: models.Price(50000), Max: models.Price(65000)},
		}},
		{SourceURL: "b", Date: day(9), Region: "Mbeya", District: "Soweto", CropPrices: []models.CropPrice{
			{Name: "maize", Min: models.Price(55000), Max: models.Price(80000)},
			{Name: "rice", Min: models.Price(180000), Max: models.NullPrice{}},
		}},
		{SourceURL: "c", Date: day(1), Region: "Arusha", District: "Arusha Mjini"},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	r := svc.Generate(sampleRecords())
	if r.TotalRecords != 4 {
		t.Errorf("TotalRecords: got %d, want 4", r.TotalRecords)
	}
	if r.Documents != 3 {
		t.Errorf("Documents: got %d, want 3", r.Documents)
	}
	if !r.FirstDate.Equal(day(1)) || !r.LastDate.Equal(day(9)) {
		t.Errorf("date range: got %s..%s, want 2024-01-01..2024-01-09",
			r.FirstDate.Format("2006-01-02"), r.LastDate.Format("2006-01-02"))
	}
}

func TestInsightCropRanges(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	r := svc.Generate(sampleRecords())

	if len(r.Crops) != 3 {
		t.Fatalf("Crops len: got %d, want 3", len(r.Crops))
	}
	// Record crop order: maize, rice, beans.
	if r.Crops[0].Name != "maize" || r.Crops[1].Name != "rice" || r.Crops[2].Name != "beans" {
		t.Errorf("crop order: got %s, %s, %s", r.Crops[0].Name, r.Crops[1].Name, r.Crops[2].Name)
	}

	maize := r.Crops[0]
	if maize.Entries != 3 {
		t.Errorf("maize entries: got %d, want 3", maize.Entries)
	}
	if maize.MinLow != 50000 || maize.MaxHigh != 80000 {
		t.Errorf("maize range: got %.2f..%.2f, want 50000..80000", maize.MinLow, maize.MaxHigh)
	}
	if maize.AvgMin != 55000 || maize.AvgMax != 71666.67 {
		t.Errorf("maize averages: got %.2f/%.2f, want 55000/71666.67", maize.AvgMin, maize.AvgMax)
	}

	beans := r.Crops[2]
	if beans.MinLow != 0 || beans.AvgMin != 0 || beans.MaxHigh != 250000 {
		t.Errorf("beans: got %+v", beans)
	}
}

func TestInsightRegionGrouping(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	r := svc.Generate(sampleRecords())
	if r.RecordsByRegion["Mbeya"] != 2 {
		t.Errorf("Mbeya count: got %d, want 2", r.RecordsByRegion["Mbeya"])
	}
	if r.RecordsByRegion["Dodoma"] != 1 {
		t.Errorf("Dodoma count: got %d, want 1", r.RecordsByRegion["Dodoma"])
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	r := svc.Generate(nil)
	if r.TotalRecords != 0 || len(r.Crops) != 0 {
		t.Errorf("expected no insights for empty input, got %+v", r)
	}
}

func TestBarWidth(t *testing.T) {
	tests := []struct{ count, max, want int }{
		{0, 10, 0},
		{1, 100, 1},
		{50, 100, 15},
		{100, 100, 30},
	}
	for _, tt := range tests {
		if got := barWidth(tt.count, tt.max, 30); got != tt.want {
			t.Errorf("barWidth(%d, %d) = %d; want %d", tt.count, tt.max, got, tt.want)
		}
	}
}
