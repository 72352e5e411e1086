package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"cropprice-harvester/models"
	"cropprice-harvester/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises stored price records: coverage by region and date, and
// the observed price range of every crop.
func (s *InsightService) Generate(records []*models.PriceRecord) *models.PriceInsights {
	out := &models.PriceInsights{
		RecordsByRegion: make(map[string]int),
	}
	if len(records) == 0 {
		return out
	}

	out.TotalRecords = len(records)
	out.FirstDate = records[0].Date
	out.LastDate = records[0].Date

	type acc struct {
		entries          int
		minLow, maxHigh  float64
		minSum, maxSum   float64
		minSeen, maxSeen int
	}
	accs := make(map[string]*acc, len(recordCrops))
	docs := make(map[string]struct{})

	for _, r := range records {
		docs[r.SourceURL] = struct{}{}
		out.RecordsByRegion[r.Region]++
		if r.Date.Before(out.FirstDate) {
			out.FirstDate = r.Date
		}
		if r.Date.After(out.LastDate) {
			out.LastDate = r.Date
		}

		for _, c := range r.CropPrices {
			a, ok := accs[c.Name]
			if !ok {
				a = &acc{minLow: math.Inf(1), maxHigh: math.Inf(-1)}
				accs[c.Name] = a
			}
			a.entries++
			if c.Min.Valid {
				a.minSeen++
				a.minSum += c.Min.Value
				a.minLow = math.Min(a.minLow, c.Min.Value)
			}
			if c.Max.Valid {
				a.maxSeen++
				a.maxSum += c.Max.Value
				a.maxHigh = math.Max(a.maxHigh, c.Max.Value)
			}
		}
	}
	out.Documents = len(docs)

	for _, name := range recordCrops {
		a, ok := accs[name]
		if !ok {
			continue
		}
		cr := models.CropRange{Name: name, Entries: a.entries}
		if a.minSeen > 0 {
			cr.MinLow = round2(a.minLow)
			cr.AvgMin = round2(a.minSum / float64(a.minSeen))
		}
		if a.maxSeen > 0 {
			cr.MaxHigh = round2(a.maxHigh)
			cr.AvgMax = round2(a.maxSum / float64(a.maxSeen))
		}
		out.Crops = append(out.Crops, cr)
	}

	s.logger.Debug("[insights] %d records across %d documents", out.TotalRecords, out.Documents)
	return out
}

func (s *InsightService) Print(r *models.PriceInsights, h *models.HarvestReport) {
	sep := strings.Repeat("═", 62)
	thin := strings.Repeat("─", 62)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 CROP PRICE HARVEST\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	if h != nil {
		fmt.Printf("\033[1;33m  This Run\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  Run ID              : %s\n", h.RunID)
		fmt.Printf("  Listing pages       : \033[1m%d\033[0m\n", h.Pages)
		fmt.Printf("  Bulletins found     : \033[1m%d\033[0m\n", h.DocumentsSeen)
		fmt.Printf("  Already ingested    : \033[1m%d\033[0m\n", h.DocumentsSkipped)
		fmt.Printf("  Newly ingested      : \033[1;32m%d\033[0m\n", h.DocumentsIngested)
		fmt.Printf("  Without rows        : \033[1m%d\033[0m\n", h.DocumentsEmpty)
		fmt.Printf("  Records written     : \033[1;32m%d\033[0m\n", h.RecordsWritten)
		fmt.Printf("  Duration            : %s\n", h.FinishedAt.Sub(h.StartedAt).Round(time.Millisecond))
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Store Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total records       : \033[1m%d\033[0m\n", r.TotalRecords)
	fmt.Printf("  Bulletins           : \033[1m%d\033[0m\n", r.Documents)
	if r.TotalRecords > 0 {
		fmt.Printf("  Date range          : %s → %s\n",
			r.FirstDate.Format("2006-01-02"), r.LastDate.Format("2006-01-02"))
	}
	fmt.Println()

	// Crop price ranges
	fmt.Printf("\033[1;33m  Wholesale Prices (TZS per 100kg)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.Crops) == 0 {
		fmt.Printf("  No price data available\n")
	} else {
		fmt.Printf("  \033[1m%-16s %7s %10s %10s %10s %10s\033[0m\n",
			"Crop", "Rows", "Lowest", "Avg min", "Avg max", "Highest")
		for _, c := range r.Crops {
			fmt.Printf("  %-16s %7d %10.0f %10.0f %10.0f \033[1;32m%10.0f\033[0m\n",
				c.Name, c.Entries, c.MinLow, c.AvgMin, c.AvgMax, c.MaxHigh)
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Records by Region\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.RecordsByRegion) == 0 {
		fmt.Printf("  No region data\n")
	} else {
		type regionCount struct {
			region string
			count  int
		}
		var regions []regionCount
		max := 0
		for region, cnt := range r.RecordsByRegion {
			regions = append(regions, regionCount{region, cnt})
			if cnt > max {
				max = cnt
			}
		}
		sort.Slice(regions, func(i, j int) bool {
			if regions[i].count != regions[j].count {
				return regions[i].count > regions[j].count
			}
			return regions[i].region < regions[j].region
		})
		for _, rc := range regions {
			bar := strings.Repeat("█", barWidth(rc.count, max, 30))
			fmt.Printf("  %-20s %s (%d)\n", truncate(rc.region, 18), bar, rc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

// barWidth scales count against max onto at most width cells; any non-zero
// count gets at least one.
func barWidth(count, max, width int) int {
	if max <= 0 || count <= 0 {
		return 0
	}
	w := count * width / max
	if w < 1 {
		w = 1
	}
	return w
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
