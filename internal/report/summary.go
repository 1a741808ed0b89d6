package report

import (
	"sort"

	"github.com/vitebski/josaa-predictor/pkg/models"
)

// Summarize aggregates results for charting: results per institute (bar
// chart), per branch, and each institute's share of the total (pie chart).
// Counts are ordered largest first, ties by first appearance.
func Summarize(results []models.Result) models.Summary {
	summary := models.Summary{Total: len(results)}
	if len(results) == 0 {
		return summary
	}

	summary.InstituteCounts = countBy(results, func(r models.Result) string { return r.Institute })
	summary.BranchCounts = countBy(results, func(r models.Result) string { return r.Branch })

	summary.InstituteShares = make([]models.InstituteShare, len(summary.InstituteCounts))
	for i, c := range summary.InstituteCounts {
		summary.InstituteShares[i] = models.InstituteShare{
			Institute: c.Name,
			Count:     c.Count,
			Share:     float64(c.Count) / float64(len(results)),
		}
	}

	return summary
}

func countBy(results []models.Result, key func(models.Result) string) []models.NameCount {
	index := make(map[string]int)
	var counts []models.NameCount
	for _, r := range results {
		k := key(r)
		if i, ok := index[k]; ok {
			counts[i].Count++
			continue
		}
		index[k] = len(counts)
		counts = append(counts, models.NameCount{Name: k, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}
