package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/vitebski/josaa-predictor/pkg/models"
)

const barWidth = 30

var (
	highlight = color.New(color.FgGreen, color.Bold).SprintFunc()
	heading   = color.New(color.FgYellow).SprintFunc()
)

// PrintOverview prints the size of the loaded table
func PrintOverview(w io.Writer, category models.CollegeCategory, records []models.Record) {
	institutes := make(map[string]bool)
	branches := make(map[string]bool)
	for _, r := range records {
		institutes[r.Institute] = true
		branches[r.Branch] = true
	}

	fmt.Fprintln(w, "\n"+strings.Repeat("=", 50))
	fmt.Fprintf(w, "%s CUTOFF DATA\n", category)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "Records: %d\n", len(records))
	fmt.Fprintf(w, "Total colleges: %d\n", len(institutes))
	fmt.Fprintf(w, "Total branches: %d\n", len(branches))
	fmt.Fprintln(w, strings.Repeat("=", 50))
}

// PrintMostLikely prints the first result, the closest option in the final order
func PrintMostLikely(w io.Writer, results []models.Result, rank int) {
	if len(results) == 0 {
		return
	}
	best := results[0]
	fmt.Fprintln(w, heading(fmt.Sprintf("\nMost likely option at rank %d:", rank)))
	fmt.Fprintf(w, "  College: %s\n", best.Institute)
	fmt.Fprintf(w, "  Branch:  %s\n", best.Branch)
}

// PrintNoMatches tells the user nothing matched
func PrintNoMatches(w io.Writer) {
	fmt.Fprintln(w, color.RedString("Sorry! No data found for the given rank, seat type, and gender. Try different inputs."))
}

// PrintResults renders results as a table. Rows within the highlight range
// of the student's rank are printed in green.
func PrintResults(w io.Writer, title string, results []models.Result) {
	fmt.Fprintln(w, heading("\n"+title))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Institute", "Branch", "Seat Type", "Gender", "Opening", "Closing", "Difference"})
	table.SetAutoWrapText(false)

	for i, r := range results {
		row := []string{
			strconv.Itoa(i + 1),
			r.Institute,
			r.Branch,
			r.SeatType,
			r.Gender,
			strconv.Itoa(r.OpeningRank),
			strconv.Itoa(r.ClosingRank),
			strconv.Itoa(r.RankDifference),
		}
		if r.Highlight {
			for j := range row {
				row[j] = highlight(row[j])
			}
		}
		table.Append(row)
	}

	table.Render()
}

// PrintSummary renders the chart inputs as tables with proportional bars
func PrintSummary(w io.Writer, summary models.Summary) {
	if summary.Total == 0 {
		PrintNoMatches(w)
		return
	}

	fmt.Fprintln(w, heading("\nNumber of Branches per Institute"))
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Institute", "Branches", ""})
	table.SetAutoWrapText(false)
	peak := summary.InstituteCounts[0].Count
	for _, c := range summary.InstituteCounts {
		table.Append([]string{c.Name, strconv.Itoa(c.Count), bar(c.Count, peak)})
	}
	table.Render()

	fmt.Fprintln(w, heading("\nResults per Branch"))
	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"Branch", "Results"})
	table.SetAutoWrapText(false)
	for _, c := range summary.BranchCounts {
		table.Append([]string{c.Name, strconv.Itoa(c.Count)})
	}
	table.Render()

	fmt.Fprintln(w, heading("\nChances of Getting Colleges"))
	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"Institute", "Share", ""})
	table.SetAutoWrapText(false)
	for _, s := range summary.InstituteShares {
		table.Append([]string{s.Institute, fmt.Sprintf("%.1f%%", s.Share*100), bar(s.Count, summary.Total)})
	}
	table.Render()
}

// WriteSummaryJSON writes the summary for external charting tools
func WriteSummaryJSON(w io.Writer, summary models.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func bar(value, peak int) string {
	if peak <= 0 || value <= 0 {
		return ""
	}
	n := value * barWidth / peak
	if n == 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}
