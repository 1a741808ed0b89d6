package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/vitebski/josaa-predictor/pkg/models"
)

// ExportHeader is the column order of exported result tables
var ExportHeader = []string{
	"institute",
	"branch",
	"seat_type",
	"gender",
	"opening_rank",
	"closing_rank",
	"category",
	"rank_difference",
}

// ToExportable serializes results as CSV with a header row
func ToExportable(results []models.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteExport(&buf, results); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteExport writes results as CSV to w
func WriteExport(w io.Writer, results []models.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ExportHeader); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.Institute,
			r.Branch,
			r.SeatType,
			r.Gender,
			strconv.Itoa(r.OpeningRank),
			strconv.Itoa(r.ClosingRank),
			r.Category,
			strconv.Itoa(r.RankDifference),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ParseExport reads a table written by ToExportable. Highlight is not part of
// the export and is left false.
func ParseExport(data []byte) ([]models.Result, error) {
	reader := csv.NewReader(bytes.NewReader(data))

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading export header: %w", err)
	}
	if len(header) != len(ExportHeader) {
		return nil, fmt.Errorf("export header has %d columns, expected %d", len(header), len(ExportHeader))
	}
	for i, name := range ExportHeader {
		if header[i] != name {
			return nil, fmt.Errorf("export column %d is %q, expected %q", i+1, header[i], name)
		}
	}

	var results []models.Result
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		ints := make([]int, 3)
		for i, col := range []int{4, 5, 7} {
			n, err := strconv.Atoi(row[col])
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, ExportHeader[col], err)
			}
			ints[i] = n
		}

		results = append(results, models.Result{
			Record: models.Record{
				Institute:   row[0],
				Branch:      row[1],
				SeatType:    row[2],
				Gender:      row[3],
				OpeningRank: ints[0],
				ClosingRank: ints[1],
				Category:    row[6],
			},
			RankDifference: ints[2],
		})
	}

	return results, nil
}
