package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/vitebski/josaa-predictor/internal/loader"
	"github.com/vitebski/josaa-predictor/internal/predictor"
	"github.com/vitebski/josaa-predictor/internal/report"
)

func init() {
	color.NoColor = true
}

// execute runs the CLI with args and returns what it printed to stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "fatal", "--env-file", filepath.Join(t.TempDir(), ".env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func generateData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if _, err := execute(t, "generate", "--data-dir", dir, "--college", "all"); err != nil {
		t.Fatalf("Failed to generate data: %v", err)
	}
	return dir
}

func TestPredictDefaultOrder(t *testing.T) {
	dir := generateData(t)

	out, err := execute(t, "predict", "--data-dir", dir, "--college", "iit", "--rank", "1500", "--default-order", "--top-only")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, want := range []string{"IIT CUTOFF DATA", "IIT PREDICTION", "Branches: default order"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain '%s', got:\n%s", want, out)
		}
	}
}

func TestPredictRequiresAPreference(t *testing.T) {
	dir := generateData(t)

	_, err := execute(t, "predict", "--data-dir", dir, "--rank", "1500")
	if !errors.Is(err, predictor.ErrInvalidCriteria) {
		t.Errorf("Expected ErrInvalidCriteria without a preference, got %v", err)
	}

	_, err = execute(t, "predict", "--data-dir", dir, "--rank", "1500", "--default-order", "--branch", "Civil Engineering")
	if !errors.Is(err, predictor.ErrInvalidCriteria) {
		t.Errorf("Expected ErrInvalidCriteria with both preferences, got %v", err)
	}
}

func TestExportWritesCSV(t *testing.T) {
	dir := generateData(t)

	out, err := execute(t, "export", "--data-dir", dir, "--college", "NIT", "--rank", "100",
		"--branch", "Computer Science and Engineering", "--branch", "Civil Engineering")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("Expected CSV output, got error %v for:\n%s", err, out)
	}
	if strings.Join(rows[0], ",") != strings.Join(report.ExportHeader, ",") {
		t.Errorf("Expected export header, got %v", rows[0])
	}
	if len(rows) < 2 {
		t.Fatal("Expected at least one exported option")
	}
	for _, row := range rows[1:] {
		if row[1] != "Computer Science and Engineering" && row[1] != "Civil Engineering" {
			t.Errorf("Unexpected branch %q in export", row[1])
		}
	}
}

func TestSummaryJSON(t *testing.T) {
	dir := generateData(t)

	out, err := execute(t, "summary", "--data-dir", dir, "--college", "IIIT", "--rank", "500", "--default-order", "--format", "json")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, `"institute_counts"`) {
		t.Errorf("Expected JSON summary, got:\n%s", out)
	}

	if _, err := execute(t, "summary", "--data-dir", dir, "--rank", "500", "--default-order", "--format", "xml"); err == nil {
		t.Error("Expected an error for an unknown format")
	}
}

func TestImportThenPredictFromSQLite(t *testing.T) {
	dir := generateData(t)
	dbPath := filepath.Join(t.TempDir(), "cutoffs.db")

	out, err := execute(t, "import", "--data-dir", dir, "--source", "sqlite", "--sqlite-path", dbPath, "--college", "IIT", "--replace")
	if err != nil {
		t.Fatalf("Failed to import: %v", err)
	}
	if !strings.Contains(out, "Import complete") {
		t.Errorf("Expected a complete import, got:\n%s", out)
	}

	fromCSV, err := execute(t, "export", "--data-dir", dir, "--college", "IIT", "--rank", "2000", "--default-order")
	if err != nil {
		t.Fatalf("Failed to export from CSV: %v", err)
	}
	fromDB, err := execute(t, "export", "--source", "sqlite", "--sqlite-path", dbPath, "--college", "IIT", "--rank", "2000", "--default-order")
	if err != nil {
		t.Fatalf("Failed to export from SQLite: %v", err)
	}

	if fromCSV != fromDB {
		t.Errorf("Expected the same options from CSV and SQLite\nCSV:\n%s\nSQLite:\n%s", fromCSV, fromDB)
	}
}

func TestImportNeedsADatabase(t *testing.T) {
	dir := generateData(t)
	if _, err := execute(t, "import", "--data-dir", dir, "--college", "IIT"); err == nil {
		t.Error("Expected an error when importing into the CSV source")
	}
}

func TestImportFileNeedsOneCollege(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cutoffs.db")

	_, err := execute(t, "import", "--file", "../../internal/loader/testdata/simplified.csv", "--source", "sqlite", "--sqlite-path", dbPath)
	if err == nil {
		t.Fatal("Expected an error when importing a single file into every category")
	}
	if !strings.Contains(err.Error(), "--college") {
		t.Errorf("Expected the error to point at --college, got %v", err)
	}
}

func TestImportFileStoresOnlyTheChosenCollege(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cutoffs.db")

	if _, err := execute(t, "import", "--file", "../../internal/loader/testdata/simplified.csv",
		"--source", "sqlite", "--sqlite-path", dbPath, "--college", "IIT"); err != nil {
		t.Fatalf("Failed to import: %v", err)
	}

	query := []string{"export", "--source", "sqlite", "--sqlite-path", dbPath, "--rank", "1",
		"--seat-type", "Home State", "--gender", "Male", "--branch", "Computer Science and Engineering"}

	out, err := execute(t, append(query, "--college", "IIT")...)
	if err != nil {
		t.Fatalf("Failed to export IIT: %v", err)
	}
	if !strings.Contains(out, "Government Engineering College") {
		t.Errorf("Expected the imported row in the IIT export, got:\n%s", out)
	}

	for _, college := range []string{"NIT", "IIIT"} {
		if _, err := execute(t, append(query, "--college", college)...); !errors.Is(err, loader.ErrDataUnavailable) {
			t.Errorf("Expected no %s rows after importing IIT only, got %v", college, err)
		}
	}
}

func TestUnknownCollege(t *testing.T) {
	dir := generateData(t)
	if _, err := execute(t, "predict", "--data-dir", dir, "--college", "GFTI", "--rank", "10", "--default-order"); err == nil {
		t.Error("Expected an error for an unknown college category")
	}
}
