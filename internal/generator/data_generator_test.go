package generator

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/josaa-predictor/internal/classify"
	"github.com/vitebski/josaa-predictor/internal/config"
	"github.com/vitebski/josaa-predictor/internal/loader"
	"github.com/vitebski/josaa-predictor/pkg/models"
)

func newTestGenerator(t *testing.T, seed int64) *CutoffGenerator {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	prefs, err := config.Defaults()
	if err != nil {
		t.Fatalf("Failed to load default preferences: %v", err)
	}
	return NewCutoffGenerator(prefs, seed, logger)
}

func TestInstituteNames(t *testing.T) {
	g := newTestGenerator(t, DefaultSeed)
	classifier := classify.NewClassifier(g.Preferences)

	for _, category := range []models.CollegeCategory{models.IIT, models.NIT, models.IIIT} {
		names := g.InstituteNames(category)
		if len(names) == 0 {
			t.Errorf("Expected institutes for %s, got none", category)
		}
		if len(names) > g.Institutes {
			t.Errorf("Expected at most %d institutes for %s, got %d", g.Institutes, category, len(names))
		}

		seen := make(map[string]bool)
		for _, name := range names {
			if seen[name] {
				t.Errorf("Duplicate institute %q for %s", name, category)
			}
			seen[name] = true
			if class := classifier.InstituteClass(name); class != string(category) {
				t.Errorf("Expected %q to classify as %s, got %q", name, category, class)
			}
		}
	}

	iits := g.InstituteNames(models.IIT)
	if iits[0] != "Indian Institute of Technology Bombay" {
		t.Errorf("Expected known institutes first, got %q", iits[0])
	}
}

func TestGenerateRows(t *testing.T) {
	g := newTestGenerator(t, DefaultSeed)

	rows := g.GenerateRows(models.NIT, "OPEN")
	if len(rows) < 2 {
		t.Fatalf("Expected header and data rows, got %d rows", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(RawHeader, ",") {
		t.Errorf("Expected raw header first, got %v", rows[0])
	}

	for _, row := range rows[1:] {
		if len(row) != len(RawHeader) {
			t.Fatalf("Expected %d columns, got %d", len(RawHeader), len(row))
		}
		if row[3] != "OPEN" {
			t.Errorf("Expected seat type OPEN, got %q", row[3])
		}
		if strings.HasSuffix(row[6], "P") {
			t.Errorf("Did not expect preparatory ranks in the OPEN partition, got %q", row[6])
		}
	}
}

func TestGenerateRowsIsDeterministic(t *testing.T) {
	a := newTestGenerator(t, 7).GenerateRows(models.IIIT, "SC")
	b := newTestGenerator(t, 7).GenerateRows(models.IIIT, "SC")

	if len(a) != len(b) {
		t.Fatalf("Expected equal row counts for equal seeds, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if strings.Join(a[i], ",") != strings.Join(b[i], ",") {
			t.Fatalf("Row %d differs between runs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestWriteCategoryLoadsBack(t *testing.T) {
	dir := t.TempDir()
	g := newTestGenerator(t, DefaultSeed)

	written, err := g.WriteCategory(dir, models.IIT)
	if err != nil {
		t.Fatalf("Failed to write category: %v", err)
	}

	source := loader.NewCSVSource(dir, g.Logger)
	records, err := source.Load(models.IIT)
	if err != nil {
		t.Fatalf("Failed to load generated data: %v", err)
	}

	if len(records) == 0 {
		t.Fatal("Expected generated records to load")
	}
	if len(records) > written {
		t.Errorf("Expected at most %d records, got %d", written, len(records))
	}

	partitions := make(map[string]bool)
	for _, pf := range loader.SourceFiles[models.IIT] {
		partitions[pf.Partition] = true
	}
	for _, r := range records {
		if !partitions[r.Category] {
			t.Errorf("Unexpected category %q", r.Category)
		}
		if r.SeatType != r.Category {
			t.Errorf("Expected seat type %q to match its partition %q", r.SeatType, r.Category)
		}
		if r.OpeningRank < 1 || r.OpeningRank > r.ClosingRank {
			t.Errorf("Expected 1 <= opening <= closing, got %d and %d", r.OpeningRank, r.ClosingRank)
		}
	}
}

func TestWriteCategoryRejectsUnknownCategory(t *testing.T) {
	g := newTestGenerator(t, DefaultSeed)
	if _, err := g.WriteCategory(t.TempDir(), models.CollegeCategory("GFTI")); err == nil {
		t.Error("Expected an error for an unknown category")
	}
}
