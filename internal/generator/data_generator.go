package generator

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jaswdr/faker"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/josaa-predictor/internal/classify"
	"github.com/vitebski/josaa-predictor/internal/config"
	"github.com/vitebski/josaa-predictor/internal/loader"
	"github.com/vitebski/josaa-predictor/pkg/models"
)

const (
	// DefaultInstitutes is the number of institutes generated per category
	DefaultInstitutes = 12
	// DefaultSeed makes generated data sets reproducible
	DefaultSeed = 2024
)

// RawHeader is the header of the counselling exports the generator imitates
var RawHeader = []string{
	"Institute",
	"Academic Program Name",
	"Quota",
	"Seat Type",
	"Gender",
	"Opening Rank",
	"Closing Rank",
}

// Genders written for every programme
var Genders = []string{
	"Gender-Neutral",
	"Female-only (including Supernumerary)",
}

// extraBranches pads the priority branches with programmes that exercise the
// duration and mainstream filters
var extraBranches = []string{
	"Aerospace Engineering",
	"Metallurgical and Materials Engineering",
	"Engineering Physics",
	"Mathematics and Computing",
	"Biotechnology",
	"Computer Science and Engineering (5 Years, Bachelor and Master of Technology (Dual Degree))",
	"Chemistry (5 Years, Integrated Master of Science)",
	"Architecture (5 Years, Bachelor of Architecture)",
}

// partitionScale shrinks closing ranks for reserved seat types, whose ranks
// are counted within the category
var partitionScale = map[string]float64{
	"OPEN":    1,
	"EWS":     0.25,
	"OBC-NCL": 0.4,
	"SC":      0.2,
	"ST":      0.1,
}

// CutoffGenerator writes synthetic cutoff tables in the layout the CSV loader reads
type CutoffGenerator struct {
	Faker       faker.Faker
	Preferences *config.Preferences
	Classifier  *classify.Classifier
	Institutes  int
	Logger      *logrus.Logger
}

// NewCutoffGenerator creates a generator seeded with seed
func NewCutoffGenerator(prefs *config.Preferences, seed int64, logger *logrus.Logger) *CutoffGenerator {
	return &CutoffGenerator{
		Faker:       faker.NewWithSeed(rand.NewSource(seed)),
		Preferences: prefs,
		Classifier:  classify.NewClassifier(prefs),
		Institutes:  DefaultInstitutes,
		Logger:      logger,
	}
}

// InstituteNames returns the institutes of a category: the known names from the
// prestige chains first, then invented ones named after cities
func (g *CutoffGenerator) InstituteNames(category models.CollegeCategory) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] && len(names) < g.Institutes {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, chain := range g.Preferences.Prestige {
		for _, name := range chain {
			if g.Classifier.InstituteClass(name) == string(category) {
				add(name)
			}
		}
	}

	prefix := g.marker(category)
	for attempts := 0; len(names) < g.Institutes && attempts < g.Institutes*20; attempts++ {
		add(fmt.Sprintf("%s %s", prefix, g.Faker.Address().City()))
	}

	return names
}

func (g *CutoffGenerator) marker(category models.CollegeCategory) string {
	for _, class := range g.Preferences.InstituteClasses {
		if class.Class == string(category) && len(class.Markers) > 0 {
			return class.Markers[0]
		}
	}
	return "Institute of Technology"
}

// Branches returns the programme pool
func (g *CutoffGenerator) Branches() []string {
	branches := make([]string, 0, len(g.Preferences.PriorityBranches)+len(extraBranches))
	branches = append(branches, g.Preferences.PriorityBranches...)
	return append(branches, extraBranches...)
}

// GenerateRows builds the raw rows, header first, of one seat-type partition
func (g *CutoffGenerator) GenerateRows(category models.CollegeCategory, partition string) [][]string {
	scale, ok := partitionScale[partition]
	if !ok {
		scale = 1
	}
	reserved := partition == "SC" || partition == "ST"

	rows := [][]string{RawHeader}
	branches := g.Branches()
	for i, institute := range g.InstituteNames(category) {
		offered := g.Faker.IntBetween(len(branches)/2, len(branches))
		for j, branch := range branches[:offered] {
			base := float64((i+1)*400+j*250+g.Faker.IntBetween(0, 150)) * scale
			for k, gender := range Genders {
				closing := int(base) + 1
				if k == 1 {
					closing = closing * 9 / 5
				}
				opening := g.Faker.IntBetween(1, closing)

				closingText := strconv.Itoa(closing)
				if reserved && g.Faker.IntBetween(0, 14) == 0 {
					// preparatory course ranks
					closingText += "P"
				}

				rows = append(rows, []string{
					institute,
					branch,
					"AI",
					partition,
					gender,
					strconv.Itoa(opening),
					closingText,
				})
			}
		}
	}

	return rows
}

// WriteCategory writes every partition file of category into dir and returns
// the number of data rows written
func (g *CutoffGenerator) WriteCategory(dir string, category models.CollegeCategory) (int, error) {
	files, ok := loader.SourceFiles[category]
	if !ok {
		return 0, fmt.Errorf("unsupported college category %q", category)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating data directory: %w", err)
	}

	total := 0
	for _, pf := range files {
		rows := g.GenerateRows(category, pf.Partition)
		path := filepath.Join(dir, pf.File)
		if err := writeCSV(path, rows); err != nil {
			return total, err
		}
		g.Logger.Debugf("Wrote %d rows to %s", len(rows)-1, path)
		total += len(rows) - 1
	}

	g.Logger.Infof("Generated %d %s cutoff rows in %s", total, category, dir)
	return total, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
