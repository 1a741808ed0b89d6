package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/josaa-predictor/internal/analyzer"
	"github.com/vitebski/josaa-predictor/pkg/models"
)

var (
	// ErrDataUnavailable is returned when a source holds no data for the request
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrNormalization is returned when source columns cannot be mapped
	ErrNormalization = errors.New("normalization failed")
)

// Source loads the normalized cutoff table for a college category
type Source interface {
	Load(category models.CollegeCategory) ([]models.Record, error)
}

// PartitionFile is one seat-type partition of a category's source data
type PartitionFile struct {
	Partition string
	File      string
}

// SourceFiles lists the partition files of each college category
var SourceFiles = map[models.CollegeCategory][]PartitionFile{
	models.IIT: {
		{Partition: "OPEN", File: "OPEN_Cat_Forms_Kart.csv"},
		{Partition: "OBC-NCL", File: "OBC_NCL_Forms_Kart_2024_IIT.csv"},
		{Partition: "EWS", File: "EWS_Cat_Forms_Kart_IIT_24.csv"},
		{Partition: "ST", File: "ST_Category_IIT_2024_Forms_kart.csv"},
		{Partition: "SC", File: "SC_Data_IIT_2024.csv"},
	},
	models.NIT: {
		{Partition: "OPEN", File: "OS_Only_NIT_Open_Cat.csv"},
		{Partition: "EWS", File: "OS_NITs_EWS_Cat.csv"},
		{Partition: "OBC-NCL", File: "NITs_OS_OBC_NCL.csv"},
		{Partition: "ST", File: "OS_NITs_ST.csv"},
		{Partition: "SC", File: "SC_NIT_OS.csv"},
	},
	models.IIIT: {
		{Partition: "OPEN", File: "OPEN_IIIT_2024.csv"},
		{Partition: "OBC-NCL", File: "OBC_IIIT_2024.csv"},
		{Partition: "EWS", File: "EWS_IIIT_2024.csv"},
		{Partition: "ST", File: "ST_IIIT_2024.csv"},
		{Partition: "SC", File: "SC_IIIT_2024.csv"},
	},
}

// ParseCategory resolves a user-supplied college category
func ParseCategory(value string) (models.CollegeCategory, error) {
	category := models.CollegeCategory(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := SourceFiles[category]; !ok {
		return "", fmt.Errorf("%w: unsupported college category %q", ErrDataUnavailable, value)
	}
	return category, nil
}

// CSVSource reads a category from its partition files in DataDir
type CSVSource struct {
	DataDir  string
	Analyzer *analyzer.ColumnAnalyzer
	Logger   *logrus.Logger
}

// NewCSVSource creates a CSV directory source
func NewCSVSource(dataDir string, logger *logrus.Logger) *CSVSource {
	return &CSVSource{
		DataDir:  dataDir,
		Analyzer: analyzer.NewColumnAnalyzer(logger),
		Logger:   logger,
	}
}

// Load reads every partition of category. All files must exist before any is
// parsed, so a missing partition never yields a partial table.
func (s *CSVSource) Load(category models.CollegeCategory) ([]models.Record, error) {
	files, ok := SourceFiles[category]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported college category %q", ErrDataUnavailable, category)
	}

	for _, pf := range files {
		path := filepath.Join(s.DataDir, pf.File)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: data file not found: %s", ErrDataUnavailable, path)
		}
	}

	var records []models.Record
	for _, pf := range files {
		path := filepath.Join(s.DataDir, pf.File)
		partition, err := s.loadFile(path, pf.Partition)
		if err != nil {
			return nil, err
		}
		records = append(records, partition...)
	}

	s.Logger.Infof("Loaded %d %s cutoff records from %s", len(records), category, s.DataDir)
	return records, nil
}

func (s *CSVSource) loadFile(path, partition string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer f.Close()

	records, dropped, err := ParseRecords(f, partition, s.Analyzer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	// partition files are tagged by the file they came from, whatever they contain
	for i := range records {
		records[i].Category = partition
	}
	if dropped > 0 {
		s.Logger.Debugf("Dropped %d incomplete or non-numeric rows from %s", dropped, path)
	}
	return records, nil
}

// FileSource reads a single CSV file, for data sets that are not split by
// seat type
type FileSource struct {
	Path     string
	Analyzer *analyzer.ColumnAnalyzer
	Logger   *logrus.Logger
}

// NewFileSource creates a single file source
func NewFileSource(path string, logger *logrus.Logger) *FileSource {
	return &FileSource{
		Path:     path,
		Analyzer: analyzer.NewColumnAnalyzer(logger),
		Logger:   logger,
	}
}

// Load reads the file. Rows are tagged with category, or with the file name
// when no category is given.
func (s *FileSource) Load(category models.CollegeCategory) ([]models.Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: data file not found: %s", ErrDataUnavailable, s.Path)
	}
	defer f.Close()

	tag := string(category)
	if tag == "" {
		tag = strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
	}

	records, dropped, err := ParseRecords(f, tag, s.Analyzer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}

	s.Logger.Infof("Loaded %d cutoff records from %s (%d rows dropped)", len(records), s.Path, dropped)
	return records, nil
}

// ParseRecords reads a CSV table with a header row and returns its normalized
// records and the number of rows dropped. Rows with an empty required field
// or a rank that is not a positive integer are dropped. Records take their
// category from the table when it has one, otherwise from partition, so an
// exported table reloads with its categories intact.
func ParseRecords(r io.Reader, partition string, a *analyzer.ColumnAnalyzer) ([]models.Record, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, fmt.Errorf("%w: empty file", ErrNormalization)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading header: %v", ErrNormalization, err)
	}

	columns, err := a.MapColumns(header)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrNormalization, err)
	}

	var records []models.Record
	dropped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrNormalization, err)
		}

		record, ok := buildRecord(func(field analyzer.Field) (string, bool) {
			idx, mapped := columns[field]
			if !mapped || idx >= len(row) {
				return "", false
			}
			return row[idx], true
		}, partition)
		if !ok {
			dropped++
			continue
		}
		records = append(records, record)
	}

	return records, dropped, nil
}

// buildRecord assembles a record from a field lookup, reporting false when a
// required field is empty or a rank does not coerce
func buildRecord(get func(analyzer.Field) (string, bool), partition string) (models.Record, bool) {
	values := make(map[analyzer.Field]string, len(analyzer.RequiredFields))
	for _, field := range analyzer.RequiredFields {
		v, ok := get(field)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			return models.Record{}, false
		}
		values[field] = v
	}

	opening, ok := analyzer.ParseRank(values[analyzer.FieldOpeningRank])
	if !ok {
		return models.Record{}, false
	}
	closing, ok := analyzer.ParseRank(values[analyzer.FieldClosingRank])
	if !ok {
		return models.Record{}, false
	}

	category := partition
	if v, ok := get(analyzer.FieldCategory); ok && strings.TrimSpace(v) != "" {
		category = strings.TrimSpace(v)
	}

	return models.Record{
		Institute:   values[analyzer.FieldInstitute],
		Branch:      values[analyzer.FieldBranch],
		SeatType:    values[analyzer.FieldSeatType],
		Gender:      values[analyzer.FieldGender],
		OpeningRank: opening,
		ClosingRank: closing,
		Category:    category,
	}, true
}
