package loader

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/josaa-predictor/internal/analyzer"
	"github.com/vitebski/josaa-predictor/internal/connector"
	"github.com/vitebski/josaa-predictor/pkg/models"
)

// DefaultTable is the SQL table holding imported cutoffs
const DefaultTable = "cutoffs"

// DBSource reads a category from the cutoffs table of a SQL database
type DBSource struct {
	DB       *connector.DatabaseConnector
	Table    string
	Analyzer *analyzer.ColumnAnalyzer
	Logger   *logrus.Logger
}

// NewDBSource creates a SQL source over table
func NewDBSource(db *connector.DatabaseConnector, table string, logger *logrus.Logger) *DBSource {
	if table == "" {
		table = DefaultTable
	}
	return &DBSource{
		DB:       db,
		Table:    table,
		Analyzer: analyzer.NewColumnAnalyzer(logger),
		Logger:   logger,
	}
}

// Load selects every row imported for category
func (s *DBSource) Load(category models.CollegeCategory) ([]models.Record, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE college_type = ? ORDER BY seq", s.Table)
	rows, err := s.DB.ExecuteQuery(query, string(category))
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %v", ErrDataUnavailable, s.Table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no %s rows in table %s", ErrDataUnavailable, category, s.Table)
	}

	names := make([]string, 0, len(rows[0]))
	for name := range rows[0] {
		names = append(names, name)
	}
	sort.Strings(names)

	columns, err := s.Analyzer.MapColumns(names)
	if err != nil {
		return nil, fmt.Errorf("%w: table %s: %v", ErrNormalization, s.Table, err)
	}

	records := make([]models.Record, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		record, ok := buildRecord(func(field analyzer.Field) (string, bool) {
			idx, mapped := columns[field]
			if !mapped {
				return "", false
			}
			v := row[names[idx]]
			if v == nil {
				return "", false
			}
			return fmt.Sprintf("%v", v), true
		}, string(category))
		if !ok {
			dropped++
			continue
		}
		records = append(records, record)
	}

	if dropped > 0 {
		s.Logger.Debugf("Dropped %d incomplete rows from table %s", dropped, s.Table)
	}
	s.Logger.Infof("Loaded %d %s cutoff records from table %s", len(records), category, s.Table)
	return records, nil
}
