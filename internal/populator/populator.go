package populator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/josaa-predictor/internal/connector"
	"github.com/vitebski/josaa-predictor/internal/loader"
	"github.com/vitebski/josaa-predictor/pkg/models"
)

// DefaultBatchSize is the number of rows inserted per transaction
const DefaultBatchSize = 100

// Columns of the cutoffs table in insertion order
var Columns = []string{
	"seq",
	"college_type",
	"institute",
	"branch",
	"seat_type",
	"gender",
	"opening_rank",
	"closing_rank",
	"category",
}

// CutoffPopulator imports normalized cutoff records into a SQL table
type CutoffPopulator struct {
	DB        *connector.DatabaseConnector
	Table     string
	BatchSize int
	Logger    *logrus.Logger
}

// NewCutoffPopulator creates a populator for table
func NewCutoffPopulator(db *connector.DatabaseConnector, table string, logger *logrus.Logger) *CutoffPopulator {
	if table == "" {
		table = loader.DefaultTable
	}
	return &CutoffPopulator{
		DB:        db,
		Table:     table,
		BatchSize: DefaultBatchSize,
		Logger:    logger,
	}
}

// CreateTableSQL returns the DDL of the cutoffs table. It is accepted by both
// MySQL and SQLite.
func (cp *CutoffPopulator) CreateTableSQL() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	seq INT NOT NULL,
	college_type VARCHAR(16) NOT NULL,
	institute VARCHAR(255) NOT NULL,
	branch VARCHAR(512) NOT NULL,
	seat_type VARCHAR(32) NOT NULL,
	gender VARCHAR(64) NOT NULL,
	opening_rank INT NOT NULL,
	closing_rank INT NOT NULL,
	category VARCHAR(32) NOT NULL
)`, cp.Table)
}

// InsertSQL returns the parameterized insert statement
func (cp *CutoffPopulator) InsertSQL() string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(Columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", cp.Table, strings.Join(Columns, ", "), placeholders)
}

// EnsureTable creates the cutoffs table when it does not exist
func (cp *CutoffPopulator) EnsureTable() error {
	if _, err := cp.DB.ExecuteStatement(cp.CreateTableSQL()); err != nil {
		return fmt.Errorf("creating table %s: %w", cp.Table, err)
	}
	return nil
}

// ClearCategory deletes every row imported for category
func (cp *CutoffPopulator) ClearCategory(category models.CollegeCategory) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE college_type = ?", cp.Table)
	deleted, err := cp.DB.ExecuteStatement(query, string(category))
	if err != nil {
		return 0, fmt.Errorf("clearing %s rows: %w", category, err)
	}
	cp.Logger.Infof("Deleted %d %s rows from %s", deleted, category, cp.Table)
	return deleted, nil
}

// Populate appends records for category in batches. Rows are numbered after
// the rows already stored, so reading them back preserves import order. When
// a batch fails, the rows of the earlier batches are deleted again and no row
// of this import stays stored.
func (cp *CutoffPopulator) Populate(category models.CollegeCategory, records []models.Record) (int, error) {
	start := time.Now()

	next, err := cp.nextSeq(category)
	if err != nil {
		return 0, err
	}

	batchSize := cp.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	insertSQL := cp.InsertSQL()
	inserted := 0
	var paramsList [][]interface{}

	flush := func() error {
		if len(paramsList) == 0 {
			return nil
		}
		if _, err := cp.DB.ExecuteMany(insertSQL, paramsList); err != nil {
			return fmt.Errorf("inserting %s rows %d-%d: %w", category, inserted+1, inserted+len(paramsList), err)
		}
		inserted += len(paramsList)
		cp.Logger.Debugf("Inserted %d/%d %s rows", inserted, len(records), category)
		paramsList = paramsList[:0]
		return nil
	}

	for i, r := range records {
		paramsList = append(paramsList, []interface{}{
			next + int64(i),
			string(category),
			r.Institute,
			r.Branch,
			r.SeatType,
			r.Gender,
			r.OpeningRank,
			r.ClosingRank,
			r.Category,
		})

		if len(paramsList) >= batchSize {
			if err := flush(); err != nil {
				return 0, cp.discard(category, next, inserted, err)
			}
		}
	}
	if err := flush(); err != nil {
		return 0, cp.discard(category, next, inserted, err)
	}

	cp.Logger.Infof("Imported %d %s rows into %s in %s", inserted, category, cp.Table, time.Since(start).Round(time.Millisecond))
	return inserted, nil
}

// Import loads category from source and stores it. With replace set, rows
// previously imported for the category are deleted first, so a failed
// replacing import leaves the category empty rather than partly stored.
func (cp *CutoffPopulator) Import(source loader.Source, category models.CollegeCategory, replace bool) (int, error) {
	records, err := source.Load(category)
	if err != nil {
		return 0, err
	}

	if err := cp.EnsureTable(); err != nil {
		return 0, err
	}

	if replace {
		if _, err := cp.ClearCategory(category); err != nil {
			return 0, err
		}
	}

	return cp.Populate(category, records)
}

// CountCategory returns the number of stored rows for category
func (cp *CutoffPopulator) CountCategory(category models.CollegeCategory) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) AS count FROM %s WHERE college_type = ?", cp.Table)
	result, err := cp.DB.ExecuteQuery(query, string(category))
	if err != nil {
		return 0, fmt.Errorf("counting %s rows: %w", category, err)
	}
	if len(result) == 0 {
		return 0, fmt.Errorf("no result returned for count query on table %s", cp.Table)
	}
	return toInt64(result[0]["count"])
}

// discard deletes the rows of a failed import, numbered from first on
func (cp *CutoffPopulator) discard(category models.CollegeCategory, first int64, inserted int, cause error) error {
	if inserted == 0 {
		return cause
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE college_type = ? AND seq >= ?", cp.Table)
	deleted, err := cp.DB.ExecuteStatement(query, string(category), first)
	if err != nil {
		cp.Logger.Errorf("Could not remove %d partially imported %s rows: %v", inserted, category, err)
		return fmt.Errorf("%w (partial import of %d rows left in %s: %v)", cause, inserted, cp.Table, err)
	}

	cp.Logger.Warningf("Removed %d partially imported %s rows from %s", deleted, category, cp.Table)
	return cause
}

func (cp *CutoffPopulator) nextSeq(category models.CollegeCategory) (int64, error) {
	query := fmt.Sprintf("SELECT COALESCE(MAX(seq), -1) AS max_seq FROM %s WHERE college_type = ?", cp.Table)
	result, err := cp.DB.ExecuteQuery(query, string(category))
	if err != nil {
		return 0, fmt.Errorf("reading last sequence number: %w", err)
	}
	if len(result) == 0 {
		return 0, nil
	}

	last, err := toInt64(result[0]["max_seq"])
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

// toInt64 converts a scanned aggregate, which drivers return as int64 or text
func toInt64(v interface{}) (int64, error) {
	if n, ok := v.(int64); ok {
		return n, nil
	}
	n, err := strconv.ParseInt(fmt.Sprintf("%v", v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse count %v: %w", v, err)
	}
	return n, nil
}
