package loader

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/vitebski/josaa-predictor/internal/connector"
	"github.com/vitebski/josaa-predictor/pkg/models"
)

const selectCutoffs = "SELECT * FROM cutoffs WHERE college_type = ? ORDER BY seq"

func newMockSource(t *testing.T) (*DBSource, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	logger := createTestLogger()
	db := connector.NewConnectorWithDB(sqlDB, connector.DriverMySQL, logger)
	return NewDBSource(db, "", logger), mock
}

func TestDBSourceLoad(t *testing.T) {
	source, mock := newMockSource(t)

	rows := sqlmock.NewRows([]string{"seq", "college_type", "institute", "branch", "seat_type", "gender", "opening_rank", "closing_rank", "category"}).
		AddRow(int64(0), "IIT", "Indian Institute of Technology Delhi", "Civil Engineering", "OPEN", "Gender-Neutral", int64(800), int64(1200), "OPEN").
		AddRow(int64(1), "IIT", "Indian Institute of Technology Delhi", "Chemical Engineering", "OPEN", "Gender-Neutral", nil, int64(2000), "OPEN").
		AddRow(int64(2), "IIT", "Indian Institute of Technology Ropar", "Mechanical Engineering", "SC", "Gender-Neutral", []byte("50"), []byte("310"), "SC")
	mock.ExpectQuery(regexp.QuoteMeta(selectCutoffs)).WithArgs("IIT").WillReturnRows(rows)

	records, err := source.Load(models.IIT)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records (one with a NULL rank dropped), got %d", len(records))
	}
	if records[0].Branch != "Civil Engineering" || records[0].ClosingRank != 1200 {
		t.Errorf("Unexpected first record: %+v", records[0])
	}
	if records[1].SeatType != "SC" || records[1].OpeningRank != 50 || records[1].ClosingRank != 310 {
		t.Errorf("Unexpected second record: %+v", records[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestDBSourceEmptyCategory(t *testing.T) {
	source, mock := newMockSource(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectCutoffs)).WithArgs("NIT").
		WillReturnRows(sqlmock.NewRows([]string{"institute"}))

	if _, err := source.Load(models.NIT); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("Expected ErrDataUnavailable, got %v", err)
	}
}

func TestDBSourceQueryError(t *testing.T) {
	source, mock := newMockSource(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectCutoffs)).WithArgs("IIT").
		WillReturnError(errors.New("table cutoffs doesn't exist"))

	if _, err := source.Load(models.IIT); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("Expected ErrDataUnavailable, got %v", err)
	}
}

func TestDBSourceMissingColumns(t *testing.T) {
	source, mock := newMockSource(t)

	rows := sqlmock.NewRows([]string{"institute", "branch", "closing_rank"}).
		AddRow("X", "Civil Engineering", int64(1200))
	mock.ExpectQuery(regexp.QuoteMeta(selectCutoffs)).WithArgs("IIT").WillReturnRows(rows)

	if _, err := source.Load(models.IIT); !errors.Is(err, ErrNormalization) {
		t.Errorf("Expected ErrNormalization, got %v", err)
	}
}
