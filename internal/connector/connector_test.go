package connector

import (
	"errors"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
)

func TestNewDatabaseConnector(t *testing.T) {
	// Set environment variables for testing
	os.Setenv("MYSQL_HOST", "test-host")
	os.Setenv("MYSQL_USER", "test-user")
	os.Setenv("MYSQL_PASSWORD", "test-password")
	os.Setenv("MYSQL_DATABASE", "test-database")
	os.Setenv("MYSQL_PORT", "3307")
	defer func() {
		for _, key := range []string{"MYSQL_HOST", "MYSQL_USER", "MYSQL_PASSWORD", "MYSQL_DATABASE", "MYSQL_PORT"} {
			os.Unsetenv(key)
		}
	}()

	logger := createTestLogger()

	// Create a new database connector
	db := NewDatabaseConnector("", "", "", "", "", logger)

	// Check that environment variables were used
	if db.Driver != DriverMySQL {
		t.Errorf("Expected driver to be '%s', got '%s'", DriverMySQL, db.Driver)
	}
	if db.Host != "test-host" {
		t.Errorf("Expected host to be 'test-host', got '%s'", db.Host)
	}
	if db.User != "test-user" {
		t.Errorf("Expected user to be 'test-user', got '%s'", db.User)
	}
	if db.Password != "test-password" {
		t.Errorf("Expected password to be 'test-password', got '%s'", db.Password)
	}
	if db.Database != "test-database" {
		t.Errorf("Expected database to be 'test-database', got '%s'", db.Database)
	}
	if db.Port != "3307" {
		t.Errorf("Expected port to be '3307', got '%s'", db.Port)
	}

	// Test with explicit parameters
	db = NewDatabaseConnector("explicit-host", "explicit-user", "explicit-password", "explicit-database", "3308", logger)

	if db.Host != "explicit-host" {
		t.Errorf("Expected host to be 'explicit-host', got '%s'", db.Host)
	}
	if db.Database != "explicit-database" {
		t.Errorf("Expected database to be 'explicit-database', got '%s'", db.Database)
	}
	if db.Port != "3308" {
		t.Errorf("Expected port to be '3308', got '%s'", db.Port)
	}
}

func TestNewSQLiteConnector(t *testing.T) {
	logger := createTestLogger()

	os.Setenv("PREDICTOR_SQLITE_PATH", "/tmp/from-env.db")
	defer os.Unsetenv("PREDICTOR_SQLITE_PATH")

	db := NewSQLiteConnector("", logger)
	if db.Driver != DriverSQLite {
		t.Errorf("Expected driver to be '%s', got '%s'", DriverSQLite, db.Driver)
	}
	if db.SQLitePath != "/tmp/from-env.db" {
		t.Errorf("Expected path from environment, got '%s'", db.SQLitePath)
	}

	db = NewSQLiteConnector("explicit.db", logger)
	if db.SQLitePath != "explicit.db" {
		t.Errorf("Expected explicit path, got '%s'", db.SQLitePath)
	}
}

func TestDSN(t *testing.T) {
	logger := createTestLogger()

	db := NewDatabaseConnector("h", "u", "p", "d", "3306", logger)
	dsn, err := db.DSN()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dsn != "u:p@tcp(h:3306)/d?parseTime=true" {
		t.Errorf("Unexpected MySQL DSN: %s", dsn)
	}

	db = &DatabaseConnector{Driver: DriverMySQL, Logger: logger}
	if _, err := db.DSN(); err == nil {
		t.Error("Expected an error when the MySQL database name is missing")
	}

	db = &DatabaseConnector{Driver: DriverSQLite, SQLitePath: ":memory:", Logger: logger}
	dsn, err = db.DSN()
	if err != nil || dsn != ":memory:" {
		t.Errorf("Expected ':memory:', got '%s' (%v)", dsn, err)
	}

	db = &DatabaseConnector{Driver: "oracle", Logger: logger}
	if _, err := db.DSN(); err == nil {
		t.Error("Expected an error for an unsupported driver")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	logger := createTestLogger()

	db := NewSQLiteConnector(":memory:", logger)
	if err := db.Connect(); err != nil {
		t.Fatalf("Failed to open in-memory SQLite: %v", err)
	}
	defer db.Disconnect()

	if _, err := db.ExecuteStatement("CREATE TABLE t (name VARCHAR(32), n INT)"); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	affected, err := db.ExecuteMany("INSERT INTO t (name, n) VALUES (?, ?)", [][]interface{}{
		{"a", 1},
		{"b", 2},
		{"c", 3},
	})
	if err != nil {
		t.Fatalf("Failed to insert rows: %v", err)
	}
	if affected != 3 {
		t.Errorf("Expected 3 affected rows, got %d", affected)
	}

	rows, err := db.ExecuteQuery("SELECT name, n FROM t WHERE n >= ? ORDER BY n", 2)
	if err != nil {
		t.Fatalf("Failed to query rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0]["name"] != "b" {
		t.Errorf("Expected first name to be 'b', got '%v'", rows[0]["name"])
	}
}

func TestExecuteManyRollsBackOnError(t *testing.T) {
	logger := createTestLogger()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO t")
	prep.ExpectExec().WithArgs("a").WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs("b").WillReturnError(errors.New("duplicate"))
	mock.ExpectRollback()

	db := NewConnectorWithDB(sqlDB, DriverMySQL, logger)
	_, err = db.ExecuteMany("INSERT INTO t (name) VALUES (?)", [][]interface{}{{"a"}, {"b"}})
	if err == nil {
		t.Fatal("Expected an error from the failing insert")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

// createTestLogger returns a logger that only reports fatal messages
func createTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}
