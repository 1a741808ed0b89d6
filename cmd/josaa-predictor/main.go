package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vitebski/josaa-predictor/internal/config"
	"github.com/vitebski/josaa-predictor/internal/connector"
	"github.com/vitebski/josaa-predictor/internal/loader"
	"github.com/vitebski/josaa-predictor/internal/utils"
)

const (
	sourceCSV    = "csv"
	sourceMySQL  = "mysql"
	sourceSQLite = "sqlite"
)

// app holds the settings shared by every subcommand
type app struct {
	envFile    string
	logLevel   string
	prefsPath  string
	dataDir    string
	file       string
	source     string
	sqlitePath string
	host       string
	user       string
	password   string
	database   string
	port       string

	logger *logrus.Logger
	prefs  *config.Preferences
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "josaa-predictor",
		Short: "Find the JoSAA programmes a rank can get into",
		Long: `JoSAA College Predictor

Filters last year's JoSAA opening and closing ranks down to the programmes a
student's rank, seat type and gender qualify for, and orders them by branch
preference or by closeness to the student's rank.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.envFile, "env-file", "e", ".env", "Path to .env file")
	flags.StringVarP(&a.logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.prefsPath, "preferences", "", "YAML file overriding the branch and institute preference tables")
	flags.StringVar(&a.dataDir, "data-dir", "", "Directory holding the per-category cutoff CSV files (default: ./data)")
	flags.StringVar(&a.file, "file", "", "Single cutoff CSV file to use instead of --data-dir")
	flags.StringVar(&a.source, "source", sourceCSV, "Where cutoffs are read from: csv, mysql or sqlite")
	flags.StringVar(&a.sqlitePath, "sqlite-path", "", "SQLite database file (default: cutoffs.db)")
	flags.StringVarP(&a.host, "host", "H", "", "MySQL host (default: localhost)")
	flags.StringVarP(&a.user, "user", "u", "", "MySQL user (default: root)")
	flags.StringVarP(&a.password, "password", "p", "", "MySQL password")
	flags.StringVarP(&a.database, "database", "d", "", "MySQL database name")
	flags.StringVarP(&a.port, "port", "P", "", "MySQL port (default: 3306)")

	rootCmd.AddCommand(
		newPredictCommand(a),
		newSummaryCommand(a),
		newExportCommand(a),
		newGenerateCommand(a),
		newImportCommand(a),
	)

	return rootCmd
}

// setup configures logging, the environment and the preference tables
func (a *app) setup() error {
	a.logger = utils.SetupLogging(a.logLevel)
	utils.LoadEnvironmentVariables(a.envFile, a.logger)
	if a.logLevel == "" {
		// the .env file may set PREDICTOR_LOG_LEVEL
		a.logger = utils.SetupLogging("")
	}

	if a.dataDir == "" {
		a.dataDir = utils.GetEnvOrDefault("PREDICTOR_DATA_DIR", "./data")
	}
	if a.prefsPath == "" {
		a.prefsPath = os.Getenv("PREDICTOR_PREFERENCES")
	}

	prefs, err := config.Load(a.prefsPath)
	if err != nil {
		return err
	}
	a.prefs = prefs
	return nil
}

// csvSource returns the CSV source selected by --file or --data-dir
func (a *app) csvSource() loader.Source {
	if a.file != "" {
		return loader.NewFileSource(a.file, a.logger)
	}
	return loader.NewCSVSource(a.dataDir, a.logger)
}

// openDatabase connects to the database selected by --source
func (a *app) openDatabase() (*connector.DatabaseConnector, error) {
	var db *connector.DatabaseConnector
	switch a.source {
	case sourceMySQL:
		db = connector.NewDatabaseConnector(a.host, a.user, a.password, a.database, a.port, a.logger)
		if !utils.ValidateConnectionParams(db.Host, db.User, db.Password, db.Database, db.Port, a.logger) {
			return nil, fmt.Errorf("invalid MySQL connection parameters")
		}
	case sourceSQLite:
		db = connector.NewSQLiteConnector(a.sqlitePath, a.logger)
	default:
		return nil, fmt.Errorf("source %q is not a database, use --source mysql or --source sqlite", a.source)
	}

	if err := db.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// recordSource returns the source for queries and a function releasing it
func (a *app) recordSource() (loader.Source, func(), error) {
	switch a.source {
	case sourceCSV, "":
		return a.csvSource(), func() {}, nil
	case sourceMySQL, sourceSQLite:
		db, err := a.openDatabase()
		if err != nil {
			return nil, nil, err
		}
		return loader.NewDBSource(db, "", a.logger), db.Disconnect, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q, expected csv, mysql or sqlite", a.source)
	}
}
