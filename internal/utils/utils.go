package utils

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/josaa-predictor/pkg/models"
)

// SetupLogging configures the logging system. Logs go to stderr; stdout is
// reserved for tables and exported data.
func SetupLogging(logLevel string) *logrus.Logger {
	logger := logrus.New()

	// Get log level from environment variable or parameter
	levelStr := logLevel
	if levelStr == "" {
		levelStr = GetEnvOrDefault("PREDICTOR_LOG_LEVEL", "info")
	}

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stderr)

	logger.Debugf("Logging configured with level: %s", level)
	return logger
}

// LoadEnvironmentVariables loads environment variables from .env file and
// reports whether a file was loaded. Nothing is required: every setting has
// a flag and a default.
func LoadEnvironmentVariables(envFile string, logger *logrus.Logger) bool {
	// Check if a sample .env file exists but not the actual .env file
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		sampleEnvFile := envFile + ".sample"
		if _, err := os.Stat(sampleEnvFile); err == nil {
			logger.Infof("No %s file found, but %s exists. Consider copying %s to %s and updating it.",
				envFile, sampleEnvFile, sampleEnvFile, envFile)
		}
	}

	loaded := false
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			logger.Warningf("Error loading %s file: %v", envFile, err)
		} else {
			logger.Debugf("Loaded environment variables from %s", envFile)
			loaded = true
		}
	} else {
		logger.Debugf("No %s file found, using existing environment variables", envFile)
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		for _, env := range os.Environ() {
			if !strings.HasPrefix(env, "PREDICTOR_") && !strings.HasPrefix(env, "MYSQL_") {
				continue
			}
			parts := strings.SplitN(env, "=", 2)
			if len(parts) != 2 {
				continue
			}
			if parts[0] == "MYSQL_PASSWORD" {
				logger.Debugf("%s=********", parts[0])
			} else {
				logger.Debugf("%s=%s", parts[0], parts[1])
			}
		}
	}

	return loaded
}

// GetEnvOrDefault gets an environment variable or returns a default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer value from environment variable
func GetEnvInt(varName string, defaultValue int) int {
	value := os.Getenv(varName)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// ValidateConnectionParams validates MySQL connection parameters
func ValidateConnectionParams(host, user, password, database, port string, logger *logrus.Logger) bool {
	if host == "" {
		logger.Error("Database host is required")
		return false
	}

	if user == "" {
		logger.Error("Database user is required")
		return false
	}

	if password == "" { // Empty password is allowed
		logger.Warning("Database password is empty")
	}

	if database == "" {
		logger.Error("Database name is required")
		return false
	}

	if _, err := strconv.Atoi(port); err != nil {
		logger.Errorf("Invalid port number: %s", port)
		return false
	}

	return true
}

// DescribePreference renders a preference for banners and logs
func DescribePreference(pref models.Preference) string {
	switch p := pref.(type) {
	case models.ExplicitList:
		return strings.Join(p.Branches, ", ")
	case *models.ExplicitList:
		if p != nil {
			return strings.Join(p.Branches, ", ")
		}
	case models.DefaultOrder, *models.DefaultOrder:
		return "default order"
	}
	return "none"
}

// PrintQuerySummary prints the criteria of a query and how many results it found
func PrintQuerySummary(w io.Writer, category models.CollegeCategory, c models.Criteria, matches int) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 50))
	fmt.Fprintf(w, "%s PREDICTION\n", category)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "Rank: %d\n", c.Rank)
	fmt.Fprintf(w, "Seat type: %s\n", c.SeatType)
	fmt.Fprintf(w, "Gender: %s\n", c.Gender)
	fmt.Fprintf(w, "Branches: %s\n", DescribePreference(c.Preference))
	if c.RestrictMainstream {
		fmt.Fprintln(w, "Mainstream branches only")
	}
	if c.IncludeFiveYear {
		fmt.Fprintln(w, "Including 5-year programmes")
	}
	fmt.Fprintf(w, "Matching options: %d\n", matches)
	fmt.Fprintln(w, strings.Repeat("=", 50))
}

// PrintImportResults prints the outcome of an import into the cutoffs table
func PrintImportResults(w io.Writer, category models.CollegeCategory, table string, inserted int, stored int64) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 50))
	fmt.Fprintln(w, "CUTOFF IMPORT RESULTS")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "Category: %s\n", category)
	fmt.Fprintf(w, "Table: %s\n", table)
	fmt.Fprintf(w, "Rows inserted: %d\n", inserted)
	fmt.Fprintf(w, "Rows stored for %s: %d\n", category, stored)

	if stored >= int64(inserted) && inserted > 0 {
		fmt.Fprintln(w, "✅ Import complete")
	} else {
		fmt.Fprintln(w, "⚠️  Stored row count does not cover the import")
	}
	fmt.Fprintln(w, strings.Repeat("=", 50))
}
