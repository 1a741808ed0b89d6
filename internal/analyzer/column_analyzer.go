package analyzer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrMissingColumns is returned when a required field has no source column
var ErrMissingColumns = errors.New("missing required columns")

// Field is a canonical column of the normalized cutoff table
type Field string

const (
	FieldInstitute   Field = "institute"
	FieldBranch      Field = "branch"
	FieldSeatType    Field = "seat_type"
	FieldGender      Field = "gender"
	FieldOpeningRank Field = "opening_rank"
	FieldClosingRank Field = "closing_rank"
	FieldCategory    Field = "category"
)

// RequiredFields must all be present in every source
var RequiredFields = []Field{
	FieldInstitute,
	FieldBranch,
	FieldSeatType,
	FieldGender,
	FieldOpeningRank,
	FieldClosingRank,
}

// DefaultAliases maps harmonized source headers to canonical fields
var DefaultAliases = map[string]Field{
	"institute":             FieldInstitute,
	"institute name":        FieldInstitute,
	"institution":           FieldInstitute,
	"college":               FieldInstitute,
	"academic program name": FieldBranch,
	"program":               FieldBranch,
	"program name":          FieldBranch,
	"branch":                FieldBranch,
	"course":                FieldBranch,
	"seat type":             FieldSeatType,
	"gender":                FieldGender,
	"opening rank":          FieldOpeningRank,
	"closing rank":          FieldClosingRank,
	"category":              FieldCategory,
}

// ColumnMap locates each canonical field among the source columns
type ColumnMap map[Field]int

// ColumnAnalyzer harmonizes heterogeneous source headers onto the canonical fields
type ColumnAnalyzer struct {
	Aliases map[string]Field
	Logger  *logrus.Logger
}

// NewColumnAnalyzer creates a column analyzer with the default aliases
func NewColumnAnalyzer(logger *logrus.Logger) *ColumnAnalyzer {
	return &ColumnAnalyzer{
		Aliases: DefaultAliases,
		Logger:  logger,
	}
}

// HarmonizeHeader lower-cases a header, drops a byte order mark and treats
// underscores, hyphens and repeated spaces as single spaces
func HarmonizeHeader(header string) string {
	header = strings.TrimPrefix(header, "\ufeff")
	header = strings.ToLower(header)
	header = strings.NewReplacer("_", " ", "-", " ").Replace(header)
	return strings.Join(strings.Fields(header), " ")
}

// MapColumns resolves the canonical fields among headers. The first header
// mapping to a field wins; unknown headers are ignored.
func (ca *ColumnAnalyzer) MapColumns(headers []string) (ColumnMap, error) {
	columns := make(ColumnMap)

	for i, header := range headers {
		field, ok := ca.Aliases[HarmonizeHeader(header)]
		if !ok {
			ca.Logger.Debugf("Ignoring unmapped column: %q", header)
			continue
		}
		if prev, exists := columns[field]; exists {
			ca.Logger.Debugf("Column %q also maps to %s, keeping %q", header, field, headers[prev])
			continue
		}
		columns[field] = i
	}

	var missing []string
	for _, field := range RequiredFields {
		if _, ok := columns[field]; !ok {
			missing = append(missing, string(field))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return columns, nil
}

// ParseRank coerces a rank cell to a positive integer. Integral floats such
// as "123.0" are accepted; anything else, including suffixed ranks like
// "123P", is rejected.
func ParseRank(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(value); err == nil {
		return n, n > 0
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < 1 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
