// Package predictor narrows a cutoff table to the programmes a student could
// be admitted to and orders them for display.
package predictor

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/josaa-predictor/internal/classify"
	"github.com/vitebski/josaa-predictor/internal/config"
	"github.com/vitebski/josaa-predictor/internal/loader"
	"github.com/vitebski/josaa-predictor/internal/ordering"
	"github.com/vitebski/josaa-predictor/pkg/models"
)

const (
	// DefaultTopN is the number of headline results
	DefaultTopN = 5
	// DefaultHighlightWithin is the largest rank difference shown as a near miss
	DefaultHighlightWithin = 50
)

// ErrInvalidCriteria is returned for a query that cannot be run as given
var ErrInvalidCriteria = errors.New("invalid criteria")

// Predictor filters and ranks cutoff records
type Predictor struct {
	Classifier      *classify.Classifier
	Priority        *ordering.Order
	Prestige        *ordering.Order
	HighlightWithin int
	Logger          *logrus.Logger
}

// NewPredictor builds a predictor from the preference tables
func NewPredictor(prefs *config.Preferences, logger *logrus.Logger) (*Predictor, error) {
	prestige, err := ordering.MergeChains(prefs.Prestige)
	if err != nil {
		return nil, err
	}

	return &Predictor{
		Classifier:      classify.NewClassifier(prefs),
		Priority:        ordering.NewOrder(prefs.PriorityBranches),
		Prestige:        prestige,
		HighlightWithin: DefaultHighlightWithin,
		Logger:          logger,
	}, nil
}

// Validate rejects criteria that cannot be run. A query must pick exactly one
// preference mode; an explicit list must name at least one branch.
func Validate(c models.Criteria) error {
	if c.Rank < 1 {
		return fmt.Errorf("%w: rank must be a positive integer, got %d", ErrInvalidCriteria, c.Rank)
	}

	switch pref := c.Preference.(type) {
	case nil:
		return fmt.Errorf("%w: choose a branch preference or the default order", ErrInvalidCriteria)
	case models.ExplicitList:
		return validateBranches(pref.Branches)
	case *models.ExplicitList:
		if pref == nil {
			return fmt.Errorf("%w: choose a branch preference or the default order", ErrInvalidCriteria)
		}
		return validateBranches(pref.Branches)
	case models.DefaultOrder, *models.DefaultOrder:
		return nil
	default:
		return fmt.Errorf("%w: unsupported preference %T", ErrInvalidCriteria, pref)
	}
}

func validateBranches(branches []string) error {
	for _, b := range branches {
		if strings.TrimSpace(b) != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: branch preference list is empty", ErrInvalidCriteria)
}

// Eligible reports whether the student's rank is within the record's closing
// rank and the seat type and gender match
func Eligible(r models.Record, c models.Criteria) bool {
	return r.ClosingRank >= c.Rank &&
		classify.Fold(r.SeatType) == classify.Fold(c.SeatType) &&
		classify.Fold(r.Gender) == classify.Fold(c.Gender)
}

// Run loads category from source and filters it. Criteria are validated
// before loading; loader errors are returned unchanged.
func (p *Predictor) Run(source loader.Source, category models.CollegeCategory, c models.Criteria) ([]models.Result, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}

	records, err := source.Load(category)
	if err != nil {
		return nil, err
	}

	return p.FilterAndRank(records, c)
}

// FilterAndRank returns the eligible records in presentation order. records
// is never modified; an empty result is not an error.
func (p *Predictor) FilterAndRank(records []models.Record, c models.Criteria) ([]models.Result, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}

	log := p.Logger.WithField("query_id", uuid.NewString())

	eligible := make([]models.Record, 0, len(records))
	for _, r := range records {
		if Eligible(r, c) {
			eligible = append(eligible, r)
		}
	}
	log.Debugf("%d of %d records eligible for rank %d (%s, %s)", len(eligible), len(records), c.Rank, c.SeatType, c.Gender)

	if c.RestrictMainstream && len(eligible) > 0 {
		eligible = keep(eligible, func(r models.Record) bool {
			return p.Classifier.IsMainstream(r.Institute, r.Branch)
		})
		log.Debugf("%d records left on mainstream branches", len(eligible))
	}

	if !c.IncludeFiveYear {
		eligible = keep(eligible, func(r models.Record) bool {
			return !p.Classifier.IsNonStandardDuration(r.Branch)
		})
		log.Debugf("%d records left after excluding non-standard durations", len(eligible))
	}

	var results []models.Result
	if branches, ok := explicitBranches(c.Preference); ok {
		wanted := make(map[string]bool, len(branches))
		for _, b := range branches {
			wanted[classify.Fold(b)] = true
		}
		eligible = keep(eligible, func(r models.Record) bool {
			return wanted[classify.Fold(r.Branch)]
		})

		results = p.annotate(eligible, c.Rank)
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].RankDifference < results[j].RankDifference
		})
	} else {
		results = p.annotate(p.defaultOrder(eligible), c.Rank)
	}

	log.Debugf("%d results", len(results))
	return results, nil
}

// defaultOrder places priority branches first, by branch priority then
// institute prestige, followed by the rest by ascending closing rank
func (p *Predictor) defaultOrder(records []models.Record) []models.Record {
	var priority, rest []models.Record
	for _, r := range records {
		if _, ok := p.Priority.Position(r.Branch); ok {
			priority = append(priority, r)
		} else {
			rest = append(rest, r)
		}
	}

	sort.SliceStable(priority, func(i, j int) bool {
		bi, bj := p.Priority.Rank(priority[i].Branch), p.Priority.Rank(priority[j].Branch)
		if bi != bj {
			return bi < bj
		}
		return p.Prestige.Rank(priority[i].Institute) < p.Prestige.Rank(priority[j].Institute)
	})
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].ClosingRank < rest[j].ClosingRank
	})

	return append(priority, rest...)
}

func (p *Predictor) annotate(records []models.Record, rank int) []models.Result {
	results := make([]models.Result, len(records))
	for i, r := range records {
		diff := r.ClosingRank - rank
		if diff < 0 {
			diff = -diff
		}
		results[i] = models.Result{
			Record:         r,
			RankDifference: diff,
			Highlight:      diff <= p.HighlightWithin,
		}
	}
	return results
}

// TopN returns the first n results, or all of them when there are fewer. The
// returned slice has no spare capacity, so appending to it cannot overwrite
// the rest of results.
func TopN(results []models.Result, n int) []models.Result {
	if n < 0 {
		n = 0
	}
	if n > len(results) {
		n = len(results)
	}
	return results[:n:n]
}

func explicitBranches(pref models.Preference) ([]string, bool) {
	switch p := pref.(type) {
	case models.ExplicitList:
		return p.Branches, true
	case *models.ExplicitList:
		return p.Branches, true
	}
	return nil, false
}

func keep(records []models.Record, pred func(models.Record) bool) []models.Record {
	out := records[:0:0]
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}
