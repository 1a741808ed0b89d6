package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vitebski/josaa-predictor/internal/loader"
	"github.com/vitebski/josaa-predictor/internal/predictor"
	"github.com/vitebski/josaa-predictor/internal/utils"
	"github.com/vitebski/josaa-predictor/pkg/models"
)

// queryOptions are the criteria flags shared by predict, summary and export
type queryOptions struct {
	college         string
	rank            int
	seatType        string
	gender          string
	branches        []string
	defaultOrder    bool
	mainstream      bool
	includeFiveYear bool
	top             int
	highlightWithin int
}

func (q *queryOptions) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&q.college, "college", "c", string(models.IIT), "College category: IIT, NIT or IIIT")
	flags.IntVarP(&q.rank, "rank", "r", 0, "Student's JEE rank")
	flags.StringVarP(&q.seatType, "seat-type", "s", "OPEN", "Seat type, e.g. OPEN, EWS, OBC-NCL, SC, ST")
	flags.StringVarP(&q.gender, "gender", "g", "Gender-Neutral", "Gender pool, e.g. Gender-Neutral or Female-only (including Supernumerary)")
	flags.StringArrayVarP(&q.branches, "branch", "b", nil, "Preferred branch; repeat for several")
	flags.BoolVar(&q.defaultOrder, "default-order", false, "Order by the built-in branch priority and institute prestige")
	flags.BoolVar(&q.mainstream, "mainstream", false, "Keep only mainstream branches for the institute's class")
	flags.BoolVar(&q.includeFiveYear, "include-five-year", false, "Include dual degree, integrated and other 5-year programmes")
	flags.IntVarP(&q.top, "top", "t", predictor.DefaultTopN, "Number of headline options (env: PREDICTOR_TOP_N)")
	flags.IntVar(&q.highlightWithin, "highlight-within", predictor.DefaultHighlightWithin, "Highlight options whose closing rank is this close to the rank (env: PREDICTOR_HIGHLIGHT_WITHIN)")
}

// resolveEnv applies environment defaults to flags the user did not set
func (q *queryOptions) resolveEnv(cmd *cobra.Command) {
	if !cmd.Flags().Changed("top") {
		q.top = utils.GetEnvInt("PREDICTOR_TOP_N", q.top)
	}
	if !cmd.Flags().Changed("highlight-within") {
		q.highlightWithin = utils.GetEnvInt("PREDICTOR_HIGHLIGHT_WITHIN", q.highlightWithin)
	}
}

// criteria builds the query. Exactly one of --branch and --default-order
// picks the preference.
func (q *queryOptions) criteria() (models.Criteria, error) {
	c := models.Criteria{
		Rank:               q.rank,
		SeatType:           q.seatType,
		Gender:             q.gender,
		IncludeFiveYear:    q.includeFiveYear,
		RestrictMainstream: q.mainstream,
	}

	switch {
	case len(q.branches) > 0 && q.defaultOrder:
		return c, fmt.Errorf("%w: use either --branch or --default-order, not both", predictor.ErrInvalidCriteria)
	case len(q.branches) > 0:
		c.Preference = models.ExplicitList{Branches: q.branches}
	case q.defaultOrder:
		c.Preference = models.DefaultOrder{}
	}

	return c, predictor.Validate(c)
}

// queryResult is everything a query subcommand may print
type queryResult struct {
	category models.CollegeCategory
	criteria models.Criteria
	records  []models.Record
	results  []models.Result
}

// runQuery validates the criteria, loads the category and filters it
func (a *app) runQuery(cmd *cobra.Command, q *queryOptions) (*queryResult, error) {
	q.resolveEnv(cmd)

	category, err := loader.ParseCategory(q.college)
	if err != nil {
		return nil, err
	}

	c, err := q.criteria()
	if err != nil {
		return nil, err
	}

	p, err := predictor.NewPredictor(a.prefs, a.logger)
	if err != nil {
		return nil, err
	}
	p.HighlightWithin = q.highlightWithin

	source, release, err := a.recordSource()
	if err != nil {
		return nil, err
	}
	defer release()

	records, err := source.Load(category)
	if err != nil {
		return nil, err
	}

	results, err := p.FilterAndRank(records, c)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		a.logger.Warningf("No %s options for rank %d (%s, %s)", category, c.Rank, c.SeatType, c.Gender)
	}

	return &queryResult{
		category: category,
		criteria: c,
		records:  records,
		results:  results,
	}, nil
}
