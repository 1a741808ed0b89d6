package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vitebski/josaa-predictor/internal/generator"
	"github.com/vitebski/josaa-predictor/internal/loader"
	"github.com/vitebski/josaa-predictor/internal/populator"
	"github.com/vitebski/josaa-predictor/internal/predictor"
	"github.com/vitebski/josaa-predictor/internal/report"
	"github.com/vitebski/josaa-predictor/internal/utils"
	"github.com/vitebski/josaa-predictor/pkg/models"
)

func newPredictCommand(a *app) *cobra.Command {
	q := &queryOptions{}
	var exportPath string
	var topOnly bool

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "List the programmes a rank qualifies for",
		Example: `  josaa-predictor predict --college IIT --rank 2500 --default-order
  josaa-predictor predict -c NIT -r 15000 -s OBC-NCL -b "Computer Science and Engineering" -b "Electrical Engineering"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.runQuery(cmd, q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			report.PrintOverview(out, res.category, res.records)
			utils.PrintQuerySummary(out, res.category, res.criteria, len(res.results))

			if len(res.results) == 0 {
				report.PrintNoMatches(out)
				return nil
			}

			report.PrintMostLikely(out, res.results, res.criteria.Rank)
			top := predictor.TopN(res.results, q.top)
			report.PrintResults(out, fmt.Sprintf("Top %d options", len(top)), top)
			if !topOnly {
				report.PrintResults(out, "All eligible options", res.results)
			}

			if exportPath != "" {
				data, err := report.ToExportable(res.results)
				if err != nil {
					return err
				}
				if err := os.WriteFile(exportPath, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", exportPath, err)
				}
				a.logger.Infof("Wrote %d options to %s", len(res.results), exportPath)
			}
			return nil
		},
	}

	q.register(cmd)
	cmd.Flags().StringVarP(&exportPath, "export", "o", "", "Also write all options to this CSV file")
	cmd.Flags().BoolVar(&topOnly, "top-only", false, "Print only the headline options")
	return cmd
}

func newSummaryCommand(a *app) *cobra.Command {
	q := &queryOptions{}
	var format string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize eligible options per institute and branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q, expected table or json", format)
			}

			res, err := a.runQuery(cmd, q)
			if err != nil {
				return err
			}

			summary := report.Summarize(res.results)
			if format == "json" {
				return report.WriteSummaryJSON(cmd.OutOrStdout(), summary)
			}
			report.PrintSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	q.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table or json")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	q := &queryOptions{}
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write eligible options as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.runQuery(cmd, q)
			if err != nil {
				return err
			}

			if outPath == "" || outPath == "-" {
				return report.WriteExport(cmd.OutOrStdout(), res.results)
			}

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := report.WriteExport(f, res.results); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.logger.Infof("Wrote %d options to %s", len(res.results), outPath)
			return nil
		},
	}

	q.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default: stdout)")
	return cmd
}

func newGenerateCommand(a *app) *cobra.Command {
	var (
		college    string
		outDir     string
		seed       int64
		institutes int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write synthetic cutoff CSV files for demos and tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := parseCategories(college)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = a.dataDir
			}

			g := generator.NewCutoffGenerator(a.prefs, seed, a.logger)
			if institutes > 0 {
				g.Institutes = institutes
			}

			for _, category := range categories {
				rows, err := g.WriteCategory(outDir, category)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Generated %d %s rows in %s\n", rows, category, outDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&college, "college", "c", "all", "College category: IIT, NIT, IIIT or all")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory to write to (default: --data-dir)")
	cmd.Flags().Int64Var(&seed, "seed", generator.DefaultSeed, "Random seed")
	cmd.Flags().IntVar(&institutes, "institutes", generator.DefaultInstitutes, "Institutes per category")
	return cmd
}

func newImportCommand(a *app) *cobra.Command {
	var (
		college string
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load cutoff CSV files into the MySQL or SQLite cutoffs table",
		Example: `  josaa-predictor import --source sqlite --sqlite-path cutoffs.db --college all --replace
  josaa-predictor import --source mysql -d josaa -c NIT
  josaa-predictor import --source sqlite --file nit_2024.csv -c NIT`,
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := parseCategories(college)
			if err != nil {
				return err
			}
			if a.file != "" && len(categories) != 1 {
				return fmt.Errorf("--file holds a single college category, choose one with --college instead of %q", college)
			}

			db, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer db.Disconnect()

			source := a.csvSource()
			p := populator.NewCutoffPopulator(db, "", a.logger)
			for _, category := range categories {
				inserted, err := p.Import(source, category, replace)
				if err != nil {
					return fmt.Errorf("importing %s: %w", category, err)
				}
				stored, err := p.CountCategory(category)
				if err != nil {
					return err
				}
				utils.PrintImportResults(cmd.OutOrStdout(), category, p.Table, inserted, stored)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&college, "college", "c", "all", "College category: IIT, NIT, IIIT or all (one category with --file)")
	cmd.Flags().BoolVar(&replace, "replace", false, "Delete the category's stored rows before importing")
	return cmd
}

// parseCategories resolves a category name, or "all" for every category
func parseCategories(value string) ([]models.CollegeCategory, error) {
	if strings.EqualFold(strings.TrimSpace(value), "all") {
		return []models.CollegeCategory{models.IIT, models.NIT, models.IIIT}, nil
	}

	category, err := loader.ParseCategory(value)
	if err != nil {
		return nil, err
	}
	return []models.CollegeCategory{category}, nil
}
