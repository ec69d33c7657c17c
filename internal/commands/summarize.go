package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/recon/internal/export"
	"github.com/cleared-dev/recon/internal/model"
	"github.com/cleared-dev/recon/internal/output"
	"github.com/cleared-dev/recon/internal/report"
)

type summarizeOptions struct {
	statuses   []string
	outlets    []string
	key        string
	from       string
	to         string
	categories []string
	records    bool
	format     string
}

// summaryView is the JSON/YAML shape of `recon summarize`.
type summaryView struct {
	File    string         `json:"file" yaml:"file"`
	Summary report.Summary `json:"summary" yaml:"summary"`
	Records []export.Row   `json:"records,omitempty" yaml:"records,omitempty"`
}

func newSummarizeCommand(a *app) *cobra.Command {
	var opts summarizeOptions

	cmd := &cobra.Command{
		Use:   "summarize <results.csv>",
		Short: "Summarize an exported result file, optionally filtered",
		Example: `  recon summarize exports/PRO-20250103120000-AB12.csv --status discrepancy
  recon summarize results.csv --outlet OUT02 --from 2025-01-01 --to 2025-01-31
  recon summarize results.csv --category big --category medium --records`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd, a, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&opts.statuses, "status", nil, "keep records with this status (matched, discrepancy)")
	flags.StringSliceVar(&opts.outlets, "outlet", nil, "keep records for this outlet code")
	flags.StringVar(&opts.key, "key", "", "keep records whose transaction key contains this text")
	flags.StringVar(&opts.from, "from", "", "first day to keep (YYYY-MM-DD)")
	flags.StringVar(&opts.to, "to", "", "last day to keep (YYYY-MM-DD)")
	flags.StringSliceVar(&opts.categories, "category", nil, "keep records in this category (valid, rounding, small, medium, big, missing)")
	flags.BoolVar(&opts.records, "records", false, "also list the matching records")
	flags.StringVarP(&opts.format, "format", "f", "", "output format (table, json, yaml)")

	return cmd
}

func runSummarize(cmd *cobra.Command, a *app, path string, opts summarizeOptions) error {
	format, err := a.format(opts.format, nil)
	if err != nil {
		return err
	}
	filter, err := buildFilter(opts)
	if err != nil {
		return err
	}

	records, err := export.ReadFile(path)
	if err != nil {
		return err
	}
	kept := filter.Apply(records)
	summary := report.Summarize(kept)
	a.log.Debug().Str("file", path).Int("read", len(records)).Int("kept", len(kept)).Msg("summarized")

	w := cmd.OutOrStdout()
	if format != output.FormatTable {
		view := summaryView{File: path, Summary: summary}
		if opts.records {
			view.Records = export.Flatten(kept)
		}
		return output.NewFormatter(format).Format(w, view)
	}

	table := output.NewFormatter(output.FormatTable)
	if opts.records {
		if err := table.Format(w, report.Records(kept)); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return table.Format(w, summary)
}

func buildFilter(opts summarizeOptions) (report.Filter, error) {
	f := report.Filter{
		Outlets:     opts.outlets,
		KeyContains: opts.key,
	}
	for _, s := range opts.statuses {
		st, err := model.ParseStatus(output.Title(strings.ToLower(strings.TrimSpace(s))))
		if err != nil {
			return f, err
		}
		f.Statuses = append(f.Statuses, st)
	}
	for _, s := range opts.categories {
		c, err := parseCategoryFlag(s)
		if err != nil {
			return f, err
		}
		f.Categories = append(f.Categories, c)
	}

	var err error
	if f.From, err = parseDay("--from", opts.from); err != nil {
		return f, err
	}
	if f.To, err = parseDay("--to", opts.to); err != nil {
		return f, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, fmt.Errorf("--to %s is before --from %s", opts.to, opts.from)
	}
	return f, nil
}

// parseCategoryFlag accepts a full label or its first word, case-insensitively.
func parseCategoryFlag(s string) (model.Category, error) {
	s = strings.TrimSpace(s)
	if c, err := model.ParseCategory(s); err == nil {
		return c, nil
	}
	for _, c := range model.Categories() {
		word, _, _ := strings.Cut(c.String(), " ")
		if strings.EqualFold(s, word) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q (want valid, rounding, small, medium, big or missing)", s)
}

func parseDay(flag, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q (want YYYY-MM-DD)", flag, s)
	}
	return t, nil
}
