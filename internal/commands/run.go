package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/recon/internal/config"
	"github.com/cleared-dev/recon/internal/export"
	"github.com/cleared-dev/recon/internal/importer"
	"github.com/cleared-dev/recon/internal/insight"
	"github.com/cleared-dev/recon/internal/output"
	"github.com/cleared-dev/recon/internal/report"
	"github.com/cleared-dev/recon/internal/review"
	"github.com/cleared-dev/recon/internal/schema"
)

var _ review.Narrator = (*insight.GeminiNarrator)(nil)

type runOptions struct {
	mapSource    []string
	mapReference []string
	format       string
	out          string
	noExport     bool
	noRecalc     bool
	analyze      bool
	saveMapping  bool
	noInput      bool
}

func newRunCommand(a *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <workflow> <source-file> <reference-file>",
		Short: "Reconcile one source upload against a reference upload",
		Long: `Reconcile one source upload (csv or xlsx) against a reference upload.

Columns the workflow requires but the upload lacks can be mapped with
--map-source / --map-reference column=field. On a terminal, recon asks
for any mapping still missing.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, a, args[0], args[1], args[2], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&opts.mapSource, "map-source", nil, "map a source column to a required field (column=field)")
	flags.StringArrayVar(&opts.mapReference, "map-reference", nil, "map a reference column to a required field (column=field)")
	flags.StringVarP(&opts.format, "format", "f", "", "output format (table, json, yaml)")
	flags.StringVarP(&opts.out, "out", "o", "", "export directory (default from recon.yaml)")
	flags.BoolVar(&opts.noExport, "no-export", false, "do not write CSV/XLSX results")
	flags.BoolVar(&opts.noRecalc, "no-recalc", false, "skip the recalculation pass")
	flags.BoolVar(&opts.analyze, "analyze", false, "ask Gemini for a written analysis")
	flags.BoolVar(&opts.saveMapping, "save-mapping", false, "remember the mappings used in recon.yaml")
	flags.BoolVar(&opts.noInput, "no-input", false, "never prompt for column mappings")

	return cmd
}

func runRun(cmd *cobra.Command, a *app, workflow, sourcePath, referencePath string, opts runOptions) error {
	ctx := cmd.Context()

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	w, err := cfg.Workflow(workflow)
	if err != nil {
		return err
	}
	format, err := a.format(opts.format, cfg)
	if err != nil {
		return err
	}

	req := review.Request{
		Workflow:      w,
		SourcePath:    sourcePath,
		ReferencePath: referencePath,
		NoRecalculate: opts.noRecalc,
		Analyze:       opts.analyze,
	}
	if req.SourceMapping, err = parseMapping(opts.mapSource); err != nil {
		return err
	}
	if req.ReferenceMapping, err = parseMapping(opts.mapReference); err != nil {
		return err
	}

	svc, err := a.newService(ctx, cfg, opts.analyze)
	if err != nil {
		return err
	}

	prompt := !opts.noInput && interactive()
	out, err := runWithMappings(ctx, svc, &req, prompt, cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if opts.saveMapping {
		if err := saveMappings(a, cfg, req); err != nil {
			return err
		}
	}

	var files export.Files
	if !opts.noExport {
		files, err = export.SaveRun(a.outDir(opts.out, cfg), out.RunID, out.Result.Primary, out.Result.Recalculated)
		if err != nil {
			return err
		}
		a.log.Info().
			Str("run_id", out.RunID).
			Str("csv", files.Primary).
			Str("xlsx", files.Workbook).
			Msg("results exported")
	}

	if out.AnalysisError != "" {
		a.log.Warn().Str("run_id", out.RunID).Msg("analysis unavailable: " + out.AnalysisError)
	}
	return printOutcome(cmd.OutOrStdout(), format, out)
}

func (a *app) newService(ctx context.Context, cfg *config.Config, analyze bool) (*review.Service, error) {
	var narrator review.Narrator
	if analyze {
		n, err := insight.NewGeminiNarrator(ctx, a.settings.GeminiAPIKey, cfg.Insight.Model, cfg.Insight.Temperature)
		if err != nil {
			return nil, err
		}
		narrator = n
	}
	return review.NewService(importer.NewFileLoader(), narrator), nil
}

// runWithMappings runs req, asking for missing column mappings when prompt is
// set. Answers are added to req so callers can persist them.
func runWithMappings(ctx context.Context, svc *review.Service, req *review.Request, prompt bool, in io.Reader, promptOut io.Writer) (*review.Outcome, error) {
	reader := bufio.NewReader(in)
	for {
		out, err := svc.Run(ctx, *req)
		var incomplete *schema.IncompleteMappingError
		if !errors.As(err, &incomplete) {
			return out, err
		}

		source := incomplete.Request.Side == req.Workflow.Source.Side
		flag := "--map-reference"
		if source {
			flag = "--map-source"
		}
		if !prompt {
			return nil, fmt.Errorf("%w\n%s", err, mappingHint(incomplete.Request, flag))
		}
		for _, p := range incomplete.Problems {
			fmt.Fprintln(promptOut, p)
		}

		m, perr := promptMapping(reader, promptOut, incomplete.Request)
		if perr != nil {
			return nil, perr
		}
		if source {
			req.SourceMapping = withMapping(req.SourceMapping, m)
		} else {
			req.ReferenceMapping = withMapping(req.ReferenceMapping, m)
		}
	}
}

func withMapping(base, extra schema.Mapping) schema.Mapping {
	out := make(schema.Mapping, len(base)+len(extra))
	maps.Copy(out, base)
	maps.Copy(out, extra)
	return out
}

func saveMappings(a *app, cfg *config.Config, req review.Request) error {
	for i := range cfg.Workflows {
		w := &cfg.Workflows[i]
		if w.Name != req.Workflow.Name {
			continue
		}
		if len(req.SourceMapping) > 0 {
			w.Mappings.Source = withMapping(w.Mappings.Source, req.SourceMapping)
		}
		if len(req.ReferenceMapping) > 0 {
			w.Mappings.Reference = withMapping(w.Mappings.Reference, req.ReferenceMapping)
		}
	}
	if err := config.Save(a.settings.Path(), cfg); err != nil {
		return err
	}
	a.log.Info().Str("workflow", req.Workflow.Name).Msg("mappings saved")
	return nil
}

func printOutcome(w io.Writer, format output.Format, out *review.Outcome) error {
	if format != output.FormatTable {
		return output.NewFormatter(format).Format(w, out.Document())
	}

	table := output.NewFormatter(output.FormatTable)
	fmt.Fprintf(w, "Run %s (%s): %s vs %s\n\n", out.RunID, out.Workflow, out.Source, out.Reference)
	if err := table.Format(w, report.Records(out.Result.Primary)); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := table.Format(w, out.Primary); err != nil {
		return err
	}

	if out.Recalculated != nil {
		fmt.Fprint(w, "\nRecalculated against the reference alternate total\n\n")
		if err := table.Format(w, report.Records(out.Result.Recalculated)); err != nil {
			return err
		}
		fmt.Fprintln(w)
		if err := table.Format(w, *out.Recalculated); err != nil {
			return err
		}
	}

	if out.Analysis != "" {
		fmt.Fprintf(w, "\nAnalysis\n\n%s\n", out.Analysis)
	}
	return nil
}
