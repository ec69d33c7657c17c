package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/recon/internal/export"
	"github.com/cleared-dev/recon/internal/importer"
	"github.com/cleared-dev/recon/internal/output"
	"github.com/cleared-dev/recon/internal/review"
)

type batchOptions struct {
	mapSource    []string
	mapReference []string
	format       string
	out          string
	workers      int
	noRecalc     bool
	keep         bool
}

// batchResult is one upload's line in the batch report.
type batchResult struct {
	File          string `json:"file" yaml:"file"`
	RunID         string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Records       int    `json:"records" yaml:"records"`
	Matched       int    `json:"matched" yaml:"matched"`
	Discrepancy   int    `json:"discrepancy" yaml:"discrepancy"`
	ValidationPct string `json:"validation_pct,omitempty" yaml:"validation_pct,omitempty"`
	Export        string `json:"export,omitempty" yaml:"export,omitempty"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}

type batchReport []batchResult

func (b batchReport) Table() output.Data {
	d := output.Data{
		Headers: []string{"file", "run_id", "records", "matched", "discrepancy", "validation_%", "status"},
		Right:   []int{2, 3, 4, 5},
	}
	for _, r := range b {
		status := "ok"
		if r.Error != "" {
			status = r.Error
		}
		d.Rows = append(d.Rows, []string{
			r.File,
			r.RunID,
			strconv.Itoa(r.Records),
			strconv.Itoa(r.Matched),
			strconv.Itoa(r.Discrepancy),
			r.ValidationPct,
			status,
		})
	}
	return d
}

func newBatchCommand(a *app) *cobra.Command {
	var opts batchOptions

	cmd := &cobra.Command{
		Use:   "batch <workflow> <reference-file>",
		Short: "Reconcile every upload in import/ against one reference",
		Long: `Reconcile every csv/xlsx upload in the project's import/ directory
against one reference upload. Each upload is exported under its own run ID
and moved to import/processed/ once it succeeds.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, a, args[0], args[1], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&opts.mapSource, "map-source", nil, "map a source column to a required field (column=field)")
	flags.StringArrayVar(&opts.mapReference, "map-reference", nil, "map a reference column to a required field (column=field)")
	flags.StringVarP(&opts.format, "format", "f", "", "output format (table, json, yaml)")
	flags.StringVarP(&opts.out, "out", "o", "", "export directory (default from recon.yaml)")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "uploads reconciled in parallel (default RECON_WORKERS or 4)")
	flags.BoolVar(&opts.noRecalc, "no-recalc", false, "skip the recalculation pass")
	flags.BoolVar(&opts.keep, "keep", false, "leave uploads in import/ after a successful run")

	return cmd
}

func runBatch(cmd *cobra.Command, a *app, workflow, referencePath string, opts batchOptions) error {
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
	srcMap, err := parseMapping(opts.mapSource)
	if err != nil {
		return err
	}
	refMap, err := parseMapping(opts.mapReference)
	if err != nil {
		return err
	}

	uploads, err := importer.Scan(a.settings.Dir, importer.DefaultRegistry())
	if err != nil {
		return err
	}
	refAbs, _ := filepath.Abs(referencePath)
	pending := uploads[:0]
	for _, u := range uploads {
		if abs, _ := filepath.Abs(u.Path); abs == refAbs {
			continue
		}
		pending = append(pending, u)
	}
	if len(pending) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No uploads in %s\n", importer.ImportDir(a.settings.Dir))
		return nil
	}

	workers := opts.workers
	if workers <= 0 {
		workers = a.settings.Workers
	}
	if workers <= 0 {
		workers = 1
	}

	svc := review.NewService(importer.NewFileLoader(), nil)
	outDir := a.outDir(opts.out, cfg)
	results := make(batchReport, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, u := range pending {
		g.Go(func() error {
			res := batchResult{File: u.Name}
			defer func() { results[i] = res }()

			out, err := svc.Run(gctx, review.Request{
				Workflow:         w,
				SourcePath:       u.Path,
				ReferencePath:    referencePath,
				SourceMapping:    srcMap,
				ReferenceMapping: refMap,
				NoRecalculate:    opts.noRecalc,
			})
			if err != nil {
				a.log.Warn().Err(err).Str("file", u.Name).Msg("upload failed")
				res.Error = err.Error()
				return nil
			}
			res.RunID = out.RunID
			res.Records = out.Primary.Total
			res.Matched = out.Primary.Matched
			res.Discrepancy = out.Primary.Discrepancy
			res.ValidationPct = out.Primary.ValidationPct.StringFixed(2)

			files, err := export.SaveRun(outDir, out.RunID, out.Result.Primary, out.Result.Recalculated)
			if err != nil {
				res.Error = err.Error()
				return nil
			}
			res.Export = files.Primary

			if !opts.keep {
				if err := importer.MarkProcessed(a.settings.Dir, u.Name); err != nil {
					res.Error = err.Error()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := output.NewFormatter(format).Format(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	a.log.Info().Int("uploads", len(results)).Int("failed", failed).Msg("batch finished")
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(results))
	}
	return nil
}
