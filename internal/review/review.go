// Package review runs a configured workflow end to end: load both uploads,
// reconcile them, summarize each pass and optionally narrate the result.
package review

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"time"

	"github.com/cleared-dev/recon/internal/aggregate"
	"github.com/cleared-dev/recon/internal/config"
	"github.com/cleared-dev/recon/internal/engine"
	"github.com/cleared-dev/recon/internal/export"
	"github.com/cleared-dev/recon/internal/id"
	"github.com/cleared-dev/recon/internal/logging"
	"github.com/cleared-dev/recon/internal/report"
	"github.com/cleared-dev/recon/internal/schema"
)

// Service orchestrates reconciliation runs.
type Service struct {
	loader   TableLoader
	narrator Narrator
	now      func() time.Time
}

// NewService creates a Service. narrator may be nil when analysis is never
// requested.
func NewService(loader TableLoader, narrator Narrator) *Service {
	return &Service{loader: loader, narrator: narrator, now: time.Now}
}

// Request describes one run.
type Request struct {
	Workflow         config.Workflow
	SourcePath       string
	ReferencePath    string
	SourceMapping    schema.Mapping // merged over the workflow's stored mapping
	ReferenceMapping schema.Mapping
	NoRecalculate    bool
	Analyze          bool
}

// Outcome is what a run produced.
type Outcome struct {
	RunID         string
	Workflow      string
	Source        string
	Reference     string
	StartedAt     time.Time
	Result        *engine.Result
	Primary       report.Summary
	Recalculated  *report.Summary
	Analysis      string
	AnalysisError string
}

// Run executes req. Structural errors from the engine are returned as is so
// callers can inspect *schema.IncompleteMappingError and retry with a mapping.
func (s *Service) Run(ctx context.Context, req Request) (*Outcome, error) {
	started := s.now()
	runID := id.NewRunID(started)
	log := logging.FromContext(ctx).With().Str("run_id", runID).Str("workflow", req.Workflow.Name).Logger()

	src, err := s.loader.Load(ctx, req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("could not load source: %w", err)
	}
	ref, err := s.loader.Load(ctx, req.ReferencePath)
	if err != nil {
		return nil, fmt.Errorf("could not load reference: %w", err)
	}

	groupBy, err := aggregate.ParseGroupBy(string(req.Workflow.GroupBy))
	if err != nil {
		return nil, err
	}

	rc := engine.Context{
		Workflow: req.Workflow.Name,
		Source: engine.Side{
			Table:   src,
			Profile: req.Workflow.Source,
			Mapping: merge(req.Workflow.Mappings.Source, req.SourceMapping),
		},
		Reference: engine.Side{
			Table:   ref,
			Profile: req.Workflow.Reference,
			Mapping: merge(req.Workflow.Mappings.Reference, req.ReferenceMapping),
		},
		GroupBy:     groupBy,
		Recalculate: req.Workflow.Recalculate && !req.NoRecalculate,
	}

	res, err := engine.New(log).Run(rc)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		RunID:     runID,
		Workflow:  req.Workflow.Name,
		Source:    filepath.Base(req.SourcePath),
		Reference: filepath.Base(req.ReferencePath),
		StartedAt: started,
		Result:    res,
		Primary:   report.Summarize(res.Primary),
	}
	if res.Recalculated != nil {
		rs := report.Summarize(res.Recalculated)
		out.Recalculated = &rs
	}

	log.Info().
		Int("records", out.Primary.Total).
		Int("matched", out.Primary.Matched).
		Int("discrepancy", out.Primary.Discrepancy).
		Dur("elapsed", s.now().Sub(started)).
		Msg("reconciled")

	if req.Analyze {
		s.narrate(ctx, out)
	}
	return out, nil
}

// narrate fills in the analysis. A failure is recorded on the outcome; the
// reconciliation itself stands.
func (s *Service) narrate(ctx context.Context, out *Outcome) {
	log := logging.FromContext(ctx)
	if s.narrator == nil {
		out.AnalysisError = "analysis is not configured"
		return
	}
	text, err := s.narrator.Narrate(ctx, out.Primary)
	if err != nil {
		log.Warn().Err(err).Str("run_id", out.RunID).Msg("analysis failed")
		out.AnalysisError = err.Error()
		return
	}
	out.Analysis = text
}

func merge(stored, override schema.Mapping) schema.Mapping {
	if len(stored) == 0 && len(override) == 0 {
		return nil
	}
	m := make(schema.Mapping, len(stored)+len(override))
	maps.Copy(m, stored)
	maps.Copy(m, override)
	return m
}

// Document is the serializable form of an Outcome used for JSON and YAML output.
type Document struct {
	RunID               string                          `json:"run_id" yaml:"run_id"`
	Workflow            string                          `json:"workflow" yaml:"workflow"`
	Source              string                          `json:"source" yaml:"source"`
	Reference           string                          `json:"reference" yaml:"reference"`
	StartedAt           string                          `json:"started_at" yaml:"started_at"`
	Coercions           map[string]schema.CoercionStats `json:"coercions" yaml:"coercions"`
	Summary             report.Summary                  `json:"summary" yaml:"summary"`
	Records             []export.Row                    `json:"records" yaml:"records"`
	RecalculatedSummary *report.Summary                 `json:"recalculated_summary,omitempty" yaml:"recalculated_summary,omitempty"`
	Recalculated        []export.Row                    `json:"recalculated,omitempty" yaml:"recalculated,omitempty"`
	Analysis            string                          `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// Document flattens o for serialization.
func (o *Outcome) Document() Document {
	d := Document{
		RunID:               o.RunID,
		Workflow:            o.Workflow,
		Source:              o.Source,
		Reference:           o.Reference,
		StartedAt:           o.StartedAt.Format(time.RFC3339),
		Coercions:           o.Result.Coercions,
		Summary:             o.Primary,
		Records:             export.Flatten(o.Result.Primary),
		RecalculatedSummary: o.Recalculated,
		Analysis:            o.Analysis,
	}
	if o.Result.Recalculated != nil {
		d.Recalculated = export.Flatten(o.Result.Recalculated)
	}
	return d
}
