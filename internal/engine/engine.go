// Package engine runs one reconciliation: map, aggregate, join and classify
// a source table against a reference table.
package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/recon/internal/aggregate"
	"github.com/cleared-dev/recon/internal/classify"
	"github.com/cleared-dev/recon/internal/model"
	"github.com/cleared-dev/recon/internal/reconcile"
	"github.com/cleared-dev/recon/internal/schema"
)

// Side is one ledger's upload together with how to read it.
type Side struct {
	Table   *model.Table
	Profile schema.Profile
	Mapping schema.Mapping
}

// Context carries everything a run needs. Runs share no state, so separate
// contexts may be processed concurrently.
type Context struct {
	Workflow    string
	Source      Side
	Reference   Side
	GroupBy     aggregate.GroupBy
	Recalculate bool // requires Reference.Profile.Alternate in the reference upload
}

// Result holds both classified passes of a run.
type Result struct {
	Workflow     string
	Primary      []model.ClassifiedRecord
	Recalculated []model.ClassifiedRecord // nil when the pass did not run or the alternate column is absent
	Coercions    map[string]schema.CoercionStats
}

// Engine executes reconciliation runs.
type Engine struct {
	log zerolog.Logger
}

// New creates an Engine that logs to log.
func New(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// Run reconciles rc.Source against rc.Reference. It fails only when a table
// cannot be mapped; bad values are defaulted and counted.
func (e *Engine) Run(rc Context) (*Result, error) {
	log := e.log.With().Str("workflow", rc.Workflow).Logger()

	src, err := e.resolve(rc.Source)
	if err != nil {
		return nil, err
	}
	ref, err := e.resolve(rc.Reference)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Workflow:  rc.Workflow,
		Coercions: make(map[string]schema.CoercionStats),
	}

	srcRecords, err := e.canonicalize(res, "source", src, rc.Source.Profile, rc.Source.Profile.Amount)
	if err != nil {
		return nil, err
	}
	refRecords, err := e.canonicalize(res, "reference", ref, rc.Reference.Profile, rc.Reference.Profile.Amount)
	if err != nil {
		return nil, err
	}

	srcAgg := aggregate.Aggregate(srcRecords, rc.GroupBy)
	refAgg := aggregate.Aggregate(refRecords, rc.GroupBy)
	log.Debug().
		Int("source_keys", len(srcAgg)).
		Int("reference_keys", len(refAgg)).
		Msg("aggregated")

	joined := reconcile.Join(srcAgg, refAgg)
	res.Primary = classify.Primary(joined)

	absent := 0
	for _, r := range joined {
		if !r.ReferenceFound {
			absent++
		}
	}
	if absent > 0 {
		log.Info().Int("keys", absent).Msg("source keys without reference counterpart compared against zero")
	}

	alt := rc.Reference.Profile.Alternate
	if !rc.Recalculate || alt == "" {
		return res, nil
	}
	altColumn, ok := schema.OptionalColumn(ref, alt, rc.Reference.Mapping)
	if !ok {
		log.Warn().
			Str("side", rc.Reference.Profile.Side).
			Str("table", ref.Name).
			Str("column", alt).
			Msg("alternate column not in upload, recalculation skipped")
		return res, nil
	}

	altRecords, err := e.canonicalize(res, "alternate", ref, rc.Reference.Profile, altColumn)
	if err != nil {
		return nil, err
	}
	recalculated := reconcile.Recalculate(joined, aggregate.Aggregate(altRecords, rc.GroupBy))
	res.Recalculated = classify.Recalculated(recalculated)
	if res.Recalculated == nil {
		res.Recalculated = []model.ClassifiedRecord{}
	}
	log.Debug().Int("records", len(res.Recalculated)).Str("column", altColumn).Msg("recalculated")

	return res, nil
}

func (e *Engine) resolve(s Side) (*model.Table, error) {
	if s.Table == nil {
		return nil, fmt.Errorf("%s: no table", s.Profile.Side)
	}
	if err := s.Profile.Validate(); err != nil {
		return nil, err
	}
	t, err := schema.Resolve(s.Table, s.Profile, s.Mapping)
	if err != nil {
		return nil, fmt.Errorf("resolving %s columns: %w", s.Profile.Side, err)
	}
	return t, nil
}

func (e *Engine) canonicalize(res *Result, name string, t *model.Table, p schema.Profile, amountColumn string) ([]model.CanonicalRecord, error) {
	records, stats, err := schema.Canonicalize(t, p, amountColumn)
	if err != nil {
		return nil, err
	}
	res.Coercions[name] = stats

	if stats.AmountDefault > 0 || stats.DateDefault > 0 || stats.BlankKey > 0 {
		e.log.Warn().
			Str("side", p.Side).
			Str("table", t.Name).
			Str("amount_column", amountColumn).
			Int("amount_defaulted", stats.AmountDefault).
			Int("date_defaulted", stats.DateDefault).
			Int("blank_key_skipped", stats.BlankKey).
			Msg("values replaced by defaults")
	}
	return records, nil
}
