package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"PmdaPipeline/internal/bridge"
	"PmdaPipeline/internal/curate"
	"PmdaPipeline/internal/domain"
	"PmdaPipeline/internal/ports"
	"PmdaPipeline/internal/refine"
	"PmdaPipeline/internal/source"
	"PmdaPipeline/internal/table"
)

// PipelineDeps wires all driven adapters into the layer orchestrator.
type PipelineDeps struct {
	Store   ports.TableStore
	Sources *source.Registry
	Bridge  *bridge.Bridge
	Logger  *slog.Logger
}

// Pipeline sequences the raw -> refined -> curated transformation. Each
// stage reads only durably written output of the previous one; dependent
// artifacts whose upstream tables are absent or empty are skipped with a
// warning, while transformation and persistence failures abort the run.
type Pipeline struct {
	store   ports.TableStore
	sources *source.Registry
	bridge  *bridge.Bridge
	logger  *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		store:   deps.Store,
		sources: deps.Sources,
		bridge:  deps.Bridge,
		logger:  deps.Logger,
	}
}

// Run executes all three stages in order.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.RunRaw(ctx); err != nil {
		return fmt.Errorf("raw stage: %w", err)
	}
	if err := p.RunRefined(ctx); err != nil {
		return fmt.Errorf("refined stage: %w", err)
	}
	if err := p.RunCurated(ctx); err != nil {
		return fmt.Errorf("curated stage: %w", err)
	}
	return nil
}

// RunRaw fetches every registered source and replaces its raw tables. A
// failing source is logged and skipped so one unreachable site does not
// starve the others; a failing write aborts the run.
func (p *Pipeline) RunRaw(ctx context.Context) error {
	if p.sources == nil {
		p.warn("no sources registered, skipping raw stage")
		return nil
	}

	for _, src := range p.sources.All() {
		batches, err := src.Fetch(ctx)
		if err != nil {
			p.warn("source failed, keeping previous raw tables", "source", src.Name(), "error", err)
			continue
		}
		for _, batch := range batches {
			if len(batch.Data.Columns) == 0 {
				p.warn("source produced no columns, skipping write", "source", src.Name(), "table", batch.Table)
				continue
			}
			if err := p.store.ReplaceTable(ctx, batch.Table, batch.Data); err != nil {
				return fmt.Errorf("write %s: %w", batch.Table, err)
			}
			p.info("raw table replaced", "table", batch.Table, "rows", len(batch.Data.Rows), "encoding", batch.Encoding)
		}
	}
	return nil
}

// RunRefined normalizes the raw tables into the refined layer.
func (p *Pipeline) RunRefined(ctx context.Context) error {
	if err := p.refineApprovals(ctx); err != nil {
		return err
	}
	return p.refineCaseTables(ctx)
}

func (p *Pipeline) refineApprovals(ctx context.Context) error {
	raw, ok, err := p.readAvailable(ctx, "raw_approvals")
	if err != nil {
		return err
	}
	if !ok {
		p.warn("skipping refined_approvals")
		return nil
	}

	records, err := refine.BuildApprovals(raw)
	if err != nil {
		return fmt.Errorf("refine approvals: %w", err)
	}

	var entries []domain.ReferenceEntry
	if ref, refOK, err := p.readAvailable(ctx, "raw_ref_jan_inn"); err != nil {
		return err
	} else if refOK {
		entries = bridge.ReferenceEntries(ref)
	} else {
		p.warn("reference table unavailable, lookup stage will miss every row")
	}

	records = p.bridge.Resolve(ctx, records, entries)

	if err := p.store.ReplaceTable(ctx, "refined_approvals", refine.ApprovalsTable(records)); err != nil {
		return fmt.Errorf("write refined_approvals: %w", err)
	}
	p.info("refined table replaced", "table", "refined_approvals", "rows", len(records))
	return nil
}

// refineCaseTables requires all three raw case tables; the reconstruction
// joins are meaningless on a partial set.
func (p *Pipeline) refineCaseTables(ctx context.Context) error {
	inputs := map[string]table.Table{}
	for _, name := range []string{"raw_jader_demo", "raw_jader_drug", "raw_jader_reac"} {
		t, ok, err := p.readAvailable(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			p.warn("skipping refined case tables", "missing", name)
			return nil
		}
		inputs[name] = t
	}

	demo, err := refine.NormalizeDemo(inputs["raw_jader_demo"])
	if err != nil {
		return fmt.Errorf("refine case demo: %w", err)
	}
	drug, err := refine.NormalizeDrug(inputs["raw_jader_drug"])
	if err != nil {
		return fmt.Errorf("refine case drug: %w", err)
	}
	reac, err := refine.NormalizeReac(inputs["raw_jader_reac"])
	if err != nil {
		return fmt.Errorf("refine case reaction: %w", err)
	}

	for name, t := range map[string]table.Table{
		"refined_jader_demo": demo,
		"refined_jader_drug": drug,
		"refined_jader_reac": reac,
	} {
		if err := p.store.ReplaceTable(ctx, name, t); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		p.info("refined table replaced", "table", name, "rows", len(t.Rows))
	}
	return nil
}

// RunCurated projects the refined layer into the curated tables.
func (p *Pipeline) RunCurated(ctx context.Context) error {
	if refined, ok, err := p.readAvailable(ctx, "refined_approvals"); err != nil {
		return err
	} else if !ok {
		p.warn("skipping curated_approvals")
	} else {
		curated := curate.Approvals(refined)
		if err := p.store.ReplaceTable(ctx, "curated_approvals", curated); err != nil {
			return fmt.Errorf("write curated_approvals: %w", err)
		}
		p.info("curated table replaced", "table", "curated_approvals", "rows", len(curated.Rows))
	}

	inputs := map[string]table.Table{}
	for _, name := range []string{"refined_jader_demo", "refined_jader_drug", "refined_jader_reac"} {
		t, ok, err := p.readAvailable(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			p.warn("skipping curated_adverse_events", "missing", name)
			return nil
		}
		inputs[name] = t
	}

	events, err := curate.AdverseEvents(inputs["refined_jader_demo"], inputs["refined_jader_drug"], inputs["refined_jader_reac"])
	if err != nil {
		return fmt.Errorf("reconstruct adverse events: %w", err)
	}
	if err := p.store.ReplaceTable(ctx, "curated_adverse_events", events); err != nil {
		return fmt.Errorf("write curated_adverse_events: %w", err)
	}
	p.info("curated table replaced", "table", "curated_adverse_events", "rows", len(events.Rows))
	return nil
}

// readAvailable loads an upstream table, reporting absent or empty tables as
// unavailable rather than as errors. Store failures propagate.
func (p *Pipeline) readAvailable(ctx context.Context, name string) (table.Table, bool, error) {
	exists, err := p.store.HasTable(ctx, name)
	if err != nil {
		return table.Table{}, false, fmt.Errorf("check %s: %w", name, err)
	}
	if !exists {
		p.warn("upstream table missing", "table", name)
		return table.Table{}, false, nil
	}

	t, err := p.store.ReadTable(ctx, name)
	if err != nil {
		return table.Table{}, false, fmt.Errorf("read %s: %w", name, err)
	}
	if t.IsEmpty() {
		p.warn("upstream table empty", "table", name)
		return table.Table{}, false, nil
	}
	return t, true, nil
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
