// Package reconciler runs tag reconciliation between a source catalog and a
// target catalog.
//
// A run has two phases. Planning is sequential and deterministic: for each
// source record in input order it matches a target item, claims it, resolves
// the desired tags and diffs them against the item's snapshot. Applying then
// performs (or, in a dry run, simulates) the planned operations, optionally
// spreading target items over several workers. A failed mutation is logged
// and reported but never stops the run.
package reconciler

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/differ"
	"github.com/ellisd4/tagsync/pkg/errors"
	"github.com/ellisd4/tagsync/pkg/logging"
	"github.com/ellisd4/tagsync/pkg/matcher"
)

// Input is the snapshot a run works on. It is read but never modified.
type Input struct {
	Records []catalogs.SourceRecord
	Tags    catalogs.TagDictionary
	Items   []catalogs.TargetItem
}

// Reconciler brings target item tags in line with source tag assignments.
type Reconciler interface {
	// Run reconciles one snapshot. mut may be nil only for dry runs.
	// When ctx is canceled Run stops scheduling work and returns the partial
	// result together with an error matching errors.ErrCanceled.
	Run(ctx context.Context, in Input, mut catalogs.Mutator, opts ...Option) (*Result, error)

	// Config returns the policy every run uses.
	Config() Config
}

type reconciler struct {
	config  Config
	options *options
}

// New creates a Reconciler for cfg.
func New(cfg Config, opts ...Option) (Reconciler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{config: cfg.normalized(), options: o}, nil
}

// Config implements Reconciler.
func (r *reconciler) Config() Config {
	return r.config
}

// itemPlan is the work for one claimed target item.
type itemPlan struct {
	record catalogs.SourceRecord
	item   catalogs.TargetItem
	ops    []differ.Operation
}

// Run implements Reconciler.
func (r *reconciler) Run(ctx context.Context, in Input, mut catalogs.Mutator, opts ...Option) (*Result, error) {
	o, err := r.options.clone().apply(opts...)
	if err != nil {
		return nil, err
	}
	if mut == nil && !o.dryRun {
		return nil, &errors.ValidationError{Field: "mutator", Message: "required unless dry run"}
	}
	runID := o.runID
	if runID == uuid.Nil {
		runID = uuid.New()
	}

	ctx = logging.WithRun(ctx, runID.String(), o.dryRun)
	logger := logging.FromContext(ctx)

	result := newResult(runID, r.config, o.dryRun)
	result.Summary.SourceRecords = len(in.Records)
	result.Summary.TagDefinitions = len(in.Tags)
	result.Summary.TargetItems = len(in.Items)

	if r.config.ManagesAllTags() {
		msg := "tag prefix is empty and overwrite is enabled: every tag on matched items is managed"
		result.Warnings = append(result.Warnings, msg)
		logger.Warn().Msg(msg)
	}

	logger.Info().
		Int("records", len(in.Records)).
		Int("tags", len(in.Tags)).
		Int("items", len(in.Items)).
		Str("prefix", r.config.TagPrefix).
		Bool("overwrite", r.config.OverwriteExistingTags).
		Msg("Starting tag reconciliation")

	plans, complete := r.plan(ctx, in, result)
	if complete {
		complete = r.apply(ctx, plans, mut, o, result)
	}

	result.FinishedAt = utc.Now()
	logger.Info().
		Int("matched", result.Summary.Matched).
		Int("added", result.Summary.TagsAdded).
		Int("removed", result.Summary.TagsRemoved).
		Int("failed", result.Summary.Failed).
		Dur("duration", result.Duration()).
		Msg("Tag reconciliation finished")

	if !complete {
		result.Canceled = true
		logger.Warn().Msg("Tag reconciliation canceled; returning partial result")
		return result, errors.WrapCanceled(ctx.Err())
	}
	return result, nil
}

// plan matches, claims and diffs every record. It returns false if ctx was
// canceled before every record was visited.
func (r *reconciler) plan(ctx context.Context, in Input, result *Result) ([]itemPlan, bool) {
	logger := logging.FromContext(ctx)
	index := matcher.NewIndex(in.Items, r.config.Schemes)
	d := differ.New(
		differ.WithPrefix(r.config.TagPrefix),
		differ.WithOverwrite(r.config.OverwriteExistingTags),
	)

	claimedBy := make(map[int]catalogs.SourceRecord, len(in.Items))
	var plans []itemPlan

	for _, record := range in.Records {
		if ctx.Err() != nil {
			return plans, false
		}

		if !record.HasIdentifier(r.config.Schemes) {
			result.Summary.SkippedNoIdentifier++
			logger.Debug().Str("series_id", record.ID).Str("series", record.Title).Msg("Skipping series without identifiers")
			continue
		}

		m, ok := index.Match(record)
		if !ok {
			result.Summary.Unmatched++
			logger.Debug().Str("series_id", record.ID).Str("series", record.Title).Msg("No library item matches series")
			continue
		}

		if owner, taken := claimedBy[m.Position]; taken {
			result.Summary.Duplicates++
			msg := fmt.Sprintf("series %q (%s) matches item %q already claimed by series %q (%s)",
				record.Title, record.ID, m.Item.Name, owner.Title, owner.ID)
			result.Warnings = append(result.Warnings, msg)
			logger.Warn().Str("series_id", record.ID).Str("item_id", m.Item.ID).Msg("Item already claimed by another series")
			continue
		}
		claimedBy[m.Position] = record
		result.Summary.Matched++

		desired := differ.Resolve(record.TagIDs, in.Tags, r.config.TagPrefix)
		current := differ.NewTagSet(m.Item.Tags...)
		ops := d.Tags(m.Item.ID, current, desired)

		logger.Debug().
			Str("series_id", record.ID).
			Str("item_id", m.Item.ID).
			Str("scheme", m.Scheme.String()).
			Int("operations", len(ops)).
			Msg("Matched series")

		if len(ops) > 0 {
			plans = append(plans, itemPlan{record: record, item: m.Item, ops: ops})
		}
	}
	return plans, true
}

// apply performs the planned operations. Operations for one item run in
// order on one worker; items are spread over up to o.concurrency workers.
// It returns false if ctx was canceled before every operation was attempted.
func (r *reconciler) apply(ctx context.Context, plans []itemPlan, mut catalogs.Mutator, o *options, result *Result) bool {
	var (
		added, removed, failed atomic.Int64
		incomplete             atomic.Bool
		outcomes               = make([][]AppliedOperation, len(plans))
		problems               = make([][]Problem, len(plans))
	)

	var g errgroup.Group
	g.SetLimit(o.concurrency)

	for i := range plans {
		if ctx.Err() != nil {
			incomplete.Store(true)
			break
		}
		plan := plans[i]
		g.Go(func() error {
			itemCtx := logging.WithItem(ctx, plan.item.ID, plan.item.Name)
			itemCtx = logging.WithSeries(itemCtx, plan.record.ID, plan.record.Title)
			logger := logging.FromContext(itemCtx)

			for _, op := range plan.ops {
				if ctx.Err() != nil {
					incomplete.Store(true)
					return nil
				}

				applied := AppliedOperation{
					Operation:   op,
					ItemName:    plan.item.Name,
					SeriesID:    plan.record.ID,
					SeriesTitle: plan.record.Title,
				}

				if o.dryRun {
					applied.Status = StatusSimulated
					logger.Info().Str("tag", op.Label).Msgf("[dry run] would %s tag", op.Kind)
				} else if err := mutate(itemCtx, mut, op); err != nil {
					merr := &errors.MutationError{
						Kind:     string(op.Kind),
						ItemID:   op.ItemID,
						ItemName: plan.item.Name,
						Label:    op.Label,
						Err:      err,
					}
					applied.Status = StatusFailed
					applied.Error = merr.Error()
					problems[i] = append(problems[i], Problem{
						ItemID:   op.ItemID,
						ItemName: plan.item.Name,
						Kind:     op.Kind,
						Label:    op.Label,
						Message:  merr.Error(),
						Err:      merr,
					})
					failed.Add(1)
					logger.Error().Err(err).Str("tag", op.Label).Msgf("Failed to %s tag", op.Kind)
				} else {
					applied.Status = StatusApplied
					logger.Info().Str("tag", op.Label).Msgf("Tag %s applied", op.Kind)
				}

				if applied.Status != StatusFailed {
					switch op.Kind {
					case differ.ChangeTypeAdd:
						added.Add(1)
					case differ.ChangeTypeRemove:
						removed.Add(1)
					}
				}

				outcomes[i] = append(outcomes[i], applied)
				for _, observe := range o.observers {
					observe(applied)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := range plans {
		result.Operations = append(result.Operations, outcomes[i]...)
		result.Problems = append(result.Problems, problems[i]...)
	}
	result.Summary.TagsAdded = int(added.Load())
	result.Summary.TagsRemoved = int(removed.Load())
	result.Summary.Failed = int(failed.Load())

	return !incomplete.Load()
}

func mutate(ctx context.Context, mut catalogs.Mutator, op differ.Operation) error {
	switch op.Kind {
	case differ.ChangeTypeAdd:
		return mut.AddTag(ctx, op.ItemID, op.Label)
	case differ.ChangeTypeRemove:
		return mut.RemoveTag(ctx, op.ItemID, op.Label)
	default:
		return &errors.ValidationError{Field: "kind", Value: op.Kind, Message: "unknown operation kind"}
	}
}
