package tagsync

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/errors"
	"github.com/ellisd4/tagsync/pkg/logging"
	"github.com/ellisd4/tagsync/pkg/reconciler"
	"github.com/ellisd4/tagsync/pkg/sync"
)

// Compile-time interface check to ensure proper implementation.
var _ Syncer = (*client)(nil)

// Syncer runs reconciliation between the configured catalogs.
type Syncer interface {
	// Sync runs one reconciliation. Only one run may be active per client;
	// a concurrent call fails with errors.ErrRunInProgress.
	Sync(ctx context.Context, opts ...sync.Option) (*reconciler.Result, error)

	// LastResult returns the most recent run result, or nil.
	LastResult() *reconciler.Result
}

// Sync implements Syncer.
//
// Configuration problems fail with errors.ErrConfigurationIncomplete before
// any request. A source that cannot be read fails with
// errors.ErrUpstreamUnavailable and a target that cannot be read with
// errors.ErrCatalogUnavailable; in both cases no result is returned and the
// target is untouched. Failed mutations do not fail the run; they are listed
// in the result's Problems.
func (c *client) Sync(ctx context.Context, opts ...sync.Option) (*reconciler.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Parse and validate options
	options := sync.Defaults().Apply(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}
	cfg := options.Config(c.options.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Check catalog configuration before touching the network
	if err := c.validate(); err != nil {
		c.finish(ctx, nil, err)
		return nil, err
	}

	// Step 3: Exclusive run
	if !c.running.CompareAndSwap(false, true) {
		return nil, errors.ErrRunInProgress
	}
	defer c.running.Store(false)

	// Step 4: Setup context with timeout
	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {}
	}
	defer cancel()

	runID := uuid.New()
	ropts := options.ReconcilerOptions(c.options.dryRun, c.options.concurrency)
	ropts = append(ropts,
		reconciler.WithRunID(runID),
		reconciler.WithObserver(c.hooks.triggerOperation),
	)

	// Step 5: Fetch both catalogs
	in, err := c.fetch(ctx)
	if err != nil {
		c.finish(ctx, nil, err)
		return nil, err
	}

	// Step 6: Reconcile
	r, err := reconciler.New(cfg)
	if err != nil {
		return nil, err
	}
	result, err := r.Run(ctx, in, c.options.target, ropts...)
	c.finish(ctx, result, err)
	return result, err
}

// validate runs the Validate method of catalogs that provide one.
func (c *client) validate() error {
	for _, v := range []any{c.options.source, c.options.target} {
		if val, ok := v.(catalogs.Validator); ok {
			if err := val.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// fetch reads the source records, the tag dictionary and the target items
// concurrently. The first failure cancels the other reads.
func (c *client) fetch(ctx context.Context) (reconciler.Input, error) {
	var in reconciler.Input
	src, target := c.options.source, c.options.target
	srcName := catalogs.NameOf(src, "source")
	targetName := catalogs.NameOf(target, "target")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := src.FetchRecords(gctx)
		if err != nil {
			return classify(ctx, err, func(err error) error { return errors.WrapUpstream(srcName, "series", 0, err) })
		}
		in.Records = records
		return nil
	})
	g.Go(func() error {
		tags, err := src.FetchTagDictionary(gctx)
		if err != nil {
			return classify(ctx, err, func(err error) error { return errors.WrapUpstream(srcName, "tags", 0, err) })
		}
		in.Tags = tags
		return nil
	})
	g.Go(func() error {
		items, err := target.FetchItems(gctx)
		if err != nil {
			return classify(ctx, err, func(err error) error { return errors.WrapCatalog(targetName, "fetch items", err) })
		}
		in.Items = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return reconciler.Input{}, err
	}

	logging.FromContext(ctx).Debug().
		Int("records", len(in.Records)).
		Int("tags", len(in.Tags)).
		Int("items", len(in.Items)).
		Msg("Fetched catalogs")
	return in, nil
}

// classify keeps errors that are already classified and wraps the rest.
// A canceled parent context always wins.
func classify(ctx context.Context, err error, wrap func(error) error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.WrapCanceled(ctxErr)
	}
	switch {
	case errors.IsUpstreamUnavailable(err),
		errors.IsCatalogUnavailable(err),
		errors.IsConfigurationIncomplete(err),
		errors.IsCanceled(err):
		return err
	default:
		return wrap(err)
	}
}

// finish records the run and fires hooks.
func (c *client) finish(ctx context.Context, result *reconciler.Result, err error) {
	c.recordRun(result, err)

	logger := logging.FromContext(ctx)
	if result != nil {
		logger := logger.With().Str("run_id", result.RunID.String()).Logger()
		if err != nil {
			logger.Warn().Err(err).Str("summary", result.String()).Msg("Sync ended early")
		} else {
			logger.Info().Str("summary", result.String()).Msg("Sync finished")
		}
		c.hooks.triggerRunCompleted(result)
		return
	}
	logger.Error().Err(err).Msg("Sync failed")
	c.hooks.triggerRunFailed(err)
}
