package reconciler

import (
	"github.com/google/uuid"

	"github.com/ellisd4/tagsync/pkg/constants"
	"github.com/ellisd4/tagsync/pkg/errors"
)

// options configures a run.
type options struct {
	dryRun      bool
	concurrency int
	runID       uuid.UUID
	observers   []Observer
}

// Observer is notified after every attempted operation. With concurrency
// above one it is called from several goroutines at once.
type Observer func(AppliedOperation)

func defaultOptions() *options {
	return &options{
		concurrency: constants.DefaultConcurrency,
	}
}

// Option is a function that configures a Reconciler or a single Run.
// Options passed to Run are applied on top of those passed to New.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *options) clone() *options {
	cp := *o
	cp.observers = append([]Observer(nil), o.observers...)
	return &cp
}

// WithDryRun simulates every operation instead of applying it.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}

// WithConcurrency sets how many target items are mutated in parallel.
// Operations on one item always run in order on a single worker.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 || n > constants.MaxConcurrency {
			return &errors.ValidationError{
				Field:   "concurrency",
				Value:   n,
				Message: "must be between 1 and 16",
			}
		}
		o.concurrency = n
		return nil
	}
}

// WithRunID sets the run identifier instead of generating one.
func WithRunID(id uuid.UUID) Option {
	return func(o *options) error {
		if id == uuid.Nil {
			return &errors.ValidationError{Field: "run_id", Message: "cannot be nil"}
		}
		o.runID = id
		return nil
	}
}

// WithObserver registers fn to be called after each attempted operation.
func WithObserver(fn Observer) Option {
	return func(o *options) error {
		if fn == nil {
			return &errors.ValidationError{Field: "observer", Message: "cannot be nil"}
		}
		o.observers = append(o.observers, fn)
		return nil
	}
}
