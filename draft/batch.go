package draft

import (
	"context"
	"sync"

	"farmdash/farm"

	"github.com/rohanthewiz/logger"
)

// BatchResult is the outcome of a concurrent batch of creations.
// Records is index-aligned with the inputs; failed slots hold nil.
type BatchResult[T any] struct {
	Resource     string
	Records      []*T
	Failed       []int
	FailedInputs []T
	Errs         []error
}

// AllSucceeded reports whether every creation in the batch went through
func (r BatchResult[T]) AllSucceeded() bool {
	return len(r.Failed) == 0
}

// PartiallyFailed reports whether at least one creation failed.
// Other records of the batch may still have been created.
func (r BatchResult[T]) PartiallyFailed() bool {
	return len(r.Failed) > 0
}

// Succeeded returns the created records in input order, skipping failures
func (r BatchResult[T]) Succeeded() []*T {
	out := make([]*T, 0, len(r.Records))
	for _, rec := range r.Records {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out
}

// Err returns a *farm.PartialBatchError when anything failed, nil otherwise
func (r BatchResult[T]) Err() error {
	if r.AllSucceeded() {
		return nil
	}
	return &farm.PartialBatchError{
		Resource: r.Resource,
		Total:    len(r.Records),
		Failed:   append([]int(nil), r.Failed...),
		Errs:     append([]error(nil), r.Errs...),
	}
}

type outcome[T any] struct {
	rec *T
	err error
}

// dispatch issues every create without waiting on the others and gathers the
// results back into input order
func dispatch[T any](ctx context.Context, resource string, inputs []T, create func(context.Context, T) (*T, error)) BatchResult[T] {
	outcomes := make([]outcome[T], len(inputs))

	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func(idx int, input T) {
			defer wg.Done()
			rec, err := create(ctx, input)
			outcomes[idx] = outcome[T]{rec: rec, err: err}
		}(i, in)
	}
	wg.Wait()

	result := BatchResult[T]{
		Resource: resource,
		Records:  make([]*T, len(inputs)),
	}
	for i, o := range outcomes {
		if o.err != nil {
			result.Failed = append(result.Failed, i)
			result.FailedInputs = append(result.FailedInputs, inputs[i])
			result.Errs = append(result.Errs, o.err)
			continue
		}
		result.Records[i] = o.rec
	}

	if result.PartiallyFailed() {
		logger.Warn("Batch partially failed", "resource", resource,
			"failed", len(result.Failed), "total", len(inputs))
	} else {
		logger.Debug("Batch saved", "resource", resource, "count", len(inputs))
	}
	return result
}
