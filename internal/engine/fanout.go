package engine

import (
	"context"
	"fmt"
	"time"

	"paybridge/internal/logger"
	"paybridge/internal/metrics"
	"paybridge/internal/provider"
	"paybridge/internal/registry"

	"golang.org/x/sync/errgroup"
)

// CallError is one provider's failure inside an aggregation. It is data, not
// control flow: a failing adapter never aborts its siblings.
type CallError struct {
	Provider string `json:"provider"`
	Message  string `json:"message"`
}

func (e CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Result is the envelope every capability fan-out returns. Invariant: every
// attempted provider lands in exactly one of Succeeded or Errors, so
// len(Succeeded)+len(Errors) equals the number of attempts.
type Result[T any] struct {
	Succeeded []T
	Errors    []CallError
}

type slot[T any] struct {
	value T
	err   error
}

// fanOut invokes fn once per provider concurrently, each call under its own
// timeout, and waits for every call to settle. Succeeded follows provider
// declaration order, not completion order, so results are reproducible
// across runs despite concurrent execution. Caller cancellation propagates
// to all outstanding calls through ctx.
func fanOut[T any](ctx context.Context, providers []*registry.Provider, capability provider.Capability, timeout time.Duration, fn func(context.Context, *registry.Provider) (T, error)) Result[T] {
	if len(providers) == 0 {
		return Result[T]{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	slots := make([]slot[T], len(providers))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, p := range providers {
		i, p := i, p
		eg.Go(func() error {
			slots[i].value, slots[i].err = callAdapter(egCtx, p, capability, timeout, fn)
			return nil
		})
	}
	// Workers never return errors; Wait is only a barrier.
	_ = eg.Wait()

	out := Result[T]{
		Succeeded: make([]T, 0, len(providers)),
	}
	for i, p := range providers {
		if slots[i].err != nil {
			out.Errors = append(out.Errors, CallError{Provider: p.Name(), Message: slots[i].err.Error()})
			continue
		}
		out.Succeeded = append(out.Succeeded, slots[i].value)
	}
	return out
}

// callAdapter is the isolation boundary of a single call: timeout, panic
// recovery and metrics all live here.
func callAdapter[T any](ctx context.Context, p *registry.Provider, capability provider.Capability, timeout time.Duration, fn func(context.Context, *registry.Provider) (T, error)) (value T, err error) {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adapter panic: %v", r)
			logger.Errorf("[engine] %s %s panicked: %v", p.Name(), capability, r)
		}
		metrics.RecordAdapterCall(p.Name(), string(capability), time.Since(start), err)
		if err != nil {
			logger.Warnf("[engine] %s %s failed after %s: %v", p.Name(), capability, time.Since(start).Truncate(time.Millisecond), err)
		}
	}()
	value, err = fn(callCtx, p)
	return value, err
}
