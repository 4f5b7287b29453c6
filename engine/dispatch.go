package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/recallhq/recall-go-sdk/core"
)

// CallResult is the outcome of one call: a payload or an error, never
// both. Handler failures, unknown names and malformed requests all
// normalize into this union; the dispatcher itself never fails.
type CallResult struct {
	Name   string
	Output interface{}
	Err    error
}

// Failed reports whether the call produced an error outcome.
func (r CallResult) Failed() bool {
	return r.Err != nil
}

// Dispatcher invokes calls against a capability registry, merging a
// shared invocation context into every call.
type Dispatcher struct {
	registry *Registry
	meta     map[string]interface{}
	logger   *log.Logger
}

// NewDispatcher builds a dispatcher. meta carries host-supplied context
// values (database handles, session ids) merged into every invocation;
// a nil logger falls back to the package default.
func NewDispatcher(registry *Registry, meta map[string]interface{}, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{registry: registry, meta: meta, logger: logger}
}

// Dispatch invokes a batch of calls. Calls within one batch have no
// ordering dependency and run concurrently, but results come back in
// input order. Malformed calls pass straight through as error results
// without touching the registry.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []Call) []CallResult {
	if len(calls) == 0 {
		return nil
	}

	results := make([]CallResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call Call) {
			defer wg.Done()
			results[i] = d.dispatchOne(ctx, call)
		}(i, call)
	}
	wg.Wait()
	return results
}

// dispatchOne runs a single call, converting every failure mode into a
// result. A panicking handler is recovered into an error outcome.
func (d *Dispatcher) dispatchOne(ctx context.Context, call Call) (result CallResult) {
	result.Name = call.Name

	if call.Failed() {
		result.Err = call.Err
		return result
	}

	capability, ok := d.registry.Get(call.Name)
	if !ok {
		result.Err = fmt.Errorf("capability not found: %s", call.Name)
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			result.Output = nil
			result.Err = fmt.Errorf("capability %s panicked: %v", call.Name, r)
		}
	}()

	start := time.Now()
	output, err := capability.Handler(ctx, &core.CallParams{Input: call.Input, Meta: d.meta})
	d.logger.Debug("dispatched call",
		"name", call.Name,
		"async", call.Async,
		"duration", time.Since(start),
		"failed", err != nil)

	if err != nil {
		result.Err = err
		return result
	}
	result.Output = output
	return result
}
