package core

import (
	"context"
)

// CallParams carries the decoded input of one capability invocation plus
// shared invocation context (database handles, session identifiers, ...)
// supplied by the host when the dispatcher was built.
type CallParams struct {
	// Input is the decoded "input" object from the call request.
	Input map[string]interface{}

	// Meta holds host-supplied context values, merged into every call.
	Meta map[string]interface{}
}

// Handler executes a capability. A handler may return a payload or an
// error; both outcomes are normalized into a call result by the
// dispatcher, which never propagates handler failures as its own.
type Handler func(ctx context.Context, params *CallParams) (interface{}, error)

// Capability describes one callable function exposed to the model.
// Registries are immutable snapshots assembled at startup.
type Capability struct {
	// Name is unique within a registry.
	Name string

	// Description is rendered into the system prompt.
	Description string

	// InputSchema and OutputSchema are JSON Schema fragments built with
	// the tools package helpers.
	InputSchema  map[string]interface{}
	OutputSchema map[string]interface{}

	// Async marks the capability as fire-and-forget relative to the
	// current cycle: it is started but not awaited before replying to
	// the model, and only its error outcome ever becomes visible.
	Async bool

	Handler Handler
}
