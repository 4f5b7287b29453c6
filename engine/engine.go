package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/recallhq/recall-go-sdk/core"
	"github.com/recallhq/recall-go-sdk/memory"
)

// ModelClient abstracts the model provider. The engine speaks plain
// text messages; capability calls ride inside the text as fenced
// blocks rather than provider-native tool use.
type ModelClient interface {
	Send(ctx context.Context, history []core.Message, system string) (core.Message, error)
}

// Engine drives the conversation loop: it sends messages to the model,
// extracts and dispatches capability calls from the response, and
// feeds results back until the model answers in prose or the cycle
// ceiling is hit.
type Engine struct {
	client     ModelClient
	registry   *Registry
	dispatcher *Dispatcher
	memory     *memory.Manager // optional
	logger     *log.Logger
	cfg        core.Config
	meta       map[string]interface{}
	mailbox    *Mailbox
}

// Option configures the engine.
type Option func(*Engine)

// WithMemory attaches a memory manager. When set, Run retrieves
// relevant memories into the system prompt and records the exchange
// on completion.
func WithMemory(m *memory.Manager) Option {
	return func(e *Engine) {
		e.memory = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMeta sets shared invocation metadata passed to every capability
// handler (database handles, user identity, and the like).
func WithMeta(meta map[string]interface{}) Option {
	return func(e *Engine) {
		e.meta = meta
	}
}

// WithConfig overrides the default configuration.
func WithConfig(cfg core.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// New creates an engine over the given model client and registry.
func New(client ModelClient, registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		client:   client,
		registry: registry,
		cfg:      core.Default(),
		logger:   log.Default(),
		mailbox:  NewMailbox(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.dispatcher = NewDispatcher(e.registry, e.meta, e.logger)
	return e
}

// Registry returns the engine's capability registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Input is one conversation turn.
type Input struct {
	// UserMessage is the user's message to process.
	UserMessage string

	// History contains previous messages in the conversation.
	History []core.Message

	// SystemPrompt overrides DefaultSystemPrompt when non-empty. The
	// capability listing and call protocol are appended either way.
	SystemPrompt string

	// ContextBudget caps the tokens of retrieved memories injected
	// into the system prompt. Zero uses the configured default.
	ContextBudget int
}

// Output is the result of one conversation turn.
type Output struct {
	// Text is the model's final prose response for the turn.
	Text string

	// Cycles is the number of call/dispatch cycles the turn took.
	Cycles int

	// LimitExceeded reports that the turn ended by hitting the cycle
	// ceiling rather than by a prose response.
	LimitExceeded bool

	// Results records every call result dispatched during the turn,
	// in dispatch order.
	Results []CallResult
}

// Run processes one conversation turn to a terminal state.
//
// Memory retrieval failures abort the turn: returning silently empty
// context could mislead the model without a trace. Memory recording
// failures at the end of the turn are logged and swallowed.
func (e *Engine) Run(ctx context.Context, input *Input) (*Output, error) {
	system := input.SystemPrompt
	if system == "" {
		system = DefaultSystemPrompt
	}
	system += "\n\n" + renderCapabilities(e.registry.Capabilities())

	if e.memory != nil && input.UserMessage != "" {
		budget := input.ContextBudget
		if budget == 0 {
			budget = e.cfg.ContextBudget
		}
		enrichment, err := e.memory.Retrieve(ctx, input.UserMessage, budget)
		if err != nil {
			return nil, fmt.Errorf("memory retrieval: %w", err)
		}
		if enrichment != "" {
			system += "\n\n" + enrichment
		}
	}

	history := make([]core.Message, 0, len(input.History)+1)
	history = append(history, input.History...)
	if input.UserMessage != "" {
		history = append(history, core.UserMessage(input.UserMessage))
	}

	out := &Output{}
	cycles := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("turn canceled: %w", err)
		}

		reply, err := e.client.Send(ctx, history, system)
		if err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}

		calls := ExtractCalls(reply.Content)
		if len(calls) == 0 {
			out.Text = reply.Content
			out.Cycles = cycles
			e.record(ctx, input.UserMessage, reply.Content)
			return out, nil
		}

		cycles++
		if cycles > e.cfg.CycleLimit {
			// Terminal for this turn only. Pending calls are
			// discarded without dispatch.
			e.logger.Warn("capability call limit exceeded", "limit", e.cfg.CycleLimit)
			out.Text = fmt.Sprintf("%s: exceeded %d capability call cycles in one turn",
				FunctionCallLimitErrorName, e.cfg.CycleLimit)
			out.Cycles = cycles
			out.LimitExceeded = true
			return out, nil
		}

		var sync, async []Call
		for _, c := range calls {
			switch {
			case c.Failed():
				// Malformed calls flow through the dispatcher so
				// their errors land in the result batch.
				sync = append(sync, c)
			case c.Async:
				async = append(async, c)
			default:
				sync = append(sync, c)
			}
		}

		results := e.dispatcher.Dispatch(ctx, sync)

		// Resolve async calls left over from an earlier cycle before
		// installing this cycle's batch. Only their failures become
		// visible feedback; successes are fire-and-forget.
		var carried []CallResult
		if len(async) > 0 {
			carried = e.mailbox.Deposit(e.startAsync(ctx, async))
		} else {
			carried = e.mailbox.Drain()
		}
		for _, r := range carried {
			if r.Failed() {
				results = append(results, r)
			}
		}

		out.Results = append(out.Results, results...)

		history = append(history, core.AssistantMessage(reply.Content))
		history = append(history, core.UserMessage(formatFeedback(results)))
	}
}

// startAsync begins dispatch of an async batch without awaiting it.
// The returned channel always yields exactly one value; failures are
// folded into error results so the mailbox never blocks a later turn.
func (e *Engine) startAsync(ctx context.Context, calls []Call) chan []CallResult {
	pending := make(chan []CallResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				results := make([]CallResult, len(calls))
				for i, c := range calls {
					results[i] = CallResult{Name: c.Name, Err: fmt.Errorf("async dispatch panicked: %v", r)}
				}
				pending <- results
			}
		}()
		pending <- e.dispatcher.Dispatch(ctx, calls)
	}()
	return pending
}

// record persists the exchange when memory is attached. Failures are
// non-fatal; the response already exists.
func (e *Engine) record(ctx context.Context, userMessage, reply string) {
	if e.memory == nil || userMessage == "" || reply == "" {
		return
	}
	if err := e.memory.RecordExchange(ctx, userMessage, reply); err != nil {
		e.logger.Warn("failed to record exchange", "err", err)
	}
}

// formatFeedback renders a dispatch batch as the synthetic user
// message sent back to the model.
func formatFeedback(results []CallResult) string {
	if len(results) == 0 {
		// All calls this cycle were async; acknowledge so the model
		// can finish the turn.
		return "```" + ResultTag + "\n{\"status\":\"accepted\"}\n```"
	}
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("```" + ResultTag + "\n")
		b.Write(encodeResult(r))
		b.WriteString("\n```")
	}
	return b.String()
}

func encodeResult(r CallResult) []byte {
	payload := map[string]interface{}{"name": r.Name}
	if r.Err != nil {
		payload["error"] = r.Err.Error()
	} else {
		payload["output"] = r.Output
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		// Output was not serializable. Degrade to an error result so
		// the model still gets well-formed feedback.
		raw, _ = json.Marshal(map[string]interface{}{
			"name":  r.Name,
			"error": fmt.Sprintf("result not serializable: %v", err),
		})
	}
	return raw
}

// renderCapabilities lists the registered capabilities for the system
// prompt, in registration order.
func renderCapabilities(caps []core.Capability) string {
	if len(caps) == 0 {
		return "No capabilities are available this session."
	}
	var b strings.Builder
	b.WriteString("AVAILABLE CAPABILITIES:\n")
	for _, c := range caps {
		b.WriteString(fmt.Sprintf("- %s: %s", c.Name, c.Description))
		if schema, err := json.Marshal(c.InputSchema); err == nil && c.InputSchema != nil {
			b.WriteString("\n  input schema: " + string(schema))
		}
		if c.Async {
			b.WriteString("\n  (asynchronous: runs in the background, results are not returned)")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ResultTag is the fence language tag for capability results fed back
// to the model.
const ResultTag = "result"

// DefaultSystemPrompt is the default system prompt for the agent.
const DefaultSystemPrompt = `You are a helpful assistant with a persistent memory.

CALLING CAPABILITIES:
To invoke a capability, respond with a fenced code block tagged ` + "`function`" + ` containing a single JSON object:

` + "```" + `function
{"name": "<capability name>", "input": {...}, "async": false}
` + "```" + `

RULES:
- "name" (string) and "input" (object) are required; "async" (boolean) is optional.
- A response must be either pure prose or capability calls, never both.
- Several calls may be issued in one response, each in its own fenced block.
- Results arrive in the next message as fenced blocks tagged ` + "`result`" + `.
- When you have what you need, answer the user in plain prose with no fenced blocks.`
