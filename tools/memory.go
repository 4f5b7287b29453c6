package tools

import (
	"context"
	"fmt"

	"github.com/recallhq/recall-go-sdk/core"
	"github.com/recallhq/recall-go-sdk/memory"
)

// MemoryCapabilities returns the standard memory capabilities bound to
// a manager: remember, recall, and forget. Register them with the
// engine to let the model manage its own long-term memory.
func MemoryCapabilities(mgr *memory.Manager) []core.Capability {
	return []core.Capability{
		{
			Name:        "remember",
			Description: "Store a piece of information in long-term memory. Conversation summaries are checked against existing ones and rejected when a near-duplicate is already stored.",
			InputSchema: ObjectSchema(map[string]interface{}{
				"content": StringProperty("The text to remember"),
				"kind": StringEnumProperty("What kind of memory this is",
					string(memory.KindDocument),
					string(memory.KindFragment),
					string(memory.KindConversationSummary),
					string(memory.KindResolution),
				),
				"pinned": BooleanProperty("Keep this memory exempt from pruning"),
			}, "content"),
			OutputSchema: ObjectSchema(map[string]interface{}{
				"id":         StringProperty("Identifier of the stored memory"),
				"stored":     BooleanProperty("Whether the memory was stored"),
				"duplicates": ArrayProperty("Near-duplicates that blocked storage", StringProperty("Existing memory content")),
			}),
			Handler: rememberHandler(mgr),
		},
		{
			Name:        "recall",
			Description: "Search long-term memory and return the most relevant entries within a token budget.",
			InputSchema: ObjectSchema(map[string]interface{}{
				"query":  StringProperty("What to search for"),
				"budget": IntegerProperty("Maximum tokens of memories to return (default 1024)"),
			}, "query"),
			OutputSchema: ObjectSchema(map[string]interface{}{
				"memories": StringProperty("Formatted listing of the matching memories"),
			}),
			Handler: recallHandler(mgr),
		},
		{
			Name:        "forget",
			Description: "Delete a memory by its identifier.",
			InputSchema: ObjectSchema(map[string]interface{}{
				"id": StringProperty("Identifier of the memory to delete"),
			}, "id"),
			OutputSchema: ObjectSchema(map[string]interface{}{
				"deleted": BooleanProperty("Whether the memory was deleted"),
			}),
			Handler: forgetHandler(mgr),
		},
	}
}

func rememberHandler(mgr *memory.Manager) core.Handler {
	return func(ctx context.Context, params *core.CallParams) (interface{}, error) {
		content, err := stringArg(params, "content")
		if err != nil {
			return nil, err
		}

		kind := memory.KindFragment
		if raw, ok := params.Input["kind"]; ok {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("kind must be a string")
			}
			kind = memory.Kind(s)
		}

		pinned := false
		if raw, ok := params.Input["pinned"]; ok {
			b, ok := raw.(bool)
			if !ok {
				return nil, fmt.Errorf("pinned must be a boolean")
			}
			pinned = b
		}

		entry, dups, err := mgr.Remember(ctx, content, kind, pinned)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			contents := make([]string, len(dups))
			for i, d := range dups {
				contents[i] = d.Entry.Content
			}
			return map[string]interface{}{
				"stored":     false,
				"duplicates": contents,
			}, nil
		}
		return map[string]interface{}{
			"stored": true,
			"id":     entry.ID,
		}, nil
	}
}

func recallHandler(mgr *memory.Manager) core.Handler {
	return func(ctx context.Context, params *core.CallParams) (interface{}, error) {
		query, err := stringArg(params, "query")
		if err != nil {
			return nil, err
		}

		budget := 1024
		if raw, ok := params.Input["budget"]; ok {
			// JSON numbers decode as float64.
			f, ok := raw.(float64)
			if !ok || f <= 0 {
				return nil, fmt.Errorf("budget must be a positive integer")
			}
			budget = int(f)
		}

		memories, err := mgr.Retrieve(ctx, query, budget)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"memories": memories}, nil
	}
}

func forgetHandler(mgr *memory.Manager) core.Handler {
	return func(ctx context.Context, params *core.CallParams) (interface{}, error) {
		id, err := stringArg(params, "id")
		if err != nil {
			return nil, err
		}
		if err := mgr.Forget(ctx, id); err != nil {
			return nil, err
		}
		return map[string]interface{}{"deleted": true}, nil
	}
}

func stringArg(params *core.CallParams, key string) (string, error) {
	raw, ok := params.Input[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%s must be a non-empty string", key)
	}
	return s, nil
}
