package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CallTag is the fence language tag that marks a structured call
// block in model output.
const CallTag = "function"

const (
	fenceOpen  = "```" + CallTag
	fenceClose = "```"
)

// Call is one extracted call request. A well-formed call carries Name,
// Input and the async flag; a malformed one carries Name (or "unknown")
// and Err.
type Call struct {
	Name  string
	Input map[string]interface{}
	Async bool
	Err   error
}

// Failed reports whether the request was malformed.
func (c Call) Failed() bool {
	return c.Err != nil
}

// ExtractCalls scans model output for fenced call blocks and returns
// the parsed requests ordered error results first, then synchronous
// calls, then asynchronous calls. Downstream processing depends on
// that ordering.
//
// When at least one block was matched and the remaining text is not
// blank, the whole batch is replaced by a single MixedContentError
// result: the model is expected to emit either pure prose or pure
// calls, never both, and a protocol violation voids the batch.
//
// The scanner is an explicit line walker, not a regexp: an opening
// fence pairs with the nearest closing fence, and an unclosed opener
// counts as prose.
func ExtractCalls(text string) []Call {
	blocks, residual := splitCallBlocks(text)

	var errCalls, syncCalls, asyncCalls []Call
	for _, block := range blocks {
		call := parseCallBlock(block)
		switch {
		case call.Failed():
			errCalls = append(errCalls, call)
		case call.Async:
			asyncCalls = append(asyncCalls, call)
		default:
			syncCalls = append(syncCalls, call)
		}
	}

	if len(blocks) > 0 && strings.TrimSpace(residual) != "" {
		return []Call{{Name: MixedContentErrorName, Err: ErrMixedContent}}
	}

	out := make([]Call, 0, len(errCalls)+len(syncCalls)+len(asyncCalls))
	out = append(out, errCalls...)
	out = append(out, syncCalls...)
	out = append(out, asyncCalls...)
	return out
}

// splitCallBlocks separates fenced call payloads from the surrounding
// prose. The residual is the input text with every matched fence
// removed.
func splitCallBlocks(text string) (blocks []string, residual string) {
	lines := strings.Split(text, "\n")

	var outside []string
	var inside []string
	open := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case !open && trimmed == fenceOpen:
			open = true
			inside = inside[:0]
		case open && trimmed == fenceClose:
			open = false
			blocks = append(blocks, strings.Join(inside, "\n"))
		case open:
			inside = append(inside, line)
		default:
			outside = append(outside, line)
		}
	}

	// An unclosed fence is prose, not a call.
	if open {
		outside = append(outside, fenceOpen)
		outside = append(outside, inside...)
	}

	return blocks, strings.Join(outside, "\n")
}

// parseCallBlock decodes one fenced payload into a Call. Parse and
// shape failures become error results rather than hard failures so the
// model can self-correct.
func parseCallBlock(block string) Call {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(block), &payload); err != nil {
		return Call{Name: UnknownCallName, Err: fmt.Errorf("invalid call JSON: %w", err)}
	}

	name := UnknownCallName
	if n, ok := payload["name"].(string); ok && n != "" {
		name = n
	} else {
		return Call{Name: UnknownCallName, Err: fmt.Errorf(`call is missing required string field "name"`)}
	}

	rawInput, ok := payload["input"]
	if !ok {
		return Call{Name: name, Err: fmt.Errorf(`call %q is missing required object field "input"`, name)}
	}
	input, ok := rawInput.(map[string]interface{})
	if !ok {
		return Call{Name: name, Err: fmt.Errorf(`call %q field "input" must be an object`, name)}
	}

	async := false
	if rawAsync, ok := payload["async"]; ok {
		b, ok := rawAsync.(bool)
		if !ok {
			return Call{Name: name, Err: fmt.Errorf(`call %q field "async" must be a boolean`, name)}
		}
		async = b
	}

	return Call{Name: name, Input: input, Async: async}
}
