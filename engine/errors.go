package engine

import "errors"

// Reserved result names for protocol-level errors. These are not
// capability names; they flag violations of the call protocol itself.
const (
	// MixedContentErrorName flags a response that interleaves prose
	// with function-call blocks.
	MixedContentErrorName = "MixedContentError"

	// FunctionCallLimitErrorName flags a turn that kept producing calls
	// past the cycle ceiling.
	FunctionCallLimitErrorName = "FunctionCallLimitError"

	// UnknownCallName labels malformed call blocks whose name could not
	// be recovered from the payload.
	UnknownCallName = "unknown"
)

// ErrMixedContent signals a model protocol violation: a response must
// be either pure prose or pure function calls, never both. Surfaced to
// the model so it can self-correct; never fatal.
var ErrMixedContent = errors.New("response mixes prose with function calls; reply with either prose or function calls, not both")

// ErrCallLimit terminates the current turn once the model has produced
// calls for more consecutive cycles than allowed. The conversation may
// continue on the next user turn.
var ErrCallLimit = errors.New("function call limit exceeded for this turn")
