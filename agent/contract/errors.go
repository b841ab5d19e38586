package contract

import (
	"errors"
	"strings"
)

var (
	ErrModelInvoke         = errors.New("model invoke failed")
	ErrSchemaViolation     = errors.New("model response violates schema")
	ErrPromptMissing       = errors.New("required prompt is missing")
	ErrValidation          = errors.New("validation failed")
	ErrUnknownTool         = errors.New("tool is not offered to this agent")
	ErrStepBudgetExhausted = errors.New("step budget exhausted")
	ErrInvalidSaleTotal    = errors.New("sale total must be positive")
	ErrStockNotFound       = errors.New("no stock history for item")
)

// graphEnvelopes are the headers eino puts on node and graph run failures.
var graphEnvelopes = []string{"[NodeRunError]\n", "[GraphRunError]\n"}

// RootCause strips graph run envelopes so the message names only what failed.
// The returned error still matches the same sentinels under errors.Is.
func RootCause(err error) error {
	for err != nil && isGraphEnvelope(err) {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return err
}

func isGraphEnvelope(err error) bool {
	msg := err.Error()
	for _, prefix := range graphEnvelopes {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
