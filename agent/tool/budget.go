package tool

import (
	"fmt"
	"sync"

	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
)

const DefaultMaxSteps = 10

// Budget caps the operations and model calls of one worker run.
type Budget struct {
	mu   sync.Mutex
	max  int
	used int
}

func NewBudget(max int) *Budget {
	if max <= 0 {
		max = DefaultMaxSteps
	}
	return &Budget{max: max}
}

func (b *Budget) Spend() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used >= b.max {
		return fmt.Errorf("%w: %d steps used", contractx.ErrStepBudgetExhausted, b.used)
	}
	b.used++
	return nil
}

func (b *Budget) Max() int { return b.max }

func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.max - b.used
}
