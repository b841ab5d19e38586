// Package orchestrator drives one customer request through availability,
// pricing and recording, in that order, and renders a single reply.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	nodex "github.com/tanpawarit/paper-supply-agents/agent/nodes/orchestrator"
	metricsx "github.com/tanpawarit/paper-supply-agents/pkg/metrics"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrMissingDate    = nodex.ErrMissingDate
)

type Outcome = nodex.Outcome

type Orchestrator struct {
	workers     contractx.WorkerFactory
	graphRunner compose.Runnable[contractx.Request, nodex.Outcome]
}

func New(workers contractx.WorkerFactory) (*Orchestrator, error) {
	if workers == nil {
		return nil, errors.New("worker factory is required")
	}

	o := &Orchestrator{workers: workers}

	graphRunner, err := o.compileHandleRequestGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Process runs the full cycle for one request. Transactions committed before
// a failure stay in the ledger. Errors come back without the graph run
// envelope, so their message is the one the failing step produced.
func (o *Orchestrator) Process(ctx context.Context, req contractx.Request) (Outcome, error) {
	start := time.Now()

	out, err := o.graphRunner.Invoke(ctx, req)
	switch {
	case err != nil:
		metricsx.ObserveRequest(start, metricsx.StatusError)
		return Outcome{}, contractx.RootCause(err)
	case out.Fulfilled():
		metricsx.ObserveRequest(start, "fulfilled")
	default:
		metricsx.ObserveRequest(start, "unfulfilled")
	}
	return out, nil
}

// HandleRequest never fails: errors become an "Error: " reply scoped to this request.
func (o *Orchestrator) HandleRequest(ctx context.Context, req contractx.Request) string {
	out, err := o.Process(ctx, req)
	if err != nil {
		log.Error().Err(err).Time("date", req.Date).Msg("request failed")
		return "Error: " + err.Error()
	}
	return out.Reply
}
