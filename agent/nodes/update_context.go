package turnnode

import (
	"context"
	"fmt"

	contextx "github.com/nravee/Roamly-Travel-Concierge/agent/context"
	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

// UpdateContext appends the turn's trace to the thread log, bumps the
// bookkeeping counters, and runs the compression check.
func UpdateContext(ctx context.Context, in *GraphState, manager *contextx.Manager) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrInvalidArgument)
	}

	if err := manager.Append(ctx, in.Req.ThreadID, in.Trace...); err != nil {
		return nil, err
	}
	in.Thread.CountMessages(len(in.Trace), in.Now)

	if _, err := manager.EvaluateCompression(ctx, in.Req.ThreadID); err != nil {
		return nil, err
	}
	return in, nil
}
