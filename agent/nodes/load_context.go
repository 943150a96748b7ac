package turnnode

import (
	"context"
	"fmt"

	contextx "github.com/nravee/Roamly-Travel-Concierge/agent/context"
	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

func LoadContext(ctx context.Context, in *GraphState, manager *contextx.Manager) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrInvalidArgument)
	}

	window, summary, err := manager.Snapshot(ctx, in.Req.ThreadID)
	if err != nil {
		return nil, err
	}

	in.Window = window
	if summary != nil {
		in.Summary = summary.Text
	}
	return in, nil
}
