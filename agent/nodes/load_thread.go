package turnnode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
	statex "github.com/nravee/Roamly-Travel-Concierge/agent/state"
)

func LoadOrCreateThread(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	tenantID string,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrInvalidArgument)
	}

	th, err := store.Load(ctx, in.Req.ThreadID)
	if errors.Is(err, statex.ErrThreadNotFound) {
		th = statex.NewThread(in.Req.ThreadID, tenantID, in.Req.UserID, in.Now)
		err = nil
	}
	if err != nil {
		return nil, err
	}

	registered := func(name string) bool {
		return contractx.CapabilityType(name).Registered()
	}
	if err := th.Validate(registered); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrInvalidArgument, err)
	}

	in.Thread = th
	in.Active = contractx.CapabilityType(th.ActiveCapability)
	return in, nil
}
