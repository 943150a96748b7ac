package turnnode

import (
	"context"
	"fmt"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
	statex "github.com/nravee/Roamly-Travel-Concierge/agent/state"
)

func SaveThread(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrInvalidArgument)
	}

	in.Thread.SetActiveCapability(string(in.Active), in.Now)
	registered := func(name string) bool {
		return contractx.CapabilityType(name).Registered()
	}
	if err := in.Thread.Validate(registered); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrInvalidArgument, err)
	}

	if err := store.Save(ctx, in.Thread); err != nil {
		return nil, err
	}
	return in, nil
}
