package turnnode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
	routerx "github.com/nravee/Roamly-Travel-Concierge/agent/router"
)

type RunBudget struct {
	// MaxHops caps capability hand-offs in one turn.
	MaxHops int
	// MaxToolRounds caps tool-execution rounds per capability per turn.
	MaxToolRounds int
}

// RouteAndRun picks the owning capability and drives it to a final message,
// executing its tool requests between rounds. Budget exhaustion degrades to
// the fallback reply instead of failing the turn; model and gateway plumbing
// errors still abort it.
func RouteAndRun(
	ctx context.Context,
	in *GraphState,
	rtr *routerx.Router,
	registry contractx.Registry,
	tools contractx.ToolGateway,
	budget RunBudget,
	log zerolog.Logger,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrInvalidArgument)
	}

	err := runCapabilityLoop(ctx, in, rtr, registry, tools, budget)
	if err == nil {
		return in, nil
	}
	if errors.Is(err, contractx.ErrRoutingLoop) || errors.Is(err, ErrToolRoundsExhausted) {
		log.Warn().
			Err(err).
			Str("thread_id", in.Req.ThreadID).
			Msg("turn budget exhausted, degrading to fallback reply")
		in.Final = FallbackReply
		in.Active = ""
		in.Trace = append(in.Trace, contractx.Message{
			ID:         NewMessageID(),
			Role:       contractx.RoleAssistant,
			Content:    FallbackReply,
			Capability: contractx.CapabilityOrchestrator,
			CreatedAt:  in.Now,
		})
		return in, nil
	}
	return nil, err
}

func runCapabilityLoop(
	ctx context.Context,
	in *GraphState,
	rtr *routerx.Router,
	registry contractx.Registry,
	tools contractx.ToolGateway,
	budget RunBudget,
) error {
	next := rtr.Next(in.Active, in.Req.Utterance)
	hops := 0

	for {
		c, ok := registry.Capability(next)
		if !ok {
			return fmt.Errorf("%w: capability %q is not registered", contractx.ErrInvalidArgument, next)
		}

		req := contractx.CapabilityRequest{
			ThreadID:  in.Req.ThreadID,
			UserID:    in.Req.UserID,
			Utterance: in.Req.Utterance,
			Window:    in.Window,
			Summary:   in.Summary,
		}

		rounds := 0
		handoff := contractx.CapabilityType("")
		for {
			resp, err := c.Run(ctx, req)
			if err != nil {
				return err
			}

			if resp.Handoff != "" {
				handoff = resp.Handoff
				break
			}

			if len(resp.ToolRequests) > 0 {
				rounds++
				if rounds > budget.MaxToolRounds {
					return fmt.Errorf("%w: capability=%s exceeded %d rounds", ErrToolRoundsExhausted, next, budget.MaxToolRounds)
				}
				results := make([]contractx.ToolResult, 0, len(resp.ToolRequests))
				for _, tr := range resp.ToolRequests {
					results = append(results, tools.Invoke(ctx, next, stampIdentity(tr, in.Req)))
				}
				req.ToolResults = results
				continue
			}

			in.Final = resp.Message
			in.Active = next
			in.Trace = append(in.Trace, contractx.Message{
				ID:         NewMessageID(),
				Role:       contractx.RoleAssistant,
				Content:    resp.Message,
				Capability: next,
				CreatedAt:  in.Now,
			})
			return nil
		}

		hops++
		if hops >= budget.MaxHops {
			return fmt.Errorf("%w: %d hand-offs in one turn", contractx.ErrRoutingLoop, hops)
		}
		next = handoff
	}
}

// stampIdentity injects the caller's identity into the argument bag. The
// model never supplies user or thread ids.
func stampIdentity(tr contractx.ToolRequest, req contractx.TurnRequest) contractx.ToolRequest {
	args := make(map[string]any, len(tr.Args)+2)
	for k, v := range tr.Args {
		args[k] = v
	}
	args["user_id"] = req.UserID
	args["thread_id"] = req.ThreadID
	return contractx.ToolRequest{Tool: tr.Tool, Args: args}
}
