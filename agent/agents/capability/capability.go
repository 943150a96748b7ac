// Package capability implements the conversational variants: the travel
// specialists, the orchestrator's direct-answer path, and the summarizer.
// Each one is a prompt plus a tool-bound chat model; the orchestrator
// executes the tool calls they raise.
package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
	toolx "github.com/nravee/Roamly-Travel-Concierge/agent/tool"
)

type capabilityImpl struct {
	typ          contractx.CapabilityType
	runner       compose.Runnable[map[string]any, *schema.Message]
	allowedTools map[string]struct{}
	matches      func(string) bool
}

var _ contractx.Capability = (*capabilityImpl)(nil)

func newCapability(
	ctx context.Context,
	typ contractx.CapabilityType,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	matches func(string) bool,
) (*capabilityImpl, error) {
	infos := toolx.InfosFor(typ)

	boundModel := einomodel.BaseChatModel(chatModel)
	if len(infos) > 0 {
		withTools, err := chatModel.WithTools(infos)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools for capability=%s: %v", contractx.ErrModelInvoke, typ, err)
		}
		boundModel = withTools
	}

	runner, err := compileTurnGraph(ctx, boundModel, systemPrompt, fmt.Sprintf("capability.%s", typ))
	if err != nil {
		return nil, fmt.Errorf("%w: compile capability=%s graph: %v", contractx.ErrModelInvoke, typ, err)
	}

	allowed := make(map[string]struct{})
	for _, name := range toolx.PaletteFor(typ) {
		allowed[name] = struct{}{}
	}
	if matches == nil {
		matches = func(string) bool { return false }
	}

	return &capabilityImpl{
		typ:          typ,
		runner:       runner,
		allowedTools: allowed,
		matches:      matches,
	}, nil
}

func (c *capabilityImpl) Type() contractx.CapabilityType { return c.typ }

func (c *capabilityImpl) Tools() []string { return toolx.PaletteFor(c.typ) }

func (c *capabilityImpl) Matches(utterance string) bool { return c.matches(utterance) }

// Run executes one model round. The response is exactly one of: a hand-off,
// a batch of tool requests for the orchestrator to execute, or the final
// message for this turn.
func (c *capabilityImpl) Run(ctx context.Context, req contractx.CapabilityRequest) (contractx.CapabilityResponse, error) {
	payload := turnPayload(req)
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.CapabilityResponse{}, fmt.Errorf("%w: marshal turn payload: %v", contractx.ErrInvalidArgument, err)
	}

	msg, err := c.runner.Invoke(ctx, map[string]any{"input": string(input)})
	if err != nil {
		return contractx.CapabilityResponse{}, fmt.Errorf("%w: capability=%s invoke: %v", contractx.ErrModelInvoke, c.typ, err)
	}
	if msg == nil {
		return contractx.CapabilityResponse{}, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
	}

	toolRequests, err := toToolRequests(msg.ToolCalls)
	if err != nil {
		return contractx.CapabilityResponse{}, err
	}

	// A hand-off call ends the round regardless of what else the model asked
	// for; the next capability restarts from the utterance.
	for _, tr := range toolRequests {
		if target, ok := toolx.HandoffTarget(tr.Tool); ok {
			if target == c.typ {
				return contractx.CapabilityResponse{}, fmt.Errorf("%w: capability=%s handed off to itself", contractx.ErrSchemaViolation, c.typ)
			}
			return contractx.CapabilityResponse{Handoff: target}, nil
		}
	}

	if len(toolRequests) > 0 {
		for _, tr := range toolRequests {
			if _, ok := c.allowedTools[tr.Tool]; !ok {
				return contractx.CapabilityResponse{}, fmt.Errorf("%w: tool=%s is not allowed for capability=%s", contractx.ErrSchemaViolation, tr.Tool, c.typ)
			}
		}
		return contractx.CapabilityResponse{ToolRequests: toolRequests}, nil
	}

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return contractx.CapabilityResponse{}, fmt.Errorf("%w: capability=%s produced neither message nor tool calls", contractx.ErrSchemaViolation, c.typ)
	}
	return contractx.CapabilityResponse{Message: content}, nil
}

func turnPayload(req contractx.CapabilityRequest) map[string]any {
	window := make([]map[string]string, 0, len(req.Window))
	for _, msg := range req.Window {
		window = append(window, map[string]string{
			"role":    string(msg.Role),
			"content": msg.Content,
		})
	}

	payload := map[string]any{
		"utterance": req.Utterance,
		"window":    window,
	}
	if req.Summary != "" {
		payload["summary"] = req.Summary
	}
	if len(req.ToolResults) > 0 {
		payload["tool_results"] = req.ToolResults
	}
	return payload
}

func toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		tool := strings.TrimSpace(call.Function.Name)
		if tool == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, tool, err)
			}
		}

		reqs = append(reqs, contractx.ToolRequest{Tool: tool, Args: args})
	}
	return reqs, nil
}
