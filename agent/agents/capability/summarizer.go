package capability

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
	toolx "github.com/nravee/Roamly-Travel-Concierge/agent/tool"
)

// summarizerImpl produces compression text. It runs without bound tools: the
// context manager hands it the transcript directly, so there is nothing for
// it to fetch.
type summarizerImpl struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Capability = (*summarizerImpl)(nil)

func newSummarizer(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
) (*summarizerImpl, error) {
	runner, err := compileTurnGraph(ctx, chatModel, systemPrompt, "capability.summarizer")
	if err != nil {
		return nil, fmt.Errorf("%w: compile summarizer graph: %v", contractx.ErrModelInvoke, err)
	}
	return &summarizerImpl{runner: runner}, nil
}

func (s *summarizerImpl) Type() contractx.CapabilityType { return contractx.CapabilitySummarizer }

func (s *summarizerImpl) Tools() []string { return toolx.PaletteFor(contractx.CapabilitySummarizer) }

func (s *summarizerImpl) Matches(string) bool { return false }

// Run condenses the transcript carried in the utterance into summary text.
func (s *summarizerImpl) Run(ctx context.Context, req contractx.CapabilityRequest) (contractx.CapabilityResponse, error) {
	msg, err := s.runner.Invoke(ctx, map[string]any{"input": req.Utterance})
	if err != nil {
		return contractx.CapabilityResponse{}, fmt.Errorf("%w: summarizer invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return contractx.CapabilityResponse{}, fmt.Errorf("%w: empty summarizer response", contractx.ErrSchemaViolation)
	}
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return contractx.CapabilityResponse{}, fmt.Errorf("%w: summarizer produced empty text", contractx.ErrSchemaViolation)
	}
	return contractx.CapabilityResponse{Message: text}, nil
}
