package turnnode

import (
	"fmt"
	"strings"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

// FinalizeTurn projects the trace into the facade shape: the last user
// message and the last non-empty assistant message, nothing else.
func FinalizeTurn(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrInvalidArgument)
	}
	if strings.TrimSpace(in.Final) == "" {
		return GraphOutput{}, fmt.Errorf("%w: turn produced no reply", contractx.ErrSchemaViolation)
	}

	var lastUser, lastAssistant *contractx.Message
	for i := range in.Trace {
		msg := &in.Trace[i]
		switch {
		case msg.Role == contractx.RoleUser:
			lastUser = msg
		case msg.Role == contractx.RoleAssistant && strings.TrimSpace(msg.Content) != "":
			lastAssistant = msg
		}
	}

	var messages []contractx.TurnMessage
	if lastUser != nil {
		messages = append(messages, contractx.TurnMessage{Role: contractx.RoleUser, Content: lastUser.Content})
	}
	if lastAssistant != nil {
		messages = append(messages, contractx.TurnMessage{Role: contractx.RoleAssistant, Content: lastAssistant.Content})
	}

	return GraphOutput{Result: contractx.TurnResult{
		ThreadID:         in.Req.ThreadID,
		Messages:         messages,
		ActiveCapability: in.Active,
	}}, nil
}
