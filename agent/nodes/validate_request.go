// Package turnnode holds the lambda nodes of the turn-handling graph. Each
// node takes the shared GraphState, does one step, and hands it on.
package turnnode

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
	statex "github.com/nravee/Roamly-Travel-Concierge/agent/state"
)

var (
	ErrInvalidThread       = errors.New("thread id is empty")
	ErrInvalidUser         = errors.New("user id is empty")
	ErrInvalidUtterance    = errors.New("utterance is empty")
	ErrToolRoundsExhausted = errors.New("tool rounds exhausted")
)

// FallbackReply is what the traveler sees when a turn burns through the hop
// or tool-round budget without producing an answer.
const FallbackReply = "I wasn't able to finish that request. Could you say it another way?"

type GraphInput struct {
	ThreadID  string
	UserID    string
	Utterance string
}

type GraphOutput struct {
	Result contractx.TurnResult
}

type GraphState struct {
	Req contractx.TurnRequest
	Now time.Time

	Thread  *statex.Thread
	Window  []contractx.Message
	Summary string

	// Trace collects the messages this turn appends: the user utterance and
	// the assistant replies, in order.
	Trace  []contractx.Message
	Active contractx.CapabilityType
	Final  string
}

func NewMessageID() string {
	return "msg_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	threadID := strings.TrimSpace(in.ThreadID)
	if threadID == "" {
		return nil, ErrInvalidThread
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, ErrInvalidUser
	}
	utterance := strings.TrimSpace(in.Utterance)
	if utterance == "" {
		return nil, ErrInvalidUtterance
	}

	now := nowFn().UTC()
	return &GraphState{
		Req: contractx.TurnRequest{
			ThreadID:  threadID,
			UserID:    userID,
			Utterance: utterance,
		},
		Now: now,
		Trace: []contractx.Message{{
			ID:        NewMessageID(),
			Role:      contractx.RoleUser,
			Content:   utterance,
			CreatedAt: now,
		}},
	}, nil
}
