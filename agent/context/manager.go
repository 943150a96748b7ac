// Package context owns the conversation window lifecycle: append-only
// message logging, the summarization trigger, and the recency tail kept
// verbatim after compression.
package context

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

type Config struct {
	// MaxMessages is the retained-window count threshold.
	MaxMessages int `envconfig:"MAX_MESSAGES" split_words:"true" default:"20"`
	// TokenBudget is the approximate token threshold for the window.
	TokenBudget int `envconfig:"TOKEN_BUDGET" split_words:"true" default:"8000"`
	// RecencyWindow is how many recent messages survive compression verbatim.
	RecencyWindow int `envconfig:"RECENCY_WINDOW" split_words:"true" default:"6"`
}

// SummarizeFunc synthesizes summary text from the full retained window. The
// prior summary text, when present, is folded into the new one. Only the
// window prefix is superseded afterwards; the recency tail stays verbatim.
type SummarizeFunc func(ctx context.Context, prior string, window []contractx.Message) (string, error)

// Manager is the only mutation path for a thread's retained window.
type Manager struct {
	store     contractx.ContextStore
	summarize SummarizeFunc
	cfg       Config
	now       func() time.Time
	log       zerolog.Logger
}

func NewManager(store contractx.ContextStore, summarize SummarizeFunc, cfg Config, log zerolog.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("context store is required")
	}
	if summarize == nil {
		return nil, fmt.Errorf("summarize func is required")
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 20
	}
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = 8000
	}
	if cfg.RecencyWindow <= 0 {
		cfg.RecencyWindow = 6
	}
	return &Manager{
		store:     store,
		summarize: summarize,
		cfg:       cfg,
		now:       time.Now,
		log:       log,
	}, nil
}

// Append records turn messages in order. Messages are immutable once
// appended.
func (m *Manager) Append(ctx context.Context, threadID string, msgs ...contractx.Message) error {
	for _, msg := range msgs {
		if err := m.store.Append(ctx, threadID, msg); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the retained window and the latest summary, if any.
func (m *Manager) Snapshot(ctx context.Context, threadID string) ([]contractx.Message, *contractx.ConversationSummary, error) {
	window, err := m.store.Window(ctx, threadID)
	if err != nil {
		return nil, nil, err
	}
	summary, err := m.store.LatestSummary(ctx, threadID)
	if err != nil {
		return nil, nil, err
	}
	return window, summary, nil
}

// EvaluateCompression checks the thresholds and, when crossed, replaces the
// window prefix with a synthesized summary while keeping the recency tail
// verbatim. Returns whether compression ran.
func (m *Manager) EvaluateCompression(ctx context.Context, threadID string) (bool, error) {
	window, err := m.store.Window(ctx, threadID)
	if err != nil {
		return false, err
	}

	tokens := EstimateTokens(window)
	if len(window) <= m.cfg.MaxMessages && tokens <= m.cfg.TokenBudget {
		return false, nil
	}
	if len(window) <= m.cfg.RecencyWindow {
		// Nothing to fold: the whole window is inside the recency tail.
		return false, nil
	}

	prior, err := m.store.LatestSummary(ctx, threadID)
	if err != nil {
		return false, err
	}
	priorText := ""
	fromSeq := 1
	if prior != nil {
		priorText = prior.Text
		fromSeq = prior.ToSeq + 1
	}

	prefix := window[:len(window)-m.cfg.RecencyWindow]
	text, err := m.summarize(ctx, priorText, window)
	if err != nil {
		return false, fmt.Errorf("summarize window: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return false, fmt.Errorf("%w: summarizer returned empty text", contractx.ErrSchemaViolation)
	}

	supersedes := make([]string, len(prefix))
	for i, msg := range prefix {
		supersedes[i] = msg.ID
	}

	summary := contractx.ConversationSummary{
		ID:         "sum_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		ThreadID:   threadID,
		FromSeq:    fromSeq,
		ToSeq:      fromSeq + len(prefix) - 1,
		Text:       text,
		Supersedes: supersedes,
		CreatedAt:  m.now().UTC(),
	}

	if err := m.store.Compress(ctx, summary); err != nil {
		return false, err
	}

	m.log.Info().
		Str("thread_id", threadID).
		Int("superseded", len(supersedes)).
		Int("tail", m.cfg.RecencyWindow).
		Int("approx_tokens", tokens).
		Msg("compressed conversation window")
	return true, nil
}

// EstimateTokens approximates the window's token footprint: four bytes per
// token plus a small per-message envelope.
func EstimateTokens(msgs []contractx.Message) int {
	total := 0
	for _, msg := range msgs {
		total += len(msg.Content)/4 + 4
	}
	return total
}

// RenderTranscript flattens a window into the plain-text form handed to the
// summarizer capability.
func RenderTranscript(prior string, msgs []contractx.Message) string {
	var b strings.Builder
	if strings.TrimSpace(prior) != "" {
		b.WriteString("Previous summary:\n")
		b.WriteString(strings.TrimSpace(prior))
		b.WriteString("\n\n")
	}
	for _, msg := range msgs {
		b.WriteString(string(msg.Role))
		if msg.Capability != "" {
			b.WriteString("(")
			b.WriteString(string(msg.Capability))
			b.WriteString(")")
		}
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
