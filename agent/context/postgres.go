package context

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

type messageRow struct {
	bun.BaseModel `bun:"table:messages,alias:msg"`

	Seq         int64     `bun:"seq,pk,autoincrement"`
	ID          string    `bun:"id,notnull"`
	ThreadID    string    `bun:"thread_id,notnull"`
	Role        string    `bun:"role,notnull"`
	Content     string    `bun:"content"`
	Capability  string    `bun:"capability"`
	ToolCallIDs []string  `bun:"tool_call_ids,array"`
	Superseded  bool      `bun:"superseded,notnull,default:false"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

func (r messageRow) toMessage() contractx.Message {
	return contractx.Message{
		ID:          r.ID,
		Role:        contractx.Role(r.Role),
		Content:     r.Content,
		Capability:  contractx.CapabilityType(r.Capability),
		ToolCallIDs: r.ToolCallIDs,
		CreatedAt:   r.CreatedAt,
	}
}

type summaryRow struct {
	bun.BaseModel `bun:"table:summaries,alias:s"`

	ID         string    `bun:"id,pk"`
	ThreadID   string    `bun:"thread_id,notnull"`
	FromSeq    int       `bun:"from_seq,notnull"`
	ToSeq      int       `bun:"to_seq,notnull"`
	Text       string    `bun:"text,notnull"`
	Supersedes []string  `bun:"supersedes,array"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

type toolEventRow struct {
	bun.BaseModel `bun:"table:tool_events,alias:te"`

	Seq       int64     `bun:"seq,pk,autoincrement"`
	ThreadID  string    `bun:"thread_id,notnull"`
	Tool      string    `bun:"tool,notnull"`
	Args      string    `bun:"args"`
	OK        bool      `bun:"ok,notnull"`
	Payload   string    `bun:"payload"`
	ErrorKind string    `bun:"error_kind"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type StoreConfig struct {
	QueryTimeout time.Duration `envconfig:"QUERY_TIMEOUT" split_words:"true" default:"10s"`
}

// PostgresStore keeps the append-only message log, summary checkpoints, and
// the tool audit trail. Compression runs in one transaction so readers never
// observe a summary without its superseded flags.
type PostgresStore struct {
	db      *bun.DB
	timeout time.Duration
	now     func() time.Time
}

var _ contractx.ContextStore = (*PostgresStore)(nil)

func NewPostgresStore(db *bun.DB, cfg StoreConfig) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("bun db is required")
	}
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PostgresStore{db: db, timeout: timeout, now: time.Now}, nil
}

func (s *PostgresStore) Append(ctx context.Context, threadID string, msg contractx.Message) error {
	if strings.TrimSpace(threadID) == "" {
		return fmt.Errorf("%w: thread id is required", contractx.ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := messageRow{
		ID:          msg.ID,
		ThreadID:    threadID,
		Role:        string(msg.Role),
		Content:     msg.Content,
		Capability:  string(msg.Capability),
		ToolCallIDs: msg.ToolCallIDs,
		CreatedAt:   msg.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("%w: append message: %v", contractx.ErrRetrievalUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Window(ctx context.Context, threadID string) ([]contractx.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []messageRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("msg.thread_id = ?", threadID).
		Where("msg.superseded = FALSE").
		Order("msg.seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load window: %v", contractx.ErrRetrievalUnavailable, err)
	}

	out := make([]contractx.Message, len(rows))
	for i, r := range rows {
		out[i] = r.toMessage()
	}
	return out, nil
}

func (s *PostgresStore) LatestSummary(ctx context.Context, threadID string) (*contractx.ConversationSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row summaryRow
	err := s.db.NewSelect().
		Model(&row).
		Where("s.thread_id = ?", threadID).
		Order("s.to_seq DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load summary: %v", contractx.ErrRetrievalUnavailable, err)
	}

	return &contractx.ConversationSummary{
		ID:         row.ID,
		ThreadID:   row.ThreadID,
		FromSeq:    row.FromSeq,
		ToSeq:      row.ToSeq,
		Text:       row.Text,
		Supersedes: row.Supersedes,
		CreatedAt:  row.CreatedAt,
	}, nil
}

func (s *PostgresStore) Compress(ctx context.Context, summary contractx.ConversationSummary) error {
	if strings.TrimSpace(summary.ThreadID) == "" {
		return fmt.Errorf("%w: thread id is required", contractx.ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := summaryRow{
			ID:         summary.ID,
			ThreadID:   summary.ThreadID,
			FromSeq:    summary.FromSeq,
			ToSeq:      summary.ToSeq,
			Text:       summary.Text,
			Supersedes: summary.Supersedes,
			CreatedAt:  summary.CreatedAt,
		}
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return err
		}
		if len(summary.Supersedes) == 0 {
			return nil
		}
		_, err := tx.NewUpdate().
			Model((*messageRow)(nil)).
			Set("superseded = TRUE").
			Where("thread_id = ?", summary.ThreadID).
			Where("id IN (?)", bun.In(summary.Supersedes)).
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: compress window: %v", contractx.ErrRetrievalUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) RecordToolEvent(ctx context.Context, threadID string, req contractx.ToolRequest, res contractx.ToolResult) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args, _ := json.Marshal(req.Args)
	payload, _ := json.Marshal(res.Result)
	row := toolEventRow{
		ThreadID:  threadID,
		Tool:      req.Tool,
		Args:      string(args),
		OK:        res.OK,
		Payload:   string(payload),
		CreatedAt: s.now().UTC(),
	}
	if res.Error != nil {
		row.ErrorKind = res.Error.Kind
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("%w: record tool event: %v", contractx.ErrRetrievalUnavailable, err)
	}
	return nil
}
