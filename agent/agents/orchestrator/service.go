// Package orchestrator drives one turn end to end: thread state, routing,
// capability rounds, tool execution, context maintenance. Turns on the same
// thread are serialized; different threads run concurrently.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"

	contextx "github.com/nravee/Roamly-Travel-Concierge/agent/context"
	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
	turnnode "github.com/nravee/Roamly-Travel-Concierge/agent/nodes"
	routerx "github.com/nravee/Roamly-Travel-Concierge/agent/router"
	statex "github.com/nravee/Roamly-Travel-Concierge/agent/state"
)

var (
	ErrInvalidThread    = turnnode.ErrInvalidThread
	ErrInvalidUser      = turnnode.ErrInvalidUser
	ErrInvalidUtterance = turnnode.ErrInvalidUtterance
)

type Config struct {
	TenantID string
	// MaxHops caps capability hand-offs in one turn.
	MaxHops int
	// MaxToolRounds caps tool-execution rounds per capability per turn.
	MaxToolRounds int
}

type Orchestrator struct {
	store    statex.Store
	registry contractx.Registry
	tools    contractx.ToolGateway
	contexts *contextx.Manager
	router   *routerx.Router
	locks    *statex.ThreadLocks

	graphRunner compose.Runnable[turnnode.GraphInput, turnnode.GraphOutput]

	tenantID string
	budget   turnnode.RunBudget
	now      func() time.Time
	log      zerolog.Logger
}

func New(
	store statex.Store,
	registry contractx.Registry,
	tools contractx.ToolGateway,
	contexts *contextx.Manager,
	cfg Config,
	log zerolog.Logger,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if registry == nil {
		return nil, errors.New("capability registry is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if contexts == nil {
		return nil, errors.New("context manager is required")
	}

	tenantID := strings.TrimSpace(cfg.TenantID)
	if tenantID == "" {
		tenantID = "default-tenant"
	}
	maxHops := cfg.MaxHops
	if maxHops <= 0 {
		maxHops = 5
	}
	maxToolRounds := cfg.MaxToolRounds
	if maxToolRounds <= 0 {
		maxToolRounds = 4
	}

	o := &Orchestrator{
		store:    store,
		registry: registry,
		tools:    tools,
		contexts: contexts,
		router:   routerx.New(registry, log),
		locks:    statex.NewThreadLocks(),
		tenantID: tenantID,
		budget:   turnnode.RunBudget{MaxHops: maxHops, MaxToolRounds: maxToolRounds},
		now:      time.Now,
		log:      log,
	}

	graphRunner, err := o.compileHandleTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleTurn runs one completion-boundary turn. The thread lock makes turns
// on the same thread strictly sequential.
func (o *Orchestrator) HandleTurn(ctx context.Context, req contractx.TurnRequest) (contractx.TurnResult, error) {
	release := o.locks.Acquire(req.ThreadID)
	defer release()

	out, err := o.graphRunner.Invoke(ctx, turnnode.GraphInput{
		ThreadID:  req.ThreadID,
		UserID:    req.UserID,
		Utterance: req.Utterance,
	})
	if err != nil {
		return contractx.TurnResult{}, err
	}
	return out.Result, nil
}
