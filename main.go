package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/nravee/Roamly-Travel-Concierge/agent/agents/capability"
	"github.com/nravee/Roamly-Travel-Concierge/agent/agents/orchestrator"
	contextx "github.com/nravee/Roamly-Travel-Concierge/agent/context"
	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
	llmx "github.com/nravee/Roamly-Travel-Concierge/agent/llm"
	"github.com/nravee/Roamly-Travel-Concierge/agent/memory"
	"github.com/nravee/Roamly-Travel-Concierge/agent/places"
	statex "github.com/nravee/Roamly-Travel-Concierge/agent/state"
	toolx "github.com/nravee/Roamly-Travel-Concierge/agent/tool"
	"github.com/nravee/Roamly-Travel-Concierge/agent/trip"
	configx "github.com/nravee/Roamly-Travel-Concierge/pkg/config"
	embeddingx "github.com/nravee/Roamly-Travel-Concierge/pkg/embedding"
	logx "github.com/nravee/Roamly-Travel-Concierge/pkg/logger"
	_ "github.com/nravee/Roamly-Travel-Concierge/pkg/logger/autoload"
	postgresx "github.com/nravee/Roamly-Travel-Concierge/pkg/postgres"
)

type AppConfig struct {
	TenantID      string `envconfig:"TENANT_ID" split_words:"true" default:"default-tenant"`
	UserID        string `envconfig:"USER_ID" split_words:"true" default:"local-user"`
	MaxHops       int    `envconfig:"MAX_HOPS" split_words:"true" default:"5"`
	MaxToolRounds int    `envconfig:"MAX_TOOL_ROUNDS" split_words:"true" default:"4"`
}

func main() {
	ctx := context.Background()
	log := logx.Component("main")

	appCfg := configx.MustLoad[AppConfig]("APP")

	db, err := postgresx.New(*configx.MustLoad[postgresx.Config]("POSTGRES"))
	if err != nil {
		log.Fatal().Err(err).Msg("open postgres")
	}
	defer db.Close()

	threads, err := statex.NewUpstashRedisStore(*configx.MustLoad[statex.UpstashRedisConfig]("UPSTASH_REDIS"))
	if err != nil {
		log.Fatal().Err(err).Msg("create thread store")
	}

	memories, err := memory.NewPostgresStore(db, *configx.MustLoad[memory.Config]("MEMORY"))
	if err != nil {
		log.Fatal().Err(err).Msg("create memory store")
	}
	placeIndex, err := places.NewPostgresIndex(db, *configx.MustLoad[places.Config]("PLACES"))
	if err != nil {
		log.Fatal().Err(err).Msg("create place index")
	}
	contextStore, err := contextx.NewPostgresStore(db, *configx.MustLoad[contextx.StoreConfig]("CONTEXT_STORE"))
	if err != nil {
		log.Fatal().Err(err).Msg("create context store")
	}
	trips, err := trip.NewPostgresStore(db, *configx.MustLoad[trip.Config]("TRIP"))
	if err != nil {
		log.Fatal().Err(err).Msg("create trip store")
	}

	embedder, err := embeddingx.NewOpenAIEmbedder(*configx.MustLoad[embeddingx.Config]("EMBEDDING"))
	if err != nil {
		log.Fatal().Err(err).Msg("create embedder")
	}

	registry, err := capability.NewRegistry(ctx, *configx.MustLoad[llmx.Config]("OPENROUTER"))
	if err != nil {
		log.Fatal().Err(err).Msg("build capability registry")
	}

	gateway, err := toolx.NewGateway(memories, placeIndex, contextStore, trips, embedder,
		*configx.MustLoad[toolx.GatewayConfig]("GATEWAY"), logx.Component("gateway"))
	if err != nil {
		log.Fatal().Err(err).Msg("build tool gateway")
	}

	summarizer := registry.Summarizer()
	summarize := func(ctx context.Context, prior string, window []contractx.Message) (string, error) {
		resp, err := summarizer.Run(ctx, contractx.CapabilityRequest{
			Utterance: contextx.RenderTranscript(prior, window),
		})
		if err != nil {
			return "", err
		}
		return resp.Message, nil
	}

	manager, err := contextx.NewManager(contextStore, summarize,
		*configx.MustLoad[contextx.Config]("CONTEXT"), logx.Component("context"))
	if err != nil {
		log.Fatal().Err(err).Msg("build context manager")
	}

	orch, err := orchestrator.New(threads, registry, gateway, manager, orchestrator.Config{
		TenantID:      appCfg.TenantID,
		MaxHops:       appCfg.MaxHops,
		MaxToolRounds: appCfg.MaxToolRounds,
	}, logx.Component("orchestrator"))
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	runREPL(ctx, orch, appCfg.UserID)
}

// runREPL is the local development facade: one thread per process, one turn
// per line.
func runREPL(ctx context.Context, orch *orchestrator.Orchestrator, userID string) {
	threadID := "thr_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	fmt.Printf("thread %s (ctrl-d to quit)\n", threadID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		utterance := strings.TrimSpace(scanner.Text())
		if utterance == "" {
			continue
		}

		result, err := orch.HandleTurn(ctx, contractx.TurnRequest{
			ThreadID:  threadID,
			UserID:    userID,
			Utterance: utterance,
		})
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		for _, msg := range result.Messages {
			if msg.Role == contractx.RoleAssistant {
				fmt.Println(msg.Content)
			}
		}
	}
}
