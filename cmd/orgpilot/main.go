package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"orgpilot/internal/adapter/embedding"
	"orgpilot/internal/adapter/llm"
	"orgpilot/internal/adapter/storage/file"
	"orgpilot/internal/adapter/storage/vector"
	"orgpilot/internal/domain"
	"orgpilot/internal/infra/config"
	"orgpilot/internal/infra/logger"
	"orgpilot/internal/infra/tracer"
	"orgpilot/internal/usecase"
)

const queryCacheSize = 256

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		}
	}

	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		if err := runChat(); err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
		return
	}

	switch os.Args[1] {
	case "chat":
		if err := runChat(); err != nil {
			fmt.Fprintf(os.Stderr, "chat: %v\n", err)
			os.Exit(1)
		}
	case "show":
		if err := runShow(); err != nil {
			fmt.Fprintf(os.Stderr, "show: %v\n", err)
			os.Exit(1)
		}
	case "clear":
		if err := runClear(); err != nil {
			fmt.Fprintf(os.Stderr, "clear: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'orgpilot --help' for usage information.\n", os.Args[1])
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`orgpilot - organizational management assistant

USAGE:
    orgpilot [COMMAND] [FLAGS]

COMMANDS:
    chat        Interactive chat with the configured agent (default)
    show        Print the current workspace snapshot
    clear       Wipe the chat history for the selected agent/page

FLAGS:
    -h, --help       Show this help message
    --config PATH    Config file path (default: ./orgpilot.yaml)
    --agent TYPE     Agent persona: organization, kpi, task, process, general
    --area ID        Scope the conversation to one area
    --page NAME      Conversation page key (default: the agent type)

CONFIGURATION:
    Config file: ./orgpilot.yaml
    Environment: ORGPILOT_* variables override config; GEMINI_API_KEY is
    picked up for Gemini providers.

EXAMPLES:
    orgpilot                           # chat with the default agent
    orgpilot --agent kpi --area a1     # KPI agent scoped to one area
    orgpilot show                      # dump organization, areas, KPIs
    orgpilot clear --agent kpi         # forget the KPI conversation`)
}

// cliFlags holds the flags shared by all commands.
type cliFlags struct {
	Config string
	Agent  string
	Area   string
	Page   string
}

func parseFlags() cliFlags {
	flags := cliFlags{Config: "orgpilot.yaml"}
	for i := 1; i < len(os.Args); i++ {
		switch {
		case os.Args[i] == "--config" && i+1 < len(os.Args):
			flags.Config = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--config="):
			flags.Config = strings.TrimPrefix(os.Args[i], "--config=")
		case os.Args[i] == "--agent" && i+1 < len(os.Args):
			flags.Agent = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--agent="):
			flags.Agent = strings.TrimPrefix(os.Args[i], "--agent=")
		case os.Args[i] == "--area" && i+1 < len(os.Args):
			flags.Area = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--area="):
			flags.Area = strings.TrimPrefix(os.Args[i], "--area=")
		case os.Args[i] == "--page" && i+1 < len(os.Args):
			flags.Page = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--page="):
			flags.Page = strings.TrimPrefix(os.Args[i], "--page=")
		}
	}
	return flags
}

// runtime is everything a command needs after wiring.
type runtime struct {
	cfg     *config.Config
	log     *slog.Logger
	store   domain.Store
	cleanup func()
}

func initRuntime(ctx context.Context, flags cliFlags) (*runtime, error) {
	cfg, err := config.Load(flags.Config)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		logCloser()
		return nil, fmt.Errorf("tracer: %w", err)
	}

	store, err := buildStore(cfg, log)
	if err != nil {
		tracerShutdown(ctx)
		logCloser()
		return nil, fmt.Errorf("storage: %w", err)
	}

	return &runtime{
		cfg:   cfg,
		log:   log,
		store: store,
		cleanup: func() {
			store.Close()
			tracerShutdown(ctx)
			logCloser()
		},
	}, nil
}

// buildStore selects the storage backend. The vector backend gets a Gemini
// embedder when one is configured; without a key it still works, degraded to
// keyword search.
func buildStore(cfg *config.Config, log *slog.Logger) (domain.Store, error) {
	switch cfg.Storage.Backend {
	case "vector":
		var embedder domain.EmbeddingProvider
		if cfg.Embedding.Provider == "gemini" && cfg.Embedding.APIKey != "" {
			opts := []embedding.Option{}
			if cfg.Embedding.Model != "" {
				opts = append(opts, embedding.WithModel(cfg.Embedding.Model))
			}
			if cfg.Embedding.BaseURL != "" {
				opts = append(opts, embedding.WithBaseURL(cfg.Embedding.BaseURL))
			}
			embedder = embedding.NewQueryCache(embedding.NewGeminiProvider(cfg.Embedding.APIKey, opts...), queryCacheSize)
		} else {
			log.Warn("no embedding provider configured, vector search degrades to keyword matching")
		}
		return vector.New(cfg.Storage.Path, embedder, log)
	default:
		return file.New(cfg.Storage.Path, log)
	}
}

func agentContext(cfg *config.Config, flags cliFlags) (domain.AgentContext, error) {
	agentType := flags.Agent
	if agentType == "" {
		agentType = cfg.Chat.DefaultAgent
	}
	actx := domain.AgentContext{
		Type:        domain.AgentType(agentType),
		AreaID:      flags.Area,
		CurrentPage: flags.Page,
	}
	if !actx.Type.Valid() {
		return actx, fmt.Errorf("unknown agent type %q (valid: %s)",
			agentType, strings.Join(agentTypeNames(), ", "))
	}
	return actx, nil
}

func agentTypeNames() []string {
	types := domain.AgentTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}

func runChat() error {
	flags := parseFlags()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := initRuntime(ctx, flags)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	actx, err := agentContext(rt.cfg, flags)
	if err != nil {
		return err
	}

	provider, _, err := llm.Build(rt.cfg.LLM, rt.log)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	model := ""
	for _, pc := range rt.cfg.LLM.Providers {
		if pc.Name == rt.cfg.LLM.DefaultProvider {
			model = pc.Model
			if pc.APIKey == "" {
				fmt.Fprintln(os.Stderr, "warning: no API key configured for the default provider; set GEMINI_API_KEY")
			}
		}
	}

	svc := usecase.NewChatService(provider, rt.store, rt.log, usecase.ChatConfig{
		Model:           model,
		MaxPromptTokens: rt.cfg.Chat.MaxPromptTokens,
		HistoryPageSize: rt.cfg.Chat.HistoryPageSize,
		LenientActions:  rt.cfg.Chat.LenientActions,
	})

	fmt.Printf("orgpilot chat (%s agent) - /history, /clear, /exit\n", actx.Type)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/clear":
			if err := svc.ClearHistory(ctx, actx); err != nil {
				fmt.Fprintf(os.Stderr, "clear: %v\n", err)
			} else {
				fmt.Println("history cleared")
			}
			continue
		case "/history":
			msgs, err := svc.History(ctx, actx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "history: %v\n", err)
				continue
			}
			for _, m := range msgs {
				fmt.Printf("[%s] %s\n", m.Role, m.Content)
			}
			continue
		}

		result, err := svc.Send(ctx, actx, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Printf("\n%s\n\n", result.Message)
		printApplied(result.Applied)
	}
}

func printApplied(applied []domain.AppliedAction) {
	for _, a := range applied {
		if a.Skipped {
			fmt.Printf("  ~ %s skipped: %s\n", a.Action.Kind, a.Reason)
			continue
		}
		name := ""
		if a.Action.Data.Name != nil {
			name = " " + *a.Action.Data.Name
		}
		fmt.Printf("  + %s%s (%s)\n", a.Action.Kind, name, a.EntityID)
	}
	if len(applied) > 0 {
		fmt.Println()
	}
}

func runShow() error {
	flags := parseFlags()
	ctx := context.Background()

	rt, err := initRuntime(ctx, flags)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	// The general-agent snapshot already lists everything with area names.
	info, err := usecase.BuildContextInfo(ctx, rt.store, domain.AgentContext{
		Type:   domain.AgentGeneral,
		AreaID: flags.Area,
	})
	if err != nil {
		return err
	}
	fmt.Println(info)
	return nil
}

func runClear() error {
	flags := parseFlags()
	ctx := context.Background()

	rt, err := initRuntime(ctx, flags)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	actx, err := agentContext(rt.cfg, flags)
	if err != nil {
		return err
	}

	page := flags.Page
	if page == "" {
		page = string(actx.Type)
	}
	if err := rt.store.ClearChatHistory(ctx, page); err != nil {
		return err
	}
	fmt.Printf("cleared chat history for %q\n", page)
	return nil
}
