package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roamwise/go-trip-planner/app/tracer"
	"github.com/roamwise/go-trip-planner/config"
	"github.com/roamwise/go-trip-planner/internal/agents"
	"github.com/roamwise/go-trip-planner/internal/assistant"
	"github.com/roamwise/go-trip-planner/internal/llm"
	"github.com/roamwise/go-trip-planner/internal/providers"
	"github.com/roamwise/go-trip-planner/internal/router"
	"github.com/roamwise/go-trip-planner/internal/server"
	"github.com/roamwise/go-trip-planner/internal/types"
)

// Execute runs the command tree: a one-shot query (or REPL) by default,
// plus a serve subcommand for the HTTP API.
func Execute(cfg config.Config, logger *slog.Logger) error {
	var (
		forceAgent    string
		debug         bool
		noRouteBanner bool
	)

	root := &cobra.Command{
		Use:   "roamwise [query]",
		Short: "Natural-language travel assistant: weather, places and itineraries",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildAssistant(ctx, cfg, logger)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return interactiveLoop(ctx, a, forceAgent, debug, !noRouteBanner)
			}
			query := strings.Join(args, " ")
			printResult(a.Handle(ctx, query, forceAgent), debug, !noRouteBanner)
			return nil
		},
	}
	root.Flags().StringVar(&forceAgent, "agent", assistant.AgentAuto,
		"Force a specific agent (auto, weather, poi, plan)")
	root.Flags().BoolVar(&debug, "debug", false, "Show internal observation JSON")
	root.Flags().BoolVar(&noRouteBanner, "no-route-banner", false, "Hide the 'Routed to: ...' banner")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			metricsHandler, err := tracer.Init("RoamWise")
			if err != nil {
				return err
			}
			a, err := buildAssistant(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			srv := server.New(a, logger)
			return srv.ListenAndServe(cmd.Context(), cfg.Server.HTTPPort, srv.Routes(metricsHandler))
		},
	}
	root.AddCommand(serveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return root.ExecuteContext(ctx)
}

// buildAssistant wires the production pipeline. A missing chat API key
// fails here, before any query is accepted.
func buildAssistant(ctx context.Context, cfg config.Config, logger *slog.Logger) (*assistant.Assistant, error) {
	chatClient, err := llm.NewGeminiClient(ctx, cfg.LLM.Model)
	if err != nil {
		return nil, err
	}

	geocoder := providers.NewGeocodingClient()
	weatherClient := providers.NewWeatherClient(geocoder, logger)
	poiClient := providers.NewPOIClient(os.Getenv("OPENTRIPMAP_API_KEY"), geocoder, logger)

	weatherAgent := agents.NewWeatherAgent(weatherClient, logger)
	poiAgent := agents.NewPOIAgent(poiClient, chatClient, cfg.App.POILimit, logger)
	plannerAgent := agents.NewPlannerAgent(weatherAgent, poiAgent, chatClient, logger)

	r := router.New(chatClient, geocoder, logger)
	return assistant.New(r, weatherAgent, poiAgent, plannerAgent,
		cfg.App.Timezone, cfg.App.DefaultCity, logger), nil
}

// interactiveLoop is the REPL: one query per line, help text for small
// talk, exit on end-of-input or interrupt.
func interactiveLoop(ctx context.Context, a *assistant.Assistant, forceAgent string, debug, showBanner bool) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			fmt.Println("\nBye!")
			return scanner.Err()
		}
		if ctx.Err() != nil {
			fmt.Println("\nBye!")
			return nil
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		printResult(a.Handle(ctx, query, forceAgent), debug, showBanner)
	}
}

func printResult(res assistant.Result, debug, showBanner bool) {
	if res.Chitchat {
		fmt.Println(res.Report)
		return
	}
	if showBanner {
		fmt.Println(res.Banner)
	}
	fmt.Println(res.Report)
	if debug && res.Observation != nil {
		fmt.Println("── " + observationTitle(res.Intent) + " ──")
		js, err := json.MarshalIndent(res.Observation, "", "  ")
		if err != nil {
			fmt.Println("(observation not serializable)")
			return
		}
		fmt.Println(string(js))
	}
}

func observationTitle(intent types.Intent) string {
	switch intent {
	case types.IntentWeather:
		return "Weather JSON"
	case types.IntentPOI:
		return "POIs JSON"
	default:
		return "Planner Context JSON"
	}
}
