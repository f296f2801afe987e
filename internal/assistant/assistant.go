package assistant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roamwise/go-trip-planner/internal/agents"
	"github.com/roamwise/go-trip-planner/internal/nlp"
	"github.com/roamwise/go-trip-planner/internal/router"
	"github.com/roamwise/go-trip-planner/internal/types"
)

// AgentAuto lets the router pick the agent; the other values force one.
const (
	AgentAuto    = "auto"
	AgentWeather = "weather"
	AgentPOI     = "poi"
	AgentPlan    = "plan"
)

// Result is one completed query: a rendered report plus the structured
// observation behind it for debug display.
type Result struct {
	Chitchat    bool                 `json:"chitchat"`
	Intent      types.Intent         `json:"intent,omitempty"`
	Decision    *types.RouteDecision `json:"decision,omitempty"`
	Banner      string               `json:"banner,omitempty"`
	Report      string               `json:"report"`
	Observation any                  `json:"observation,omitempty"`
}

// Assistant wires the router and the domain agents behind one entry point
// shared by the CLI, the REPL and the HTTP server.
type Assistant struct {
	router      *router.Router
	weather     *agents.WeatherAgent
	poi         *agents.POIAgent
	planner     *agents.PlannerAgent
	timezone    string
	defaultCity string
	logger      *slog.Logger
}

func New(r *router.Router, weather *agents.WeatherAgent, poi *agents.POIAgent, planner *agents.PlannerAgent,
	timezone, defaultCity string, logger *slog.Logger) *Assistant {
	return &Assistant{
		router:      r,
		weather:     weather,
		poi:         poi,
		planner:     planner,
		timezone:    timezone,
		defaultCity: defaultCity,
		logger:      logger,
	}
}

// Handle runs one query through route + dispatch. forceAgent bypasses the
// router's intent (but not its city/date resolution) when it names an
// agent. Handle never returns an error; everything degrades into the
// report text.
func (a *Assistant) Handle(ctx context.Context, query, forceAgent string) Result {
	if forceAgent == AgentAuto && nlp.IsChitchat(query) {
		return Result{Chitchat: true, Report: nlp.HelpText}
	}

	d := a.router.Route(ctx, query, a.timezone)

	intent := d.Intent
	switch forceAgent {
	case AgentWeather:
		intent = types.IntentWeather
	case AgentPOI:
		intent = types.IntentPOI
	case AgentPlan:
		intent = types.IntentPlan
	default:
		if !types.ValidIntent(intent) {
			// The router could not confidently pick an agent.
			return Result{Chitchat: true, Report: nlp.HelpText}
		}
	}
	d.Intent = intent

	if d.City == "" {
		d.City = a.defaultCity
	}

	a.logger.InfoContext(ctx, "Dispatching query",
		slog.String("intent", string(intent)),
		slog.String("city", d.City),
		slog.String("start_date", d.StartDate),
		slog.String("end_date", d.EndDate),
	)

	res := Result{
		Intent:   intent,
		Decision: &d,
		Banner:   fmt.Sprintf("Routed to: %s • city=%s • dates=%s→%s", intent, d.City, d.StartDate, d.EndDate),
	}

	switch intent {
	case types.IntentWeather:
		res.Report, res.Observation = a.weather.Run(ctx, d)
	case types.IntentPOI:
		res.Report, res.Observation = a.poi.Run(ctx, query, d)
	default:
		res.Report, res.Observation = a.planner.Run(ctx, query, d)
	}
	return res
}
