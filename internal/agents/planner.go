package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/roamwise/go-trip-planner/internal/llm"
	"github.com/roamwise/go-trip-planner/internal/types"
)

const plannerTemperature = 0.2

// PlannerAgent composes a multi-day itinerary from live weather and POI
// observations. The two fetches run concurrently; each source fails
// independently and the plan degrades rather than aborting.
type PlannerAgent struct {
	weather    *WeatherAgent
	poi        *POIAgent
	chatClient llm.ChatClient
	logger     *slog.Logger
}

func NewPlannerAgent(weather *WeatherAgent, poi *POIAgent, chatClient llm.ChatClient, logger *slog.Logger) *PlannerAgent {
	return &PlannerAgent{weather: weather, poi: poi, chatClient: chatClient, logger: logger}
}

// PlannerContext is the observation payload handed to the model and echoed
// back to the caller for debug display.
type PlannerContext struct {
	Weather     *types.WeatherObservation `json:"weather"`
	POIs        *types.POIObservation     `json:"pois"`
	Constraints plannerConstraints        `json:"constraints"`
	Error       string                    `json:"error,omitempty"`
}

type plannerConstraints struct {
	Days       int            `json:"days"`
	DateWindow [2]string      `json:"date_window"`
	Budget     *plannerBudget `json:"budget"`
	Rules      plannerRules   `json:"rules"`
}

type plannerBudget struct {
	Amount   *int   `json:"amount"`
	Currency string `json:"currency"`
}

type plannerRules struct {
	TableOnly        bool `json:"table_only"`
	NamesOnlyInSlots bool `json:"names_only_in_slots"`
	NotesWeatherOnly bool `json:"notes_weather_only"`
}

func (a *PlannerAgent) Run(ctx context.Context, query string, d types.RouteDecision) (string, *PlannerContext) {
	ctx, span := otel.Tracer("Agents").Start(ctx, "PlannerAgent.Run")
	span.SetAttributes(attribute.String("city", d.City), attribute.Int("days", d.Days))
	defer span.End()

	var weatherObs *types.WeatherObservation
	var poiObs *types.POIObservation

	// Both agents are total, so neither goroutine returns an error; the
	// group only bounds their lifetimes.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, weatherObs = a.weather.Run(gctx, d)
		return nil
	})
	g.Go(func() error {
		poiDecision := d
		poiDecision.POITopic = types.TopicGeneral
		_, poiObs = a.poi.Run(gctx, fmt.Sprintf("best tourist attractions in %s", d.City), poiDecision)
		return nil
	})
	_ = g.Wait()

	pctx := &PlannerContext{
		Weather: weatherObs,
		POIs:    poiObs,
		Constraints: plannerConstraints{
			Days:       d.Days,
			DateWindow: [2]string{d.StartDate, d.EndDate},
			Rules: plannerRules{
				TableOnly:        true,
				NamesOnlyInSlots: true,
				NotesWeatherOnly: true,
			},
		},
	}
	if d.BudgetMode {
		pctx.Constraints.Budget = &plannerBudget{Amount: d.BudgetAmount, Currency: d.BudgetCurrency}
	}

	instruction := fmt.Sprintf(
		"Plan a %d-day itinerary for %s between %s and %s. Use ONLY the observations provided (weather + POIs). ",
		d.Days, d.City, d.StartDate, d.EndDate)
	if d.BudgetMode && d.BudgetAmount != nil {
		instruction += fmt.Sprintf(
			"Stay roughly within a budget of ~%d %s. Prefer free/low-cost POIs, public transit, and affordable eateries. ",
			*d.BudgetAmount, d.BudgetCurrency)
	}
	instruction += "Output ONLY a Markdown table with columns: Day | Morning | Afternoon | Evening | Notes. " +
		"Morning/Afternoon/Evening cells must contain only place names (no descriptions). " +
		"Notes must contain short logistics/weather cues only."

	ctxJSON, err := json.Marshal(pctx)
	if err != nil {
		// Observations are plain data, so this should not happen; degrade
		// the same way a chat failure does.
		a.logger.ErrorContext(ctx, "Failed to marshal planner context", slog.Any("error", err))
		pctx.Error = err.Error()
		return fmt.Sprintf("Error: could not compose itinerary: %v", err), pctx
	}

	final, err := a.chatClient.Chat(ctx, []types.Message{
		{Role: types.RoleSystem, Content: plannerPrompt},
		{Role: types.RoleUser, Content: instruction},
		{Role: types.RoleUser, Content: "Observations: " + string(ctxJSON)},
	}, plannerTemperature)
	if err != nil {
		a.logger.WarnContext(ctx, "Planner chat call failed", slog.Any("error", err))
		pctx.Error = err.Error()
		return fmt.Sprintf("Error: could not compose itinerary: %v", err), pctx
	}

	return final, pctx
}
