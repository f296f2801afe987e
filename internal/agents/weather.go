package agents

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/roamwise/go-trip-planner/internal/providers"
	"github.com/roamwise/go-trip-planner/internal/types"
)

// WeatherAgent renders a per-day forecast report. Fetch failures become a
// short user-facing message plus an error-bearing observation; nothing
// propagates to the caller.
type WeatherAgent struct {
	provider providers.WeatherProvider
	logger   *slog.Logger
}

func NewWeatherAgent(provider providers.WeatherProvider, logger *slog.Logger) *WeatherAgent {
	return &WeatherAgent{provider: provider, logger: logger}
}

func (a *WeatherAgent) Run(ctx context.Context, d types.RouteDecision) (string, *types.WeatherObservation) {
	ctx, span := otel.Tracer("Agents").Start(ctx, "WeatherAgent.Run")
	span.SetAttributes(attribute.String("city", d.City))
	defer span.End()

	obs, err := a.provider.DailySummary(ctx, d.City, d.StartDate, d.EndDate)
	if err != nil {
		a.logger.WarnContext(ctx, "Weather fetch failed", slog.String("city", d.City), slog.Any("error", err))
		return fmt.Sprintf("Error: %v", err), &types.WeatherObservation{
			City:  d.City,
			Days:  []types.WeatherDay{},
			Error: err.Error(),
		}
	}

	if len(obs.Days) == 0 {
		return fmt.Sprintf("No live data found for %s.", d.City), obs
	}

	lines := make([]string, 0, len(obs.Days))
	for _, day := range obs.Days {
		if day.TminC == nil || day.TmaxC == nil {
			lines = append(lines, fmt.Sprintf("%s: %s", day.Date, day.Summary))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s, around %d°C max / %d°C min.",
			day.Date, day.Summary, roundC(*day.TmaxC), roundC(*day.TminC)))
	}

	var title string
	if len(lines) > 2 {
		title = fmt.Sprintf("Weather Forecast for %s (%s → %s):", obs.City, d.StartDate, d.EndDate)
	} else {
		title = fmt.Sprintf("Approx Weather in %s:", obs.City)
	}

	message := title + "\n" + strings.Join(lines, "\n")
	if anyRain(obs.Days) {
		message += "\nThere's a chance of rain."
	} else {
		message += "\nNo rain expected."
	}
	return message, obs
}

func anyRain(days []types.WeatherDay) bool {
	for _, d := range days {
		if strings.Contains(strings.ToLower(d.Summary), "rain") {
			return true
		}
	}
	return false
}

func roundC(v float64) int {
	return int(math.Round(v))
}
