package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/roamwise/go-trip-planner/app/observability/metrics"
	"github.com/roamwise/go-trip-planner/internal/llm"
	"github.com/roamwise/go-trip-planner/internal/nlp"
	"github.com/roamwise/go-trip-planner/internal/providers"
	"github.com/roamwise/go-trip-planner/internal/types"
)

const (
	defaultDays       = 2
	routerTemperature = 0.0
)

// Router turns free text into a RouteDecision. It is a total function:
// every upstream failure degrades into documented fallback values and no
// error ever reaches the caller.
type Router struct {
	chatClient llm.ChatClient
	geocoder   providers.Geocoder
	logger     *slog.Logger
}

func New(chatClient llm.ChatClient, geocoder providers.Geocoder, logger *slog.Logger) *Router {
	return &Router{
		chatClient: chatClient,
		geocoder:   geocoder,
		logger:     logger,
	}
}

// routerReply mirrors the JSON the model is asked to produce. Days and
// budget amount are decoded loosely because the model occasionally emits
// them as strings.
type routerReply struct {
	Intent             string `json:"intent"`
	City               string `json:"city"`
	Days               any    `json:"days"`
	RelativeDatePhrase string `json:"relative_date_phrase"`
	POITopic           string `json:"poi_topic"`
	GuideTopic         string `json:"guide_topic"`
	BudgetAmount       any    `json:"budget_amount"`
	BudgetCurrency     string `json:"budget_currency"`
	BudgetMode         bool   `json:"budget_mode"`
}

// Route classifies query and resolves city, dates and topic. tzName is the
// zone used for relative date resolution.
func (r *Router) Route(ctx context.Context, query, tzName string) types.RouteDecision {
	ctx, span := otel.Tracer("Router").Start(ctx, "Route")
	defer span.End()

	messages := []types.Message{
		{Role: types.RoleSystem, Content: systemPrompt},
		{Role: types.RoleUser, Content: query},
	}

	var reply routerReply
	parsed := false
	out, err := r.chatClient.Chat(ctx, messages, routerTemperature)
	if err != nil {
		r.logger.WarnContext(ctx, "Router chat call failed, using fallback decision", slog.Any("error", err))
	} else if jsonErr := json.Unmarshal([]byte(stripFences(out)), &reply); jsonErr != nil {
		r.logger.WarnContext(ctx, "Router reply is not valid JSON, using fallback decision",
			slog.Any("error", jsonErr))
	} else {
		parsed = true
	}

	if !parsed {
		// Last line of defense against a malformed upstream response.
		reply = routerReply{
			Intent:             string(types.IntentPOI),
			City:               "",
			Days:               defaultDays,
			RelativeDatePhrase: query,
			POITopic:           string(types.TopicGeneral),
			GuideTopic:         "none",
		}
	}

	city := strings.TrimSpace(reply.City)
	if city == "" {
		if g, err := r.geocoder.Geocode(ctx, query); err == nil {
			city = g.Name
		} else {
			r.logger.DebugContext(ctx, "Geocoding fallback for city failed", slog.Any("error", err))
		}
	}

	days := coerceDays(reply.Days)

	phrase := reply.RelativeDatePhrase
	if phrase == "" {
		phrase = query
	}
	start, end := nlp.ResolveDates(phrase, tzName, days)

	decision := types.RouteDecision{
		Intent:     types.Intent(stringOr(reply.Intent, string(types.IntentPOI))),
		City:       city,
		StartDate:  start,
		EndDate:    end,
		Days:       days,
		POITopic:   types.Topic(stringOr(reply.POITopic, string(types.TopicGeneral))),
		GuideTopic: stringOr(reply.GuideTopic, "none"),

		BudgetCurrency: reply.BudgetCurrency,
		BudgetMode:     reply.BudgetMode,
	}
	if amount, ok := coerceInt(reply.BudgetAmount); ok {
		decision.BudgetAmount = &amount
	}

	span.SetAttributes(
		attribute.String("intent", string(decision.Intent)),
		attribute.String("city", decision.City),
		attribute.Int("days", decision.Days),
	)
	metrics.Get().QueriesTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("intent", string(decision.Intent))))
	return decision
}

// stripFences removes a Markdown code fence wrapper if the model added one
// despite the instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// coerceDays turns whatever the model put in "days" into a positive trip
// length: non-numeric or missing values default to 2, anything below 1 is
// clamped to 1.
func coerceDays(v any) int {
	days, ok := coerceInt(v)
	if !ok {
		return defaultDays
	}
	if days < 1 {
		return 1
	}
	return days
}

func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func stringOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
