package agents

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/roamwise/go-trip-planner/internal/llm"
	"github.com/roamwise/go-trip-planner/internal/nlp"
	"github.com/roamwise/go-trip-planner/internal/providers"
	"github.com/roamwise/go-trip-planner/internal/types"
)

const poiFallbackTemperature = 0.2

// tableCellRe extracts cell values from a Markdown table reply.
var tableCellRe = regexp.MustCompile(`\|\s*([^|\n]+?)\s*\|`)

// separatorRe matches table separator cells like --- or :---:.
var separatorRe = regexp.MustCompile(`^:?-{2,}:?$`)

// POIAgent lists places (or foods) as a one-column Markdown table. When
// every live tier comes back empty it asks the chat collaborator for a
// names-only list instead.
type POIAgent struct {
	provider   providers.POIProvider
	chatClient llm.ChatClient
	limit      int
	logger     *slog.Logger
}

func NewPOIAgent(provider providers.POIProvider, chatClient llm.ChatClient, limit int, logger *slog.Logger) *POIAgent {
	if limit < 1 {
		limit = 14
	}
	return &POIAgent{provider: provider, chatClient: chatClient, limit: limit, logger: logger}
}

func (a *POIAgent) Run(ctx context.Context, query string, d types.RouteDecision) (string, *types.POIObservation) {
	ctx, span := otel.Tracer("Agents").Start(ctx, "POIAgent.Run")
	span.SetAttributes(attribute.String("city", d.City))
	defer span.End()

	topic := d.POITopic
	if !types.ValidTopic(topic) {
		topic = nlp.DetectTopic(query)
	}
	span.SetAttributes(attribute.String("topic", string(topic)))

	var obs *types.POIObservation
	var err error
	if topic == types.TopicFoods {
		obs, err = a.provider.ListFoods(ctx, d.City, maxOf(12, a.limit))
	} else {
		obs, err = a.provider.ListPOIs(ctx, d.City, maxOf(14, a.limit), topic)
	}
	if err != nil {
		a.logger.WarnContext(ctx, "POI fetch failed", slog.String("city", d.City), slog.Any("error", err))
		obs = &types.POIObservation{
			City:  d.City,
			Items: []types.POIItem{},
			Error: fmt.Sprintf("poi fetch failed: %v", err),
		}
	}

	names := dedupNames(obs.Items)
	if len(names) == 0 {
		names = a.llmFallbackNames(ctx, d.City, topic)
	}

	return namesTable(names, topic), obs
}

// dedupNames keeps the first occurrence of each name, comparing
// case-insensitively.
func dedupNames(items []types.POIItem) []string {
	seen := make(map[string]struct{}, len(items))
	var names []string
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names
}

// llmFallbackNames asks the chat collaborator for a names-only Markdown
// table and extracts the cell values, dropping header tokens and separator
// rows.
func (a *POIAgent) llmFallbackNames(ctx context.Context, city string, topic types.Topic) []string {
	subject := map[types.Topic]string{
		types.TopicFoods:       "foods to try",
		types.TopicRestaurants: "restaurants",
		types.TopicNature:      "nature places",
	}[topic]
	if subject == "" {
		subject = "tourist attractions"
	}

	proposal, err := a.chatClient.Chat(ctx, []types.Message{
		{Role: types.RoleSystem, Content: poiFallbackPrompt},
		{Role: types.RoleUser, Content: fmt.Sprintf("Give top %s in %s. Names only.", subject, city)},
	}, poiFallbackTemperature)
	if err != nil {
		a.logger.WarnContext(ctx, "POI LLM fallback failed", slog.Any("error", err))
		return nil
	}

	seen := make(map[string]struct{})
	var names []string
	for _, m := range tableCellRe.FindAllStringSubmatch(proposal, -1) {
		cell := strings.TrimSpace(m[1])
		low := strings.ToLower(cell)
		if cell == "" || low == "place" || low == "food" || separatorRe.MatchString(cell) {
			continue
		}
		if _, ok := seen[low]; ok {
			continue
		}
		seen[low] = struct{}{}
		names = append(names, cell)
	}
	return names
}

func namesTable(names []string, topic types.Topic) string {
	head := "Place"
	if topic == types.TopicFoods {
		head = "Food"
	}
	lines := []string{"| " + head + " |", "|---|"}
	if len(names) == 0 {
		lines = append(lines, "| _No live results found for this scope_ |")
		return strings.Join(lines, "\n")
	}
	for _, n := range names {
		lines = append(lines, "| "+n+" |")
	}
	return strings.Join(lines, "\n")
}

func maxOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}
