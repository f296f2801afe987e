package agents

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roamwise/go-trip-planner/internal/types"
)

// MockWeatherProvider is a mock implementation of providers.WeatherProvider.
type MockWeatherProvider struct {
	mock.Mock
}

func (m *MockWeatherProvider) DailySummary(ctx context.Context, city, startDate, endDate string) (*types.WeatherObservation, error) {
	args := m.Called(ctx, city, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.WeatherObservation), args.Error(1)
}

// MockPOIProvider is a mock implementation of providers.POIProvider.
type MockPOIProvider struct {
	mock.Mock
}

func (m *MockPOIProvider) ListPOIs(ctx context.Context, city string, limit int, topic types.Topic) (*types.POIObservation, error) {
	args := m.Called(ctx, city, limit, topic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.POIObservation), args.Error(1)
}

func (m *MockPOIProvider) ListFoods(ctx context.Context, city string, limit int) (*types.POIObservation, error) {
	args := m.Called(ctx, city, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.POIObservation), args.Error(1)
}

// MockChatClient is a mock implementation of llm.ChatClient.
type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) Chat(ctx context.Context, messages []types.Message, temperature float32) (string, error) {
	args := m.Called(ctx, messages, temperature)
	return args.String(0), args.Error(1)
}

func f(v float64) *float64 { return &v }

func testDecision() types.RouteDecision {
	return types.RouteDecision{
		Intent:    types.IntentWeather,
		City:      "Jaipur",
		StartDate: "2025-03-15",
		EndDate:   "2025-03-16",
		Days:      2,
		POITopic:  types.TopicGeneral,
	}
}

func TestWeatherAgent_FormatsForecast(t *testing.T) {
	provider := new(MockWeatherProvider)
	provider.On("DailySummary", mock.Anything, "Jaipur", "2025-03-15", "2025-03-16").Return(
		&types.WeatherObservation{
			City: "Jaipur",
			Days: []types.WeatherDay{
				{Date: "2025-03-15", TminC: f(18.4), TmaxC: f(31.6), Summary: "Clear sky"},
				{Date: "2025-03-16", TminC: f(19.0), TmaxC: f(30.0), Summary: "Slight rain"},
			},
		}, nil)

	agent := NewWeatherAgent(provider, slog.Default())
	report, obs := agent.Run(context.Background(), testDecision())

	require.NotNil(t, obs)
	assert.Contains(t, report, "Approx Weather in Jaipur:")
	assert.Contains(t, report, "2025-03-15: Clear sky, around 32°C max / 18°C min.")
	assert.Contains(t, report, "There's a chance of rain.")
	provider.AssertExpectations(t)
}

func TestWeatherAgent_NoRainNote(t *testing.T) {
	provider := new(MockWeatherProvider)
	provider.On("DailySummary", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(
		&types.WeatherObservation{
			City: "Jaipur",
			Days: []types.WeatherDay{{Date: "2025-03-15", Summary: "Clear sky"}},
		}, nil)

	agent := NewWeatherAgent(provider, slog.Default())
	report, _ := agent.Run(context.Background(), testDecision())
	assert.Contains(t, report, "No rain expected.")
	// Rows without temperatures are summary-only lines.
	assert.Contains(t, report, "2025-03-15: Clear sky")
}

func TestWeatherAgent_FetchFailureDegrades(t *testing.T) {
	provider := new(MockWeatherProvider)
	provider.On("DailySummary", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(
		nil, errors.New("connection refused"))

	agent := NewWeatherAgent(provider, slog.Default())
	report, obs := agent.Run(context.Background(), testDecision())

	assert.True(t, strings.HasPrefix(report, "Error:"))
	require.NotNil(t, obs)
	assert.NotEmpty(t, obs.Error)
	assert.Empty(t, obs.Days)
}

func TestWeatherAgent_EmptyDays(t *testing.T) {
	provider := new(MockWeatherProvider)
	provider.On("DailySummary", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(
		&types.WeatherObservation{City: "Jaipur", Days: []types.WeatherDay{}}, nil)

	agent := NewWeatherAgent(provider, slog.Default())
	report, _ := agent.Run(context.Background(), testDecision())
	assert.Equal(t, "No live data found for Jaipur.", report)
}

func TestPOIAgent_DeduplicatesNamesCaseInsensitively(t *testing.T) {
	provider := new(MockPOIProvider)
	provider.On("ListPOIs", mock.Anything, "Agra", mock.Anything, types.TopicGeneral).Return(
		&types.POIObservation{
			City: "Agra",
			Items: []types.POIItem{
				{Name: "Taj Mahal", Source: "opentripmap"},
				{Name: "taj mahal", Source: "wikipedia"},
				{Name: "Agra Fort", Source: "opentripmap"},
			},
		}, nil)

	agent := NewPOIAgent(provider, new(MockChatClient), 14, slog.Default())
	d := testDecision()
	d.City = "Agra"
	report, _ := agent.Run(context.Background(), "places in Agra", d)

	assert.Equal(t, 1, strings.Count(strings.ToLower(report), "taj mahal"))
	assert.Contains(t, report, "| Place |")
	assert.Contains(t, report, "| Agra Fort |")
}

func TestPOIAgent_InvalidTopicFallsBackToClassifier(t *testing.T) {
	provider := new(MockPOIProvider)
	// "nature spots near Ooty" must classify as nature when the routed
	// topic is outside the allowed set.
	provider.On("ListPOIs", mock.Anything, "Ooty", mock.Anything, types.TopicNature).Return(
		&types.POIObservation{City: "Ooty", Items: []types.POIItem{{Name: "Ooty Lake"}}}, nil)

	agent := NewPOIAgent(provider, new(MockChatClient), 14, slog.Default())
	d := testDecision()
	d.City = "Ooty"
	d.POITopic = types.Topic("whatever")
	agent.Run(context.Background(), "nature spots near Ooty", d)
	provider.AssertExpectations(t)
}

func TestPOIAgent_FoodsTopicUsesFoodsList(t *testing.T) {
	provider := new(MockPOIProvider)
	provider.On("ListFoods", mock.Anything, "Indore", mock.Anything).Return(
		&types.POIObservation{City: "Indore", Items: []types.POIItem{{Name: "Poha", Kinds: "cuisine"}}}, nil)

	agent := NewPOIAgent(provider, new(MockChatClient), 14, slog.Default())
	d := testDecision()
	d.City = "Indore"
	d.POITopic = types.TopicFoods
	report, _ := agent.Run(context.Background(), "foods to try in Indore", d)

	assert.Contains(t, report, "| Food |")
	assert.Contains(t, report, "| Poha |")
	provider.AssertExpectations(t)
}

func TestPOIAgent_LLMFallbackWhenNoLiveResults(t *testing.T) {
	provider := new(MockPOIProvider)
	provider.On("ListPOIs", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(
		&types.POIObservation{City: "Leh", Items: []types.POIItem{}}, nil)

	chat := new(MockChatClient)
	chat.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return(
		"| Place |\n|---|\n| Shanti Stupa |\n| Leh Palace |", nil)

	agent := NewPOIAgent(provider, chat, 14, slog.Default())
	d := testDecision()
	d.City = "Leh"
	report, _ := agent.Run(context.Background(), "places in Leh", d)

	// Header and separator cells must not leak into the list.
	assert.Contains(t, report, "| Shanti Stupa |")
	assert.Contains(t, report, "| Leh Palace |")
	assert.Equal(t, 1, strings.Count(report, "| Place |"))
	assert.NotContains(t, report, "No live results")
	chat.AssertExpectations(t)
}

func TestPOIAgent_FetchFailureBecomesErrorObservation(t *testing.T) {
	provider := new(MockPOIProvider)
	provider.On("ListPOIs", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(
		nil, errors.New("api key missing"))

	chat := new(MockChatClient)
	chat.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("also down"))

	agent := NewPOIAgent(provider, chat, 14, slog.Default())
	report, obs := agent.Run(context.Background(), "places in Leh", testDecision())

	require.NotNil(t, obs)
	assert.Contains(t, obs.Error, "poi fetch failed")
	assert.Contains(t, report, "_No live results found for this scope_")
}

func TestPlannerAgent_ComposesItinerary(t *testing.T) {
	weatherProvider := new(MockWeatherProvider)
	weatherProvider.On("DailySummary", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(
		&types.WeatherObservation{
			City: "Jaipur",
			Days: []types.WeatherDay{{Date: "2025-03-15", Summary: "Clear sky"}},
		}, nil)

	poiProvider := new(MockPOIProvider)
	poiProvider.On("ListPOIs", mock.Anything, "Jaipur", mock.Anything, types.TopicGeneral).Return(
		&types.POIObservation{City: "Jaipur", Items: []types.POIItem{{Name: "Hawa Mahal"}}}, nil)

	table := "| Day | Morning | Afternoon | Evening | Notes |\n|---|---|---|---|---|\n| 1 | Hawa Mahal | Amber Fort | City Palace | clear |"
	chat := new(MockChatClient)
	chat.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return(table, nil)

	weather := NewWeatherAgent(weatherProvider, slog.Default())
	poi := NewPOIAgent(poiProvider, chat, 18, slog.Default())
	planner := NewPlannerAgent(weather, poi, chat, slog.Default())

	d := testDecision()
	d.Intent = types.IntentPlan
	report, pctx := planner.Run(context.Background(), "plan 2 days in Jaipur", d)

	assert.Equal(t, table, report)
	require.NotNil(t, pctx)
	assert.Equal(t, "Jaipur", pctx.Weather.City)
	assert.Equal(t, "Hawa Mahal", pctx.POIs.Items[0].Name)
	assert.Equal(t, 2, pctx.Constraints.Days)
	assert.Equal(t, [2]string{"2025-03-15", "2025-03-16"}, pctx.Constraints.DateWindow)
}

func TestPlannerAgent_ChatFailureDegrades(t *testing.T) {
	weatherProvider := new(MockWeatherProvider)
	weatherProvider.On("DailySummary", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(
		nil, errors.New("down"))

	poiProvider := new(MockPOIProvider)
	poiProvider.On("ListPOIs", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(
		nil, errors.New("down"))

	chat := new(MockChatClient)
	chat.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("unavailable"))

	weather := NewWeatherAgent(weatherProvider, slog.Default())
	poi := NewPOIAgent(poiProvider, chat, 18, slog.Default())
	planner := NewPlannerAgent(weather, poi, chat, slog.Default())

	report, pctx := planner.Run(context.Background(), "plan 2 days in Jaipur", testDecision())

	assert.True(t, strings.HasPrefix(report, "Error:"))
	require.NotNil(t, pctx)
	assert.NotEmpty(t, pctx.Error)
	// Each source failed independently; both degraded observations are
	// still present for debug display.
	assert.NotEmpty(t, pctx.Weather.Error)
	assert.NotEmpty(t, pctx.POIs.Error)
}

func TestPlannerAgent_BudgetHintReachesPrompt(t *testing.T) {
	weatherProvider := new(MockWeatherProvider)
	weatherProvider.On("DailySummary", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(
		&types.WeatherObservation{City: "Goa", Days: []types.WeatherDay{}}, nil)

	poiProvider := new(MockPOIProvider)
	poiProvider.On("ListPOIs", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(
		&types.POIObservation{City: "Goa", Items: []types.POIItem{{Name: "Baga Beach"}}}, nil)

	var gotInstruction string
	chat := new(MockChatClient)
	chat.On("Chat", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		messages := args.Get(1).([]types.Message)
		for _, m := range messages {
			if strings.Contains(m.Content, "itinerary") {
				gotInstruction = m.Content
			}
		}
	}).Return("| Day |", nil)

	weather := NewWeatherAgent(weatherProvider, slog.Default())
	poi := NewPOIAgent(poiProvider, chat, 18, slog.Default())
	planner := NewPlannerAgent(weather, poi, chat, slog.Default())

	amount := 20000
	d := testDecision()
	d.City = "Goa"
	d.BudgetMode = true
	d.BudgetAmount = &amount
	d.BudgetCurrency = "INR"
	_, pctx := planner.Run(context.Background(), "plan a budget trip to Goa", d)

	assert.Contains(t, gotInstruction, "20000 INR")
	require.NotNil(t, pctx.Constraints.Budget)
	assert.Equal(t, "INR", pctx.Constraints.Budget.Currency)
}
