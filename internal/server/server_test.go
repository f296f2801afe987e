package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamwise/go-trip-planner/internal/agents"
	"github.com/roamwise/go-trip-planner/internal/assistant"
	"github.com/roamwise/go-trip-planner/internal/router"
	"github.com/roamwise/go-trip-planner/internal/types"
)

type stubChatClient struct{ reply string }

func (s stubChatClient) Chat(_ context.Context, _ []types.Message, _ float32) (string, error) {
	return s.reply, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Geocode(_ context.Context, _ string) (*types.CityResolution, error) {
	return nil, errors.New("no results")
}

type stubWeatherProvider struct{}

func (stubWeatherProvider) DailySummary(_ context.Context, city, startDate, _ string) (*types.WeatherObservation, error) {
	return &types.WeatherObservation{
		City: city,
		Days: []types.WeatherDay{{Date: startDate, Summary: "Clear sky"}},
	}, nil
}

type stubPOIProvider struct{}

func (stubPOIProvider) ListPOIs(_ context.Context, city string, _ int, _ types.Topic) (*types.POIObservation, error) {
	return &types.POIObservation{City: city, Items: []types.POIItem{{Name: "City Palace"}}}, nil
}

func (stubPOIProvider) ListFoods(_ context.Context, city string, _ int) (*types.POIObservation, error) {
	return &types.POIObservation{City: city, Items: []types.POIItem{{Name: "Poha"}}}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.Default()
	chat := stubChatClient{reply: `{"intent":"weather","city":"Jaipur","days":1,"relative_date_phrase":"today"}`}
	weather := agents.NewWeatherAgent(stubWeatherProvider{}, logger)
	poi := agents.NewPOIAgent(stubPOIProvider{}, chat, 14, logger)
	planner := agents.NewPlannerAgent(weather, poi, chat, logger)
	r := router.New(chat, stubGeocoder{}, logger)
	a := assistant.New(r, weather, poi, planner, "UTC", "Delhi", logger)
	return New(a, logger)
}

func postQuery(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleQuery_OK(t *testing.T) {
	handler := newTestServer(t).Routes(nil)
	rec := postQuery(t, handler, `{"query":"weather in Jaipur today"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		QueryID string       `json:"query_id"`
		Intent  types.Intent `json:"intent"`
		Report  string       `json:"report"`
		Banner  string       `json:"banner"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.QueryID)
	assert.Equal(t, types.IntentWeather, resp.Intent)
	assert.Contains(t, resp.Report, "Approx Weather in Jaipur:")
}

func TestHandleQuery_ObservationOnlyInDebug(t *testing.T) {
	handler := newTestServer(t).Routes(nil)

	rec := postQuery(t, handler, `{"query":"weather in Jaipur today"}`)
	assert.NotContains(t, rec.Body.String(), `"observation"`)

	rec = postQuery(t, handler, `{"query":"weather in Jaipur today","debug":true}`)
	assert.Contains(t, rec.Body.String(), `"observation"`)
}

func TestHandleQuery_EmptyQueryRejected(t *testing.T) {
	handler := newTestServer(t).Routes(nil)
	rec := postQuery(t, handler, `{"query":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQuery_UnknownAgentRejected(t *testing.T) {
	handler := newTestServer(t).Routes(nil)
	rec := postQuery(t, handler, `{"query":"hello","agent":"oracle"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQuery_MalformedBodyRejected(t *testing.T) {
	handler := newTestServer(t).Routes(nil)
	rec := postQuery(t, handler, `{"query":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	handler := newTestServer(t).Routes(nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
