package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/roamwise/go-trip-planner/app/observability/metrics"
	"github.com/roamwise/go-trip-planner/internal/types"
)

const defaultForecastURL = "https://api.open-meteo.com/v1/forecast"

// WeatherProvider returns a per-day summary for a city and date window.
type WeatherProvider interface {
	DailySummary(ctx context.Context, city, startDate, endDate string) (*types.WeatherObservation, error)
}

var _ WeatherProvider = (*WeatherClient)(nil)

// WeatherClient is an Open-Meteo forecast client. Geocoding failures
// propagate; forecast failures degrade to current conditions, and if those
// fail too the observation carries an error field instead.
type WeatherClient struct {
	httpClient  *http.Client
	forecastURL string
	geocoder    Geocoder
	logger      *slog.Logger
}

func NewWeatherClient(geocoder Geocoder, logger *slog.Logger) *WeatherClient {
	return &WeatherClient{
		httpClient:  &http.Client{Timeout: 20 * time.Second},
		forecastURL: defaultForecastURL,
		geocoder:    geocoder,
		logger:      logger,
	}
}

// NewWeatherClientWithBaseURL is used by tests to point at a stub server.
func NewWeatherClientWithBaseURL(baseURL string, geocoder Geocoder, logger *slog.Logger) *WeatherClient {
	c := NewWeatherClient(geocoder, logger)
	c.forecastURL = baseURL
	return c
}

func (c *WeatherClient) DailySummary(ctx context.Context, city, startDate, endDate string) (*types.WeatherObservation, error) {
	ctx, span := otel.Tracer("Providers").Start(ctx, "DailySummary")
	span.SetAttributes(
		attribute.String("city", city),
		attribute.String("start_date", startDate),
		attribute.String("end_date", endDate),
	)
	defer span.End()

	g, err := c.geocoder.Geocode(ctx, city)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Geocoding failed")
		return nil, fmt.Errorf("failed to geocode city: %w", err)
	}

	obs, err := c.rangedForecast(ctx, g, startDate, endDate)
	if err == nil {
		span.SetStatus(codes.Ok, "Ranged forecast fetched")
		return obs, nil
	}
	c.logger.WarnContext(ctx, "Ranged forecast unavailable, falling back to current conditions",
		slog.String("city", g.Name), slog.Any("error", err))
	metrics.Get().ProviderErrorsTotal.Add(ctx, 1, providerAttr("open-meteo"))

	obs, err = c.currentConditions(ctx, g, startDate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Weather fetch failed")
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, providerAttr("open-meteo"))
		return &types.WeatherObservation{
			City:  g.Name,
			Days:  []types.WeatherDay{},
			Error: fmt.Sprintf("weather fetch failed: %v", err),
		}, nil
	}
	span.SetStatus(codes.Ok, "Current conditions fetched")
	return obs, nil
}

func (c *WeatherClient) rangedForecast(ctx context.Context, g *types.CityResolution, startDate, endDate string) (*types.WeatherObservation, error) {
	q := url.Values{}
	q.Set("latitude", formatCoord(g.Latitude))
	q.Set("longitude", formatCoord(g.Longitude))
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,weathercode")
	q.Set("timezone", "auto")
	q.Set("start_date", startDate)
	q.Set("end_date", endDate)

	var payload struct {
		Daily struct {
			Time             []string   `json:"time"`
			TemperatureMax   []*float64 `json:"temperature_2m_max"`
			TemperatureMin   []*float64 `json:"temperature_2m_min"`
			PrecipitationSum []*float64 `json:"precipitation_sum"`
			WeatherCode      []*int     `json:"weathercode"`
		} `json:"daily"`
	}
	if err := getJSON(ctx, c.httpClient, c.forecastURL+"?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	daily := payload.Daily
	if len(daily.Time) == 0 {
		return nil, fmt.Errorf("no daily data in forecast response")
	}

	days := make([]types.WeatherDay, 0, len(daily.Time))
	for i, date := range daily.Time {
		days = append(days, types.WeatherDay{
			Date:     date,
			TminC:    at(daily.TemperatureMin, i),
			TmaxC:    at(daily.TemperatureMax, i),
			PrecipMM: at(daily.PrecipitationSum, i),
			Summary:  weatherCodeSummary(atInt(daily.WeatherCode, i)),
		})
	}
	return &types.WeatherObservation{City: g.Name, Days: days}, nil
}

// currentConditions is the single-entry fallback when the ranged forecast
// is unavailable; the start date labels the one row.
func (c *WeatherClient) currentConditions(ctx context.Context, g *types.CityResolution, startDate string) (*types.WeatherObservation, error) {
	q := url.Values{}
	q.Set("latitude", formatCoord(g.Latitude))
	q.Set("longitude", formatCoord(g.Longitude))
	q.Set("current", "temperature_2m,apparent_temperature,precipitation")
	q.Set("timezone", "auto")

	var payload struct {
		Current struct {
			Temperature   *float64 `json:"temperature_2m"`
			Precipitation *float64 `json:"precipitation"`
		} `json:"current"`
	}
	if err := getJSON(ctx, c.httpClient, c.forecastURL+"?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	summary := ""
	if payload.Current.Temperature != nil {
		summary = fmt.Sprintf("%g°C", *payload.Current.Temperature)
	}
	return &types.WeatherObservation{
		City: g.Name,
		Days: []types.WeatherDay{{
			Date:     startDate,
			TminC:    payload.Current.Temperature,
			TmaxC:    payload.Current.Temperature,
			PrecipMM: payload.Current.Precipitation,
			Summary:  summary,
		}},
	}, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func at(arr []*float64, i int) *float64 {
	if i < len(arr) {
		return arr[i]
	}
	return nil
}

func atInt(arr []*int, i int) *int {
	if i < len(arr) {
		return arr[i]
	}
	return nil
}

var weatherCodeSummaries = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snowfall",
	73: "Moderate snowfall",
	75: "Heavy snowfall",
	80: "Rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

func weatherCodeSummary(code *int) string {
	if code == nil {
		return ""
	}
	return weatherCodeSummaries[*code]
}
