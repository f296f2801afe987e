package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/roamwise/go-trip-planner/app/observability/metrics"
	"github.com/roamwise/go-trip-planner/internal/types"
)

const defaultGeocodeURL = "https://geocoding-api.open-meteo.com/v1/search"

// ErrCityNotFound marks a geocoding lookup that returned zero results.
var ErrCityNotFound = errors.New("city not found")

// Geocoder resolves a free-text city name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (*types.CityResolution, error)
}

var _ Geocoder = (*GeocodingClient)(nil)

// GeocodingClient is an Open-Meteo geocoding API client.
type GeocodingClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewGeocodingClient() *GeocodingClient {
	return &GeocodingClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultGeocodeURL,
	}
}

// NewGeocodingClientWithBaseURL is used by tests to point at a stub server.
func NewGeocodingClientWithBaseURL(baseURL string) *GeocodingClient {
	c := NewGeocodingClient()
	c.baseURL = baseURL
	return c
}

// Geocode resolves city to its best match. Zero results yield
// ErrCityNotFound.
func (c *GeocodingClient) Geocode(ctx context.Context, city string) (*types.CityResolution, error) {
	ctx, span := otel.Tracer("Providers").Start(ctx, "Geocode")
	span.SetAttributes(attribute.String("city", city))
	defer span.End()

	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Country   string  `json:"country"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, c.baseURL+"?"+q.Encode(), &payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Geocoding request failed")
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, providerAttr("geocoding"))
		return nil, err
	}

	if len(payload.Results) == 0 {
		span.SetStatus(codes.Error, "No geocoding results")
		return nil, fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}

	top := payload.Results[0]
	name := top.Name
	if name == "" {
		name = city
	}
	span.SetStatus(codes.Ok, "City resolved")
	return &types.CityResolution{
		Name:      name,
		Latitude:  top.Latitude,
		Longitude: top.Longitude,
		Country:   top.Country,
	}, nil
}

func (c *GeocodingClient) getJSON(ctx context.Context, rawURL string, dst any) error {
	return getJSON(ctx, c.httpClient, rawURL, dst)
}
