package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/roamwise/go-trip-planner/app/observability/metrics"
	"github.com/roamwise/go-trip-planner/internal/types"
)

const (
	defaultOTMBaseURL   = "https://api.opentripmap.com/0.1/en"
	defaultOverpassURL  = "https://overpass-api.de/api/interpreter"
	defaultWikiURL      = "https://en.wikipedia.org/w/api.php"
	defaultGeneralKinds = "interesting_places,architecture,museums,heritage,urban_environment," +
		"religion,natural,fortifications,monuments,memorial,towers,other_temples,temples,churches,mosques," +
		"bridges,attractions,amusements,parks,zoos,theatres_and_entertainments,sport"
)

// POIProvider lists points of interest and local foods for a city.
type POIProvider interface {
	ListPOIs(ctx context.Context, city string, limit int, topic types.Topic) (*types.POIObservation, error)
	ListFoods(ctx context.Context, city string, limit int) (*types.POIObservation, error)
}

var _ POIProvider = (*POIClient)(nil)

// POIClient chains OpenTripMap, Overpass and Wikipedia geosearch. Each
// lower tier runs only when the previous one yielded fewer than half the
// requested item count.
type POIClient struct {
	httpClient  *http.Client
	apiKey      string
	otmBaseURL  string
	overpassURL string
	wikiURL     string
	geocoder    Geocoder
	logger      *slog.Logger
}

func NewPOIClient(apiKey string, geocoder Geocoder, logger *slog.Logger) *POIClient {
	return &POIClient{
		httpClient:  &http.Client{Timeout: 40 * time.Second},
		apiKey:      apiKey,
		otmBaseURL:  defaultOTMBaseURL,
		overpassURL: defaultOverpassURL,
		wikiURL:     defaultWikiURL,
		geocoder:    geocoder,
		logger:      logger,
	}
}

// NewPOIClientWithBaseURLs is used by tests to point at stub servers.
func NewPOIClientWithBaseURLs(apiKey, otmURL, overpassURL, wikiURL string, geocoder Geocoder, logger *slog.Logger) *POIClient {
	c := NewPOIClient(apiKey, geocoder, logger)
	c.otmBaseURL = otmURL
	c.overpassURL = overpassURL
	c.wikiURL = wikiURL
	return c
}

// geoname resolves a city via the OpenTripMap geoname endpoint, falling
// back to the shared geocoder.
func (c *POIClient) geoname(ctx context.Context, city string) (*types.CityResolution, error) {
	if c.apiKey != "" {
		q := url.Values{}
		q.Set("name", city)
		q.Set("apikey", c.apiKey)

		var payload struct {
			Name string   `json:"name"`
			Lat  *float64 `json:"lat"`
			Lon  *float64 `json:"lon"`
		}
		err := getJSON(ctx, c.httpClient, c.otmBaseURL+"/places/geoname?"+q.Encode(), &payload)
		if err == nil && payload.Lat != nil && payload.Lon != nil {
			name := payload.Name
			if name == "" {
				name = city
			}
			return &types.CityResolution{Name: name, Latitude: *payload.Lat, Longitude: *payload.Lon}, nil
		}
		if err != nil {
			c.logger.DebugContext(ctx, "OpenTripMap geoname failed, using geocoder",
				slog.String("city", city), slog.Any("error", err))
		}
	}
	return c.geocoder.Geocode(ctx, city)
}

type otmStrategy struct {
	radiusM int
	kinds   string
	rate    int
}

// ListPOIs returns up to limit POIs near the city, rate-sorted. The
// OpenTripMap API key is required for the primary tier; without it the
// lookup fails and the agent degrades.
func (c *POIClient) ListPOIs(ctx context.Context, city string, limit int, topic types.Topic) (*types.POIObservation, error) {
	ctx, span := otel.Tracer("Providers").Start(ctx, "ListPOIs")
	span.SetAttributes(attribute.String("city", city), attribute.String("topic", string(topic)))
	defer span.End()

	if c.apiKey == "" {
		err := fmt.Errorf("OPENTRIPMAP_API_KEY is required for POI lookups")
		span.RecordError(err)
		span.SetStatus(codes.Error, "API key missing")
		return nil, err
	}

	g, err := c.geoname(ctx, city)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "City resolution failed")
		return nil, fmt.Errorf("failed to resolve city: %w", err)
	}

	kinds := defaultGeneralKinds
	initialRadius := 12000
	switch topic {
	case types.TopicRestaurants:
		kinds = "catering,restaurants,cafes,fast_food"
		initialRadius = clampInt(initialRadius, 3000, 8000)
	case types.TopicNature:
		kinds = "natural,parks,gardens,water,view_points"
		initialRadius = clampInt(initialRadius, 4000, 10000)
	}

	secondRadius, thirdRadius := 25000, 50000
	if topic == types.TopicRestaurants {
		secondRadius, thirdRadius = 20000, 35000
	}
	strategies := []otmStrategy{
		{initialRadius, kinds, 2},
		{secondRadius, kinds, 2},
		{thirdRadius, kinds, 2},
		{20000, kinds, 1},
		{35000, kinds, 1},
		{25000, "", 1},
		{50000, "", 1},
	}

	var features []otmFeature
	for _, s := range strategies {
		feats, err := c.radiusQuery(ctx, g.Latitude, g.Longitude, s.radiusM, s.kinds, s.rate, limit)
		if err != nil {
			c.logger.DebugContext(ctx, "OpenTripMap radius query failed",
				slog.Int("radius_m", s.radiusM), slog.Any("error", err))
			continue
		}
		if len(feats) > 0 {
			features = feats
			break
		}
	}

	seen := make(map[string]struct{})
	var results []types.POIItem
	for _, f := range features {
		name := f.Properties.Name
		if name == "" {
			name = f.Properties.Wikidata
		}
		if name == "" {
			name = f.Properties.XID
		}
		if name == "" {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		item := types.POIItem{
			Name:   name,
			Kinds:  f.Properties.Kinds,
			Rate:   f.Properties.Rate,
			Source: "opentripmap",
		}
		if f.Properties.XID != "" {
			item.OTMUrl = "https://opentripmap.com/en/card/" + f.Properties.XID
		}
		results = append(results, item)
	}

	threshold := limit / 2
	if threshold < 6 {
		threshold = 6
	}

	if len(results) < threshold {
		overpassItems, err := c.overpassQuery(ctx, g.Latitude, g.Longitude, maxInt(initialRadius, 20000), topic)
		if err != nil {
			metrics.Get().ProviderErrorsTotal.Add(ctx, 1, providerAttr("overpass"))
			c.logger.WarnContext(ctx, "Overpass query failed", slog.Any("error", err))
		}
		for _, it := range overpassItems {
			key := strings.ToLower(strings.TrimSpace(it.Name))
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			results = append(results, it)
		}
	}

	if len(results) < threshold {
		wikiItems, err := c.wikipediaGeosearch(ctx, g.Latitude, g.Longitude, maxInt(initialRadius, 20000), limit)
		if err != nil {
			metrics.Get().ProviderErrorsTotal.Add(ctx, 1, providerAttr("wikipedia"))
			c.logger.WarnContext(ctx, "Wikipedia geosearch failed", slog.Any("error", err))
		}
		for _, it := range wikiItems {
			key := strings.ToLower(strings.TrimSpace(it.Name))
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			results = append(results, it)
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Rate > results[j].Rate })
	if len(results) > limit {
		results = results[:limit]
	}

	span.SetAttributes(attribute.Int("results.count", len(results)))
	span.SetStatus(codes.Ok, "POIs listed")
	return &types.POIObservation{
		City:    g.Name,
		Items:   results,
		Sources: []string{"opentripmap", "overpass", "wikipedia"},
	}, nil
}

type otmFeature struct {
	Properties struct {
		Name     string  `json:"name"`
		Kinds    string  `json:"kinds"`
		Rate     float64 `json:"rate"`
		XID      string  `json:"xid"`
		Wikidata string  `json:"wikidata"`
	} `json:"properties"`
}

func (c *POIClient) radiusQuery(ctx context.Context, lat, lon float64, radiusM int, kinds string, rate, limit int) ([]otmFeature, error) {
	q := url.Values{}
	q.Set("lat", formatCoord(lat))
	q.Set("lon", formatCoord(lon))
	q.Set("radius", strconv.Itoa(radiusM))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("apikey", c.apiKey)
	q.Set("format", "geojson")
	q.Set("rate", strconv.Itoa(rate))
	if kinds != "" {
		q.Set("kinds", kinds)
	}

	var payload struct {
		Features []otmFeature `json:"features"`
	}
	if err := getJSON(ctx, c.httpClient, c.otmBaseURL+"/places/radius?"+q.Encode(), &payload); err != nil {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, providerAttr("opentripmap"))
		return nil, err
	}
	return payload.Features, nil
}

func overpassSelector(radiusM int, lat, lon float64, filter string) string {
	coord := fmt.Sprintf("around:%d,%s,%s", radiusM, formatCoord(lat), formatCoord(lon))
	return fmt.Sprintf("node(%s)%s;way(%s)%s;", coord, filter, coord, filter)
}

func buildOverpassQuery(lat, lon float64, radiusM int, topic types.Topic) string {
	var filters []string
	switch topic {
	case types.TopicRestaurants:
		filters = []string{`["amenity"~"restaurant|cafe|fast_food|food_court|biergarten"]`}
	case types.TopicNature:
		filters = []string{
			`["leisure"~"park|garden"]`,
			`["natural"]`,
			`["water"~"lake|river|reservoir|lagoon|pond"]`,
			`["waterway"~"waterfall|river"]`,
			`["tourism"="viewpoint"]`,
		}
	default:
		filters = []string{
			`["tourism"~"attraction|museum|zoo|theme_park|viewpoint|information"]`,
			`["historic"]`,
			`["leisure"~"park|garden"]`,
			`["natural"]`,
		}
	}
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];(")
	for _, f := range filters {
		b.WriteString(overpassSelector(radiusM, lat, lon, f))
	}
	b.WriteString(");out center 200;")
	return b.String()
}

type overpassElement struct {
	Tags map[string]string `json:"tags"`
}

func (c *POIClient) overpassQuery(ctx context.Context, lat, lon float64, radiusM int, topic types.Topic) ([]types.POIItem, error) {
	form := url.Values{}
	form.Set("data", buildOverpassQuery(lat, lon, radiusM, topic))

	var payload struct {
		Elements []overpassElement `json:"elements"`
	}
	if err := postFormJSON(ctx, c.httpClient, c.overpassURL, form, &payload); err != nil {
		return nil, err
	}

	var out []types.POIItem
	for _, el := range payload.Elements {
		name := strings.TrimSpace(el.Tags["name"])
		if name == "" {
			continue
		}
		out = append(out, types.POIItem{
			Name:   name,
			Kinds:  overpassKinds(el.Tags, topic),
			Source: "overpass",
		})
	}
	return out, nil
}

func overpassKinds(tags map[string]string, topic types.Topic) string {
	if topic == types.TopicRestaurants {
		return "amenity:" + tags["amenity"]
	}
	keys := []string{"tourism", "historic", "leisure", "natural"}
	if topic == types.TopicNature {
		keys = []string{"leisure", "natural", "water", "waterway", "tourism"}
	}
	var parts []string
	for _, k := range keys {
		if v := tags[k]; v != "" {
			parts = append(parts, k+":"+v)
		}
	}
	return strings.Join(parts, ",")
}

func (c *POIClient) wikipediaGeosearch(ctx context.Context, lat, lon float64, radiusM, limit int) ([]types.POIItem, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "geosearch")
	q.Set("gscoord", formatCoord(lat)+"|"+formatCoord(lon))
	q.Set("gsradius", strconv.Itoa(radiusM))
	q.Set("gslimit", strconv.Itoa(limit))
	q.Set("format", "json")

	var payload struct {
		Query struct {
			Geosearch []struct {
				Title string `json:"title"`
			} `json:"geosearch"`
		} `json:"query"`
	}
	if err := getJSON(ctx, c.httpClient, c.wikiURL+"?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	var out []types.POIItem
	for _, p := range payload.Query.Geosearch {
		if p.Title == "" {
			continue
		}
		out = append(out, types.POIItem{Name: p.Title, Kinds: "wikipedia", Source: "wikipedia"})
	}
	return out, nil
}

// ListFoods derives a "foods to try" list from Overpass cuisine tags on
// eateries near the city.
func (c *POIClient) ListFoods(ctx context.Context, city string, limit int) (*types.POIObservation, error) {
	ctx, span := otel.Tracer("Providers").Start(ctx, "ListFoods")
	span.SetAttributes(attribute.String("city", city))
	defer span.End()

	g, err := c.geoname(ctx, city)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "City resolution failed")
		return nil, fmt.Errorf("failed to resolve city: %w", err)
	}

	coord := fmt.Sprintf("around:%d,%s,%s", 12000, formatCoord(g.Latitude), formatCoord(g.Longitude))
	filter := `["amenity"~"restaurant|cafe|fast_food|food_court|biergarten"]["cuisine"]`
	query := "[out:json][timeout:25];(" +
		fmt.Sprintf("node(%s)%s;way(%s)%s;", coord, filter, coord, filter) +
		");out tags 200;"

	form := url.Values{}
	form.Set("data", query)

	var payload struct {
		Elements []overpassElement `json:"elements"`
	}
	if err := postFormJSON(ctx, c.httpClient, c.overpassURL, form, &payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Overpass cuisine query failed")
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, providerAttr("overpass"))
		return nil, fmt.Errorf("failed to fetch cuisines: %w", err)
	}

	seen := make(map[string]struct{})
	var items []types.POIItem
	for _, el := range payload.Elements {
		raw := strings.TrimSpace(el.Tags["cuisine"])
		if raw == "" {
			continue
		}
		for _, p := range strings.FieldsFunc(strings.ReplaceAll(raw, ",", ";"), func(r rune) bool { return r == ';' }) {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			name := titleWords(strings.ReplaceAll(p, "_", " "))
			key := strings.ToLower(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			items = append(items, types.POIItem{Name: name, Kinds: "cuisine", Source: "overpass"})
			if len(items) >= limit {
				break
			}
		}
		if len(items) >= limit {
			break
		}
	}

	span.SetAttributes(attribute.Int("results.count", len(items)))
	span.SetStatus(codes.Ok, "Foods listed")
	return &types.POIObservation{City: g.Name, Items: items}, nil
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
