package types

// Intent is the user's requested operation, decided by the router.
type Intent string

const (
	IntentWeather Intent = "weather"
	IntentPOI     Intent = "poi"
	IntentPlan    Intent = "plan"
)

// ValidIntent reports whether the router produced a dispatchable intent.
func ValidIntent(i Intent) bool {
	switch i {
	case IntentWeather, IntentPOI, IntentPlan:
		return true
	}
	return false
}

// Topic is the POI sub-category.
type Topic string

const (
	TopicGeneral     Topic = "general"
	TopicRestaurants Topic = "restaurants"
	TopicFoods       Topic = "foods"
	TopicNature      Topic = "nature"
)

// ValidTopic reports whether t is one of the four allowed topics.
func ValidTopic(t Topic) bool {
	switch t {
	case TopicGeneral, TopicRestaurants, TopicFoods, TopicNature:
		return true
	}
	return false
}

// RouteDecision is the router's complete output, consumed by exactly one
// agent invocation. Dates are ISO 8601 calendar dates (YYYY-MM-DD) in the
// resolved local zone; EndDate >= StartDate and Days >= 1.
type RouteDecision struct {
	Intent     Intent `json:"intent"`
	City       string `json:"city"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Days       int    `json:"days"`
	POITopic   Topic  `json:"poi_topic"`
	GuideTopic string `json:"guide_topic"`

	// Optional budget hints carried through to the planner.
	BudgetAmount   *int   `json:"budget_amount,omitempty"`
	BudgetCurrency string `json:"budget_currency,omitempty"`
	BudgetMode     bool   `json:"budget_mode,omitempty"`
}

// CityResolution is a geocoder result, resolved once per query.
type CityResolution struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country,omitempty"`
}

// WeatherDay is one row of a daily forecast. Temperature and precipitation
// pointers are nil when the provider omitted the value.
type WeatherDay struct {
	Date     string   `json:"date"`
	TminC    *float64 `json:"tmin_c"`
	TmaxC    *float64 `json:"tmax_c"`
	PrecipMM *float64 `json:"precip_mm"`
	Summary  string   `json:"summary"`
}

// WeatherObservation is the weather agent's structured payload.
type WeatherObservation struct {
	City  string       `json:"city"`
	Days  []WeatherDay `json:"days"`
	Error string       `json:"error,omitempty"`
}

// POIItem is a single point of interest from any provider in the chain.
type POIItem struct {
	Name   string  `json:"name"`
	Kinds  string  `json:"kinds,omitempty"`
	Rate   float64 `json:"rate,omitempty"`
	OTMUrl string  `json:"otm,omitempty"`
	Source string  `json:"source"`
}

// POIObservation is the POI agent's structured payload.
type POIObservation struct {
	City    string    `json:"city"`
	Items   []POIItem `json:"items"`
	Sources []string  `json:"source,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Message is a single chat-completion turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
