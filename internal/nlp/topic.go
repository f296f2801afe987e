package nlp

import (
	"regexp"

	"github.com/roamwise/go-trip-planner/internal/types"
)

var (
	foodsRe = regexp.MustCompile(`(?i)\b(foods?\s+to\s+try|local\s+dishes|must[-\s]*try\s+foods?|what\s+to\s+eat|famous\s+foods?)\b`)
	// Tolerates common misspellings like "restuarant" and "resteurant".
	restaurantRe = regexp.MustCompile(`(?i)\b(rest(?:a|e)?ur(?:a|e)?n(?:t|ts)?|resto|dining|food\s+places|best\s+rest|top\s+rest)\b`)
	natureRe     = regexp.MustCompile(`(?i)\b(nature|park(s)?|garden(s)?|lake(s)?|waterfall(s)?|beach(es)?|viewpoint(s)?|hiking|trail(s)?|valley|forest)\b`)
)

// topicRules is evaluated top to bottom; the first matching predicate wins.
// The order is significant: "street food restaurants" must classify as
// foods, not restaurants.
var topicRules = []struct {
	re    *regexp.Regexp
	topic types.Topic
}{
	{foodsRe, types.TopicFoods},
	{restaurantRe, types.TopicRestaurants},
	{natureRe, types.TopicNature},
}

// DetectTopic classifies text into a POI topic using the fixed rule order,
// defaulting to general when nothing matches.
func DetectTopic(text string) types.Topic {
	for _, r := range topicRules {
		if r.re.MatchString(text) {
			return r.topic
		}
	}
	return types.TopicGeneral
}
