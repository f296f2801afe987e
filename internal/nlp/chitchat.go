package nlp

import (
	"regexp"
	"strings"
)

// HelpText is the single shared helper message printed whenever the input is
// small talk or the router cannot pick an agent. Both the CLI and the REPL
// use this constant.
const HelpText = "Hey there! I can help you plan trips, find restaurants, or explore tourist spots.\n" +
	"Try asking something like:\n\n" +
	"best restaurants in Delhi\n\n" +
	"plan a 3-day trip to Kashmir\n\n" +
	"nature spots near Ooty\n"

var wordRe = regexp.MustCompile(`[a-zA-Z]+`)

var greetWords = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "yo": {}, "sup": {},
	"thanks": {}, "thank": {}, "ok": {}, "okay": {},
}

var travelHints = []string{
	"plan", "trip", "itinerary", "travel", "tour", "stay", "hotel", "flight", "train", "bus",
	"weather", "rain", "temperature", "attraction", "attractions", "restaurant", "food",
	"nature", "places", "place", "poi",
}

func hasTravelHint(t string) bool {
	for _, h := range travelHints {
		if strings.Contains(t, h) {
			return true
		}
	}
	return false
}

// IsChitchat reports whether text is a greeting or other small talk rather
// than a travel query. Empty input counts as chitchat. A greeting word does
// not disqualify a message that also carries a travel hint.
func IsChitchat(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return true
	}
	words := wordRe.FindAllString(t, -1)
	for _, w := range words {
		if _, ok := greetWords[w]; ok {
			if hasTravelHint(t) {
				return false
			}
			return true
		}
	}
	if len(words) <= 3 && !hasTravelHint(t) {
		return true
	}
	return false
}
