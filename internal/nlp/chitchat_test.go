package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsChitchat(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"hi", true},
		{"hello there", true},
		{"thanks!", true},
		{"", true},
		{"   ", true},
		{"nice one", true}, // short, no travel hint
		{"hi, plan a trip to Goa", false},
		{"hello, weather in Delhi tomorrow?", false},
		{"best restaurants in Delhi", false},
		{"plan a 3-day trip to Kashmir", false},
		{"poi", false}, // short but carries a travel hint
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, IsChitchat(tt.text))
		})
	}
}
