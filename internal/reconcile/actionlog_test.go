package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLastAction(t *testing.T) {
	tests := []struct {
		name   string
		player string
		log    []string
		want   string
	}{
		{"raise", "Alice", []string{"[flop] Alice -> RAISE (50)"}, "RAISE"},
		{"call with amount", "Alice", []string{"[preflop] Alice -> CALL (20)"}, "CALL"},
		{"all-in", "Bob", []string{"[turn] Bob -> ALL-IN"}, "ALL-IN"},
		{"most recent wins", "Alice", []string{"[preflop] Alice -> CALL (20)", "[flop] Bob -> CHECK", "[flop] Alice -> FOLD"}, "FOLD"},
		{"keyword priority", "Alice", []string{"[flop] Alice -> CALL then FOLD"}, "FOLD"},
		{"unknown keyword falls back to first word", "Alice", []string{"[flop] Alice -> BLIND (10)"}, "BLIND"},
		{"other player only", "Alice", []string{"[flop] Bob -> CHECK"}, ""},
		{"name must be delimited", "Al", []string{"[flop] Alice -> CHECK"}, ""},
		{"legacy format", "Alice", []string{"Alice raises to 40"}, "RAISE"},
		{"legacy call", "Alice", []string{"Alice calls 20"}, "CALL"},
		{"newer arrow entry beats older legacy", "Alice", []string{"Alice checks", "[river] Alice -> CALL (80)"}, "CALL"},
		{"newer legacy entry beats older arrow", "Alice", []string{"[river] Alice -> CALL (80)", "Alice folds"}, "FOLD"},
		{"no arrow and no prefix", "Alice", []string{"[SHOWDOWN] Nouveau tour commence"}, ""},
		{"empty log", "Alice", nil, ""},
		{"empty name", "", []string{"[flop]  -> CHECK"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LastAction(tt.player, tt.log))
		})
	}
}
