// Package strategy holds the bot decision policies.
package strategy

import (
	"fmt"
	rand "math/rand/v2"
	"slices"
	"sort"
	"strings"

	"github.com/lox/pokerpoll/internal/api"
)

// Policy chooses one action from a single snapshot. It returns false when
// no action is valid.
type Policy interface {
	Name() string
	Decide(snap *api.GameSnapshot, self string) (api.Action, bool)
}

// policies maps strategy names to their constructors
var policies = map[string]func(rng *rand.Rand) Policy{
	"aggressive":   func(rng *rand.Rand) Policy { return NewAggressive(rng) },
	"conservative": func(*rand.Rand) Policy { return Conservative{} },
	"calling":      func(*rand.Rand) Policy { return Calling{} },
	"random":       func(rng *rand.Rand) Policy { return NewRandom(rng) },
	"maniac":       func(rng *rand.Rand) Policy { return NewManiac(rng) },
}

// New looks up a policy by name
func New(name string, rng *rand.Rand) (Policy, error) {
	ctor, ok := policies[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s (available: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(rng), nil
}

// Names returns the registered strategy names, sorted
func Names() []string {
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func firstValid(snap *api.GameSnapshot, kinds ...api.ActionKind) (api.Action, bool) {
	for _, k := range kinds {
		if slices.Contains(snap.ValidActions, k) {
			return api.Action{Type: k}, true
		}
	}
	return api.Action{}, false
}
