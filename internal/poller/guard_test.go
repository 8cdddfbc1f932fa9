package poller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardAccept(t *testing.T) {
	tests := []struct {
		name                      string
		expected, active, payload string
		want                      bool
	}{
		{"all agree", "A", "A", "A", true},
		{"switched before response", "A", "B", "A", false},
		{"payload for other game", "A", "A", "B", false},
		{"left session", "A", "", "A", false},
		{"empty payload", "A", "A", "", false},
		{"nothing active", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(quietLogger())
			assert.Equal(t, tt.want, g.Accept(tt.expected, tt.active, tt.payload))
			if tt.want {
				assert.Zero(t, g.Dropped())
			} else {
				assert.Equal(t, int64(1), g.Dropped())
			}
		})
	}
}
