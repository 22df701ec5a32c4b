package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLetter(t *testing.T) {
	tests := []struct {
		units string
		want  string
	}{
		{"imperial", "F"},
		{"metric", "C"},
		{"standard", "K"},
		{"kelvin", "K"},
		{"", "K"},
		{"Metric", "K"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Letter(tt.units), "Letter(%q)", tt.units)
	}
}

func TestResolveUnits(t *testing.T) {
	assert.Equal(t, "metric", ResolveUnits(""))
	assert.Equal(t, "metric", ResolveUnits("   "))
	assert.Equal(t, "imperial", ResolveUnits(" Imperial "))
	assert.Equal(t, "kelvin", ResolveUnits("kelvin"))
}
