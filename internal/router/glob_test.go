package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchGlob(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pattern  string
		value    string
		expected bool
	}{
		{name: "star matches anything", pattern: "*", value: "anything", expected: true},
		{name: "star matches empty", pattern: "*", value: "", expected: true},
		{name: "both empty", pattern: "", value: "", expected: true},
		{name: "empty pattern", pattern: "", value: "10.0.0.1", expected: false},
		{name: "empty value", pattern: "10.*", value: "", expected: false},
		{name: "exact match", pattern: "10.0.0.1", value: "10.0.0.1", expected: true},
		{name: "exact mismatch", pattern: "10.0.0.1", value: "10.0.0.2", expected: false},
		{name: "trailing star prefix", pattern: "10.0.0.*", value: "10.0.0.5", expected: true},
		{name: "trailing star prefix mismatch", pattern: "10.0.0.*", value: "10.0.1.5", expected: false},
		{name: "trailing star matches bare prefix", pattern: "10.0.0.*", value: "10.0.0.", expected: true},
		{name: "leading star suffix", pattern: "*.5", value: "10.0.0.5", expected: true},
		{name: "leading star suffix mismatch", pattern: "*.5", value: "10.0.0.6", expected: false},
		{name: "middle star", pattern: "10.*.5", value: "10.20.30.5", expected: true},
		{name: "middle star wrong suffix", pattern: "10.*.5", value: "10.20.30.6", expected: false},
		{name: "middle star wrong prefix", pattern: "10.*.5", value: "11.20.30.5", expected: false},
		{name: "middle star overlapping prefix and suffix", pattern: "ab*ba", value: "aba", expected: true},
		{name: "earlier star is literal", pattern: "a*b*", value: "a*bc", expected: true},
		{name: "earlier star is not a wildcard", pattern: "a*b*", value: "axbc", expected: false},
		{name: "ipv6 prefix", pattern: "fd00::*", value: "fd00::1", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, MatchGlob(tt.pattern, tt.value))
		})
	}
}

func TestMatchGlob_Total(t *testing.T) {
	t.Parallel()

	inputs := []string{"", "*", "**", "a", "*a", "a*", "a*b", "*a*", "\x00*\xff"}
	for _, p := range inputs {
		for _, v := range inputs {
			assert.NotPanics(t, func() { MatchGlob(p, v) }, "pattern %q value %q", p, v)
		}
	}
}
