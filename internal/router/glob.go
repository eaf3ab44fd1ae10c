package router

import "strings"

// MatchGlob reports whether value matches pattern, where pattern may hold
// a single wildcard. Only the last '*' is treated as a wildcard; any
// earlier '*' is literal.
//
//	MatchGlob("*", "anything")           // true
//	MatchGlob("10.0.0.*", "10.0.0.5")    // true
//	MatchGlob("*.5", "10.0.0.5")         // true
//	MatchGlob("10.*.5", "10.20.30.5")    // true
//	MatchGlob("10.0.0.1", "10.0.0.1")    // true
//
// Empty pattern and empty value match each other and nothing else.
func MatchGlob(pattern, value string) bool {
	if pattern == "*" {
		return true
	}
	if pattern == "" || value == "" {
		return pattern == value
	}

	i := strings.LastIndexByte(pattern, '*')
	switch {
	case i < 0:
		return value == pattern
	case i == len(pattern)-1:
		return strings.HasPrefix(value, pattern[:i])
	case i == 0:
		return strings.HasSuffix(value, pattern[1:])
	default:
		return strings.HasPrefix(value, pattern[:i]) && strings.HasSuffix(value, pattern[i+1:])
	}
}
