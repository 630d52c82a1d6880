package core

import (
	"strings"
	"time"
)

var (
	NowFunc  = time.Now // mockable
	Location = time.UTC // set by NewConfig
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Today returns the current calendar day in Location.
func Today() Date {
	return DateOf(NowFunc().In(Location))
}

// UniqueStrings drops empty and duplicate values, keeping the first occurrence order.
func UniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
