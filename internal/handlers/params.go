package handlers

import (
	"net/url"
	"strconv"
	"strings"
)

const defaultExclude = "retweets,replies"

// clampInt parses raw into an int within [min, max], falling back to
// def when missing or malformed.
func clampInt(raw string, def, min, max int) int {
	v, err := strconv.Atoi(raw)
	if err != nil {
		v = def
	}
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v
}

// excludeParam keeps the absent-vs-empty distinction: an absent
// parameter applies the default filter, an explicit empty value means
// include everything.
func excludeParam(q url.Values) string {
	if !q.Has("exclude") {
		return defaultExclude
	}
	return q.Get("exclude")
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}
