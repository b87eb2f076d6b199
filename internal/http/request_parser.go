// Package http provides the JSON API surface of the fines dashboard: thin
// handlers that parse query parameters, call the fines service, and map its
// results to HTTP status codes.
package http

import (
	"net/url"
	"strconv"
	"strings"
)

// parseIntParam reads an integer query parameter, falling back to def when
// absent or malformed. Range enforcement happens downstream by clamping,
// never by rejection.
func parseIntParam(query url.Values, key string, def int) int {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// parseYearParam reads the year parameter; zero means "all years".
func parseYearParam(query url.Values) int {
	year := parseIntParam(query, "year", 0)
	if year < 0 {
		return 0
	}
	return year
}
