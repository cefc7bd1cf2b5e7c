package request

import (
	"strings"
)

// parseRequestLine parses: METHOD SP PATH SP VERSION
// Any other shape is reported as not ok.
func parseRequestLine(line string) (string, string, string, bool) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return "", "", "", false
	}

	method, path, version := parts[0], parts[1], parts[2]
	if method == "" || path == "" || version == "" {
		return "", "", "", false
	}

	return method, path, version, true
}
