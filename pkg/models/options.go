package models

import "strings"

func normalizeOption(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
