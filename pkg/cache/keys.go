package cache

import (
	"fmt"
	"strings"

	"github.com/pario-ai/pokegate/pkg/models"
)

// NormalizeName trims and lower-cases a Pokémon name or id so that
// equivalent requests share a key.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ListKey is the key for a paginated list request.
func ListKey(limit, offset int) string {
	return fmt.Sprintf("list:%d:%d", limit, offset)
}

// DetailsKey is the key for a detail record. Batch lookups share it.
func DetailsKey(name string) string {
	return "details:" + NormalizeName(name)
}

// InsightKey is the key for a generated insight. Options must already be
// parsed with models.ParseLanguage and models.ParseFormat.
func InsightKey(name string, lang models.Language, format models.Format, model string, audio bool) string {
	return fmt.Sprintf("insight:%s:%s:%s:%s:%t", NormalizeName(name), lang, format, strings.ToLower(model), audio)
}
