package mcp

import (
	"fmt"
	"strings"

	"github.com/pario-ai/pokegate/pkg/models"
)

// formatPokemon renders the fields an assistant usually needs.
func formatPokemon(p models.Pokemon) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n", p.ID, p.Name)

	types := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		types = append(types, t.Type.Name)
	}
	fmt.Fprintf(&b, "Types:     %s\n", strings.Join(types, ", "))

	abilities := make([]string, 0, len(p.Abilities))
	for _, a := range p.Abilities {
		abilities = append(abilities, a.Ability.Name)
	}
	fmt.Fprintf(&b, "Abilities: %s\n", strings.Join(abilities, ", "))
	fmt.Fprintf(&b, "Height:    %.1f m\nWeight:    %.1f kg\n", float64(p.Height)/10, float64(p.Weight)/10)

	if len(p.Stats) > 0 {
		b.WriteString("Base stats:\n")
		for _, s := range p.Stats {
			fmt.Fprintf(&b, "  %-16s %4d\n", s.Stat.Name, s.BaseStat)
		}
	}
	return b.String()
}

func formatInsight(r models.InsightResult) string {
	return fmt.Sprintf("%s\n\n(source: %s, model: %s, lang: %s)\n", r.Text, r.Source, r.ModelUsed, r.Lang)
}

func formatBatch(out models.BatchOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resolved %d of %d.\n", out.SuccessCount, out.Total)
	for _, item := range out.Success {
		fmt.Fprintf(&b, "  ok      %-20s (%s)\n", item.Name, item.Source)
	}
	for _, name := range out.Failed {
		fmt.Fprintf(&b, "  failed  %s\n", name)
	}
	return b.String()
}

func formatMetrics(s models.MetricsSnapshot) string {
	hitRate := float64(0)
	if total := s.CacheHits + s.CacheMisses; total > 0 {
		hitRate = float64(s.CacheHits) / float64(total) * 100
	}
	return fmt.Sprintf("Gateway Metrics\n"+
		"  Requests:  %d\n"+
		"  Hits:      %d\n"+
		"  Misses:    %d\n"+
		"  Hit Rate:  %.1f%%\n"+
		"  AI Errors: %d\n"+
		"  Fallbacks: %d\n",
		s.TotalRequests, s.CacheHits, s.CacheMisses, hitRate, s.AIErrors, s.FallbacksUsed)
}

func formatAuditRecords(records []models.InsightRecord) string {
	if len(records) == 0 {
		return "No audit records found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-16s %-4s %-26s %-8s %8s\n",
		"Time", "Pokemon", "Lang", "Model", "Source", "Latency")
	b.WriteString(strings.Repeat("-", 88) + "\n")
	for _, r := range records {
		fmt.Fprintf(&b, "%-20s %-16s %-4s %-26s %-8s %6dms\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Pokemon, r.Lang, r.Model, r.Source, r.LatencyMs)
	}
	return b.String()
}
