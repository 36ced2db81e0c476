package mcp

import (
	"fmt"
	"strings"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/orchestrator"
)

// formatGuide renders a guide as markdown.
func formatGuide(tripID string, g *models.Guide) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s, %s to %s (%d days)\n", g.Destination, g.StartDate, g.EndDate, g.Days)
	if tripID != "" {
		fmt.Fprintf(&b, "Trip %s, run %s\n", tripID, g.RunID)
	}

	b.WriteString("\n## Itinerary\n")
	for _, d := range g.Itinerary {
		fmt.Fprintf(&b, "### %s %s\n", d.Date, d.Title)
		for _, a := range d.Activities {
			if a.Time != "" {
				fmt.Fprintf(&b, "- %s %s\n", a.Time, a.Title)
			} else {
				fmt.Fprintf(&b, "- %s\n", a.Title)
			}
		}
	}

	b.WriteString("\n## Weather\n")
	for _, f := range g.Weather {
		fmt.Fprintf(&b, "- %s: %s, %.0f/%.0f°C\n", f.Date, f.Condition, f.TempLowC, f.TempHighC)
	}

	writePlaces(&b, "Restaurants", g.Restaurants)
	writePlaces(&b, "Attractions", g.Attractions)

	b.WriteString("\n## Events\n")
	for _, e := range g.Events {
		fmt.Fprintf(&b, "- %s", e.Name)
		if e.Date != "" {
			fmt.Fprintf(&b, " (%s)", e.Date)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n## Neighborhoods\n")
	for _, n := range g.Neighborhoods {
		fmt.Fprintf(&b, "- %s", n.Name)
		if n.BestFor != "" {
			fmt.Fprintf(&b, ": %s", n.BestFor)
		}
		b.WriteString("\n")
	}

	info := g.PracticalInfo
	fmt.Fprintf(&b, "\n## Practical info\nCurrency: %s\nLanguage: %s\n", info.Currency, info.Language)
	for _, tip := range info.Tips {
		fmt.Fprintf(&b, "- %s\n", tip)
	}

	if len(g.Citations) > 0 {
		b.WriteString("\n## Sources\n")
		for _, c := range g.Citations {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return b.String()
}

func writePlaces(b *strings.Builder, title string, places []models.Place) {
	fmt.Fprintf(b, "\n## %s\n", title)
	for _, p := range places {
		fmt.Fprintf(b, "- %s", p.Name)
		if p.PriceTier != "" {
			fmt.Fprintf(b, " %s", p.PriceTier)
		}
		if p.DistanceKm > 0 {
			fmt.Fprintf(b, " (%.1f km from hotel)", p.DistanceKm)
		}
		b.WriteString("\n")
	}
}

// formatFailure explains a failed generation and the progress seen before it.
func formatFailure(gerr *orchestrator.GenerationError, notes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Guide generation failed (%s), run %s\n", gerr.Classification, gerr.RunID)
	if gerr.Err != nil {
		fmt.Fprintf(&b, "  %v\n", gerr.Err)
	}
	if len(gerr.Missing) > 0 {
		b.WriteString("\nMissing sections:\n")
		for _, m := range gerr.Missing {
			fmt.Fprintf(&b, "  %-15s %s\n", m.Section, m.Reason)
		}
	}
	if len(notes) > 0 {
		b.WriteString("\nProgress:\n")
		for _, n := range notes {
			fmt.Fprintf(&b, "  %s\n", n)
		}
	}
	return b.String()
}

// formatTrip formats one trip record as text.
func formatTrip(rec models.TripRecord) string {
	var b strings.Builder
	req := rec.Request
	fmt.Fprintf(&b, "Trip %s\n", rec.ID)
	fmt.Fprintf(&b, "  Destination: %s\n", req.Destination)
	fmt.Fprintf(&b, "  Dates:       %s to %s (%d days)\n", req.StartDate, req.EndDate, req.Days())
	if req.Hotel != nil {
		fmt.Fprintf(&b, "  Hotel:       %s\n", req.Hotel.Name)
	}
	fmt.Fprintf(&b, "  Status:      %s\n", rec.Status)
	fmt.Fprintf(&b, "  Updated:     %s\n", rec.UpdatedAt.Format("2006-01-02 15:04:05"))
	if rec.Guide != nil {
		fmt.Fprintf(&b, "  Guide run:   %s (%d citations)\n", rec.Guide.RunID, len(rec.Guide.Citations))
	}
	if f := rec.Failure; f != nil {
		fmt.Fprintf(&b, "  Last failure: %s (run %s)\n", f.Classification, f.RunID)
		for _, m := range f.Missing {
			fmt.Fprintf(&b, "    %-15s %s\n", m.Section, m.Reason)
		}
	}
	return b.String()
}

// formatTrips formats trip records as a text table.
func formatTrips(recs []models.TripRecord) string {
	if len(recs) == 0 {
		return "No trips found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s %-20s %-10s %-10s %-9s %-20s\n",
		"Trip ID", "Destination", "Start", "End", "Status", "Updated")
	b.WriteString(strings.Repeat("-", 110) + "\n")
	for _, r := range recs {
		dest := r.Request.Destination
		if len(dest) > 20 {
			dest = dest[:17] + "..."
		}
		fmt.Fprintf(&b, "%-36s %-20s %-10s %-10s %-9s %-20s\n",
			r.ID, dest, r.Request.StartDate, r.Request.EndDate, r.Status,
			r.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

// formatCacheStats formats cache stats as text.
func formatCacheStats(stats models.CacheStats) string {
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	return fmt.Sprintf("Cache Statistics\n"+
		"  Entries:  %d\n"+
		"  Hits:     %d\n"+
		"  Misses:   %d\n"+
		"  Hit Rate: %.1f%%\n",
		stats.Entries, stats.Hits, stats.Misses, hitRate)
}

// formatAuditEntries formats audit entries as a text table.
func formatAuditEntries(entries []models.AuditEntry) string {
	if len(entries) == 0 {
		return "No audit entries found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s %-15s %-9s %-13s %8s  %s\n",
		"Run ID", "Section", "Status", "Error", "Latency", "Reason")
	b.WriteString(strings.Repeat("-", 110) + "\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%-36s %-15s %-9s %-13s %6dms  %s\n",
			e.RunID, e.Section, e.Status, e.ErrorKind, e.LatencyMs, e.Reason)
	}
	return b.String()
}
