package tui

import (
	"fmt"
	"strings"
)

// renderList renders the certificate list view.
func renderList(m *Model) string {
	var b strings.Builder

	title := titleStyle.Render(fmt.Sprintf(" certguard: %d certificates", len(m.filtered)))
	if len(m.items) != len(m.filtered) {
		title += subtleStyle.Render(fmt.Sprintf(" (of %d total)", len(m.items)))
	}
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	filterLine := subtleStyle.Render(" Filter: ") +
		"[" + m.filter.activeStrength() + "]"
	if m.filter.search != "" {
		filterLine += subtleStyle.Render("  Search: ") + "[" + m.filter.search + "]"
	}
	b.WriteString(filterLine)
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(subtleStyle.Render("  No certificates match the current filters.\n"))
	} else {
		visibleLines := max(m.height-8, 1)
		start := max(m.cursor-visibleLines/2, 0)
		end := start + visibleLines
		if end > len(m.filtered) {
			end = len(m.filtered)
			start = max(end-visibleLines, 0)
		}

		for i := start; i < end; i++ {
			b.WriteString(renderItemLine(m.filtered[i], i == m.cursor))
			b.WriteString("\n")
		}
	}

	if m.filter.searching {
		b.WriteString("\n")
		b.WriteString(" Search: " + m.filter.search + "█")
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(" ↑↓ navigate  enter detail  / search  s strength  q quit"))
	b.WriteString("\n")

	return b.String()
}

// renderItemLine renders a single certificate line in the list.
func renderItemLine(it item, selected bool) string {
	badge := strengthBadge(it.strength())
	role := roleStyle.Render(fmt.Sprintf("%-6s", it.cert.Role))
	source := sourceStyle.Render(fmt.Sprintf("%-24s", fmt.Sprintf("%s#%d", it.result.Source, it.index)))

	line := fmt.Sprintf(" %s  %s  %s  %s", badge, role, source, it.cert.Subject)

	if selected {
		return selectedStyle.Render("▸") + line
	}
	return " " + line
}
