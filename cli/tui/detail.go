package tui

import (
	"fmt"
	"strings"
)

// renderDetail renders the detail view for a single certificate.
func renderDetail(m *Model) string {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return "No certificate selected."
	}

	it := m.filtered[m.cursor]
	c := it.cert

	var b strings.Builder

	fmt.Fprintf(&b, " %s · %s · %s\n",
		roleStyle.Render(c.Role),
		c.Subject,
		strengthStyle(it.strength()).Render(strings.ToUpper(it.strength().String())))
	b.WriteString(headerStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")
	b.WriteString(" " + sourceStyle.Render(fmt.Sprintf("%s #%d (%s)", it.result.Source, it.index, it.result.Variant)) + "\n\n")

	field := func(name, value string) {
		fmt.Fprintf(&b, "   %s %s\n", subtleStyle.Render(fmt.Sprintf("%-12s", name+":")), value)
	}
	field("issuer", c.Issuer)
	field("fingerprint", c.Fingerprint)
	if c.SignatureAlgorithm != "" {
		field("signature", fmt.Sprintf("%s (%s)", c.SignatureAlgorithm, strengthStyle(c.Signature.Strength).Render(c.Signature.Strength.String())))
	}
	field("key", fmt.Sprintf("%s (%s)", c.Key, strengthStyle(c.KeyVerdict.Strength).Render(c.KeyVerdict.Strength.String())))
	b.WriteString("\n")

	var flags []string
	if c.Anchor {
		flags = append(flags, "trust anchor")
	}
	if c.IssuedByAnchor {
		flags = append(flags, "issued by anchor")
	}
	if c.Untrusted {
		flags = append(flags, "blocklisted")
	}
	if len(flags) > 0 {
		b.WriteString(" " + anchorStyle.Render(strings.Join(flags, ", ")) + "\n\n")
	}

	for _, reason := range []string{c.Signature.Reason, c.KeyVerdict.Reason} {
		if reason != "" {
			b.WriteString(" " + sectionStyle.Render("Policy") + "\n")
			b.WriteString(wrapText(reason, m.width-4, "   "))
			b.WriteString("\n")
		}
	}

	if len(it.result.Violations) > 0 {
		b.WriteString(" " + sectionStyle.Render("Violations") + "\n")
		for _, v := range it.result.Violations {
			b.WriteString(violationStyle.Render(wrapText(v.Field+": "+v.Message, m.width-4, "   ")))
		}
		b.WriteString("\n")
	}
	if len(it.result.Warnings) > 0 {
		b.WriteString(" " + sectionStyle.Render("Warnings") + "\n")
		for _, w := range it.result.Warnings {
			b.WriteString(wrapText(w.Field+": "+w.Message, m.width-4, "   "))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(" esc back  n/p next/prev  q quit"))
	b.WriteString("\n")

	return b.String()
}

// wrapText wraps text at the given width with the given indent prefix.
func wrapText(text string, width int, indent string) string {
	if width <= 0 {
		width = 78
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(indent)
	lineLen := len(indent)

	for i, word := range words {
		if i > 0 && lineLen+1+len(word) > width {
			b.WriteString("\n" + indent)
			lineLen = len(indent)
		} else if i > 0 {
			b.WriteString(" ")
			lineLen++
		}
		b.WriteString(word)
		lineLen += len(word)
	}
	b.WriteString("\n")
	return b.String()
}
