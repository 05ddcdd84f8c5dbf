// Package markdown converts the restricted recipe-document subset into
// markup: headings 1-6, bullets, numbered lines, bold spans, and plain
// paragraphs. List semantics are section-aware; under an "instructions"
// heading every step renders as an ordered-list item regardless of how it
// was authored.
package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/recipesmd/recipesmd/pkg/duration"
	"github.com/recipesmd/recipesmd/pkg/header"
)

const instructionsSection = "instructions"

var (
	numberedPattern = regexp.MustCompile(`^\d+\.\s+`)
	boldStarPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnderscore  = regexp.MustCompile(`__(.+?)__`)
)

// headingMarkers is ordered most-specific first so "### " wins over "# ".
var headingMarkers = []struct {
	prefix string
	level  int
}{
	{"###### ", 6},
	{"##### ", 5},
	{"#### ", 4},
	{"### ", 3},
	{"## ", 2},
	{"# ", 1},
}

// EscapeHTML replaces the five HTML metacharacters.
func EscapeHTML(text string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	return r.Replace(text)
}

// RenderInline escapes a line and converts **text** and __text__ spans to
// strong emphasis. No other inline markup is interpreted.
func RenderInline(text string) string {
	escaped := EscapeHTML(text)
	escaped = boldStarPattern.ReplaceAllString(escaped, "<strong>$1</strong>")
	return boldUnderscore.ReplaceAllString(escaped, "<strong>$1</strong>")
}

// Render produces the markup for a document: the header summary block,
// when any recognized field contributes, followed by the body markup.
func Render(h *header.Header, body string) string {
	return RenderSummary(h) + renderBody(h, body)
}

// RenderDocument runs the full pipeline over a raw document and returns the
// display title alongside the markup. The fallback title is used when the
// header carries none.
func RenderDocument(raw, fallbackTitle string) (string, string) {
	h, body := header.Parse(raw)
	title := fallbackTitle
	if h != nil {
		if t := strings.TrimSpace(h.Text("title")); t != "" {
			title = t
		}
	}
	return title, Render(h, body)
}

// renderBody walks the body line by line, tracking the open list kind and
// the current section name.
func renderBody(h *header.Header, body string) string {
	var sb strings.Builder

	title := ""
	if h != nil {
		title = strings.ToLower(strings.TrimSpace(h.Text("title")))
	}
	titleSuppressed := false

	section := ""
	openList := "" // "", "ol", or "ul"

	closeList := func() {
		if openList != "" {
			fmt.Fprintf(&sb, "</%s>", openList)
			openList = ""
		}
	}
	openListAs := func(kind string) {
		if openList == kind {
			return
		}
		closeList()
		fmt.Fprintf(&sb, "<%s>", kind)
		openList = kind
	}

	for _, rawLine := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(rawLine)
		if trimmed == "" {
			continue
		}

		if level, text, ok := matchHeading(trimmed); ok {
			if level == 1 && !titleSuppressed && title != "" && strings.ToLower(text) == title {
				titleSuppressed = true
				section = strings.ToLower(text)
				continue
			}
			closeList()
			fmt.Fprintf(&sb, "<h%d>%s</h%d>", level, RenderInline(text), level)
			section = strings.ToLower(text)
			continue
		}

		if section == instructionsSection && numberedPattern.MatchString(trimmed) {
			openListAs("ol")
			fmt.Fprintf(&sb, "<li>%s</li>", RenderInline(numberedPattern.ReplaceAllString(trimmed, "")))
			continue
		}

		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			if section == instructionsSection {
				openListAs("ol")
			} else {
				openListAs("ul")
			}
			fmt.Fprintf(&sb, "<li>%s</li>", RenderInline(trimmed[2:]))
			continue
		}

		if section == instructionsSection {
			openListAs("ol")
			fmt.Fprintf(&sb, "<li>%s</li>", RenderInline(trimmed))
			continue
		}

		closeList()
		fmt.Fprintf(&sb, "<p>%s</p>", RenderInline(trimmed))
	}

	closeList()
	return sb.String()
}

func matchHeading(trimmed string) (int, string, bool) {
	for _, m := range headingMarkers {
		if strings.HasPrefix(trimmed, m.prefix) {
			return m.level, strings.TrimSpace(trimmed[len(m.prefix):]), true
		}
	}
	return 0, "", false
}

// RenderSummary assembles the structured summary block from recognized
// header fields: a badge line, a tags line, a times/servings line, and a
// source link. It returns "" when no recognized field contributes.
func RenderSummary(h *header.Header) string {
	if h == nil {
		return ""
	}

	var badges []string
	addBadges := func(values []string) {
		for _, v := range values {
			if v == "" {
				continue
			}
			badge := strings.ToUpper(strings.ReplaceAll(v, "_", " "))
			badges = append(badges, EscapeHTML(badge))
		}
	}
	addBadges(h.List("meal"))
	if c := h.Text("category"); c != "" {
		addBadges([]string{c})
	}
	addBadges(h.List("ethnicity"))
	addBadges(h.List("diet_friendly"))

	tagsLine := ""
	if tags := h.List("tags"); len(tags) > 0 {
		tagsLine = EscapeHTML(strings.Join(tags, ", "))
	}

	var timeParts []string
	addTime := func(label, key string) {
		if raw := h.Text(key); raw != "" {
			if readable := duration.FormatMinutes(raw); readable != "" {
				timeParts = append(timeParts, label+" "+EscapeHTML(readable))
			}
		}
	}
	addTime("Prep", "prep_time")
	addTime("Cook", "cook_time")
	addTime("Total", "total_time")

	var secondary []string
	if len(timeParts) > 0 {
		secondary = append(secondary, strings.Join(timeParts, " • "))
	}
	if y := h.Text("yield"); y != "" {
		secondary = append(secondary, EscapeHTML(duration.FormatServings(y)))
	}

	sourceURL := strings.TrimSpace(h.Text("url"))

	var parts []string
	if len(badges) > 0 {
		parts = append(parts, `<div class="meta-badges">`+strings.Join(badges, " • ")+`</div>`)
	}
	if tagsLine != "" {
		parts = append(parts, `<div class="meta-tags">`+tagsLine+`</div>`)
	}
	if len(secondary) > 0 {
		parts = append(parts, `<div class="meta-times">`+strings.Join(secondary, " · ")+`</div>`)
	}
	if sourceURL != "" {
		parts = append(parts, `<div class="meta-source"><a href="`+EscapeHTML(sourceURL)+`" target="_blank" rel="noopener noreferrer">Source</a></div>`)
	}

	if len(parts) == 0 {
		return ""
	}
	return `<section class="recipe-meta">` + strings.Join(parts, "") + `</section>`
}
