package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aalvaropc/tether/internal/domain"
)

var titleCase = cases.Title(language.English)

func clampString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))

	n := 0
	for _, r := range s {
		if n >= maxLen {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String() + "…"
}

func typeLabel(t domain.ResourceType) string {
	if t == "" {
		return "Unknown"
	}
	return titleCase.String(string(t))
}

// resourceMarkdown lays a resource out for the detail pane. Map entries are
// sorted so the output is stable.
func resourceMarkdown(r domain.Resource) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Data.Name)
	fmt.Fprintf(&b, "**%s** · `%s`\n\n", typeLabel(r.Data.Type), r.ID)
	if r.Data.Description != nil && *r.Data.Description != "" {
		b.WriteString(*r.Data.Description)
		b.WriteString("\n\n")
	}

	writeTable(&b, "Data", r.Data.Data)
	writeTable(&b, "Metadata", r.Data.Metadata)

	b.WriteString("## Timestamps\n\n")
	fmt.Fprintf(&b, "- created: %s\n", r.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- updated: %s\n", r.UpdatedAt.Format(time.RFC3339))
	if r.OwnerID != nil {
		fmt.Fprintf(&b, "- owner: %s\n", *r.OwnerID)
	}
	return b.String()
}

func writeTable(b *strings.Builder, title string, m map[string]string) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(b, "## %s\n\n| key | value |\n| --- | --- |\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "| %s | %s |\n", escapeCell(k), escapeCell(clampString(m[k], 120)))
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
