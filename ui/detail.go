package ui

import (
	"fmt"
	"slices"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"llmkeyring/i18n"
	"llmkeyring/provider"
)

// ProviderMarkdown describes p as a markdown document. Secrets are never
// included, only the reference they are stored under.
func ProviderMarkdown(p provider.Provider, isDefault bool, msgs i18n.Localizer) string {
	if msgs == nil {
		msgs = i18n.English
	}

	var b strings.Builder
	title := p.Name
	if isDefault {
		title += " (default)"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	fmt.Fprintf(&b, "- **ID:** `%s`\n", p.ID)
	fmt.Fprintf(&b, "- **Kind:** %s (`%s`)\n", msgs.Text(p.Kind.DisplayKey()), p.Kind)
	fmt.Fprintf(&b, "- **Base URL:** `%s`\n", orNone(p.BaseURL))
	fmt.Fprintf(&b, "- **Default model:** %s\n", orNone(p.DefaultModel))
	fmt.Fprintf(&b, "- **Enabled:** %t\n", p.Enabled)
	if p.Auth.IsBearer() {
		fmt.Fprintf(&b, "- **Auth:** API key (ref `%s`)\n", p.Auth.KeyRef)
	} else {
		b.WriteString("- **Auth:** none\n")
	}

	if len(p.ExtraHeaders) > 0 {
		b.WriteString("\n## Extra headers\n\n")
		keys := make([]string, 0, len(p.ExtraHeaders))
		for k := range p.ExtraHeaders {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- `%s: %s`\n", k, p.ExtraHeaders[k])
		}
	}

	b.WriteString("\n## Last test\n\n")
	fmt.Fprintf(&b, "- **Status:** %s\n", statusLabel(p.LastTest.Status, msgs))
	if p.LastTest.At != nil {
		fmt.Fprintf(&b, "- **At:** %s\n", p.LastTest.At.Local().Format("2006-01-02 15:04:05"))
	}
	if p.LastTest.Message != "" {
		fmt.Fprintf(&b, "\n```\n%s\n```\n", p.LastTest.Message)
	}
	return b.String()
}

func statusLabel(s provider.TestStatus, msgs i18n.Localizer) string {
	switch s {
	case provider.StatusSuccess:
		return msgs.Text(i18n.StatusSuccess)
	case provider.StatusFailure:
		return msgs.Text(i18n.StatusFailure)
	default:
		return msgs.Text(i18n.StatusUnknown)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// RenderMarkdown renders md for a terminal of the given width. Plain URLs
// stay plain text so the terminal can make them clickable.
func RenderMarkdown(md string, width int) string {
	if width < 20 {
		width = 80
	}
	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	doc := p.Parse([]byte(md))
	r := markdown.NewRenderer(width-4, 0)
	return string(gomarkdown.Render(doc, r))
}
