package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"llmkeyring/i18n"
	"llmkeyring/provider"
)

const (
	nameWidth = 22
	kindWidth = 26
	baseWidth = 48
	authWidth = 6
)

// padRight truncates s to width display cells and pads it with spaces.
// CJK characters count as two cells.
func padRight(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return s + strings.Repeat(" ", width-runewidth.StringWidth(s))
}

// RenderProviderTable writes one line per provider: position, default
// marker, name, kind, base URL, auth and last test.
func RenderProviderTable(w io.Writer, providers []provider.Provider, defaultID string, msgs i18n.Localizer) error {
	if msgs == nil {
		msgs = i18n.English
	}

	header := fmt.Sprintf("%3s  %s %s  %s  %s  %s  %s",
		"#", " ",
		padRight("NAME", nameWidth),
		padRight("KIND", kindWidth),
		padRight("BASE URL", baseWidth),
		padRight("AUTH", authWidth),
		"LAST TEST",
	)
	if _, err := fmt.Fprintln(w, HeaderStyle.Render(header)); err != nil {
		return err
	}

	for i, p := range providers {
		marker := " "
		if p.ID == defaultID {
			marker = HighlightStyle.Render("*")
		}

		name := padRight(p.Name, nameWidth)
		if !p.Enabled {
			name = DimStyle.Render(name)
		}

		auth := "none"
		if p.Auth.IsBearer() {
			auth = "key"
		}

		last := StatusDot(p.LastTest.Status)
		if p.LastTest.At != nil {
			last += " " + DimStyle.Render(p.LastTest.At.Local().Format("2006-01-02 15:04"))
		}

		line := fmt.Sprintf("%3d  %s %s  %s  %s  %s  %s",
			i, marker, name,
			padRight(msgs.Text(p.Kind.DisplayKey()), kindWidth),
			padRight(p.BaseURL, baseWidth),
			padRight(auth, authWidth),
			last,
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTemplateTable lists the built-in presets by name.
func RenderTemplateTable(w io.Writer, rows [][3]string) error {
	header := fmt.Sprintf("%s  %s  %s", padRight("TEMPLATE", 12), padRight("NAME", nameWidth), "BASE URL")
	if _, err := fmt.Fprintln(w, HeaderStyle.Render(header)); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s  %s  %s\n", padRight(r[0], 12), padRight(r[1], nameWidth), r[2]); err != nil {
			return err
		}
	}
	return nil
}
