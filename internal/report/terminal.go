package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
)

// Print renders markdown for a terminal in the given colour scheme ("dark",
// "light" or "auto") and writes it to w.
func Print(w io.Writer, md, scheme string) error {
	style := glamour.WithAutoStyle()
	if scheme == "dark" || scheme == "light" {
		style = glamour.WithStandardStyle(scheme)
	}
	tr, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(120))
	if err != nil {
		return fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := tr.Render(md)
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
