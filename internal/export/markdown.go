package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/tropedeck/internal"
)

// MarkdownExporter exports documents in Markdown format
type MarkdownExporter struct{}

// Export exports a document to Markdown format
func (e *MarkdownExporter) Export(doc *internal.Document, w io.Writer) error {
	title := doc.Title
	if title == "" {
		title = "Story Elements"
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", escapeMarkdown(title))
	_, _ = fmt.Fprintf(w, "**Items:** %d\n\n", len(doc.Entries))
	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, entry := range doc.Entries {
		heading := escapeMarkdown(entry.Name)
		if entry.Origin == internal.OriginPersonal || entry.Origin == internal.OriginCustom {
			heading += fmt.Sprintf(" _(%s)_", entry.Origin)
		}
		if doc.Kind == internal.DocumentKindEncounter {
			_, _ = fmt.Fprintf(w, "**%s:** %s\n\n", heading, escapeMarkdown(entry.Detail))
			continue
		}
		_, _ = fmt.Fprintf(w, "## %d. %s\n\n%s\n\n", i+1, heading, escapeMarkdown(entry.Detail))
	}

	if s := doc.Settings; s != nil {
		_, _ = fmt.Fprintf(w, "## Table\n\n")
		_, _ = fmt.Fprintf(w, "- **Players:** %d\n- **Difficulty:** %s\n- **Lore alignment:** %s\n\n", s.Players, s.Difficulty, s.LoreMode)
		if len(s.Lore) > 0 {
			_, _ = fmt.Fprintf(w, "## World Lore\n\n")
			for _, l := range s.Lore {
				_, _ = fmt.Fprintf(w, "- [%s](%s)\n", escapeMarkdown(l.Title), l.URL)
			}
			_, _ = fmt.Fprintln(w)
		}
	}
	if len(doc.Tropes) > 0 {
		_, _ = fmt.Fprintf(w, "## Personal Tropes\n\n")
		for _, t := range doc.Tropes {
			_, _ = fmt.Fprintf(w, "- **%s:** %s\n", escapeMarkdown(t.Name), escapeMarkdown(t.Detail))
		}
		_, _ = fmt.Fprintln(w)
	}
	return nil
}

// escapeMarkdown escapes emphasis markers so table text renders literally.
func escapeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "\\*\\*")
	text = strings.ReplaceAll(text, "__", "\\_\\_")
	return text
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
