package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/tropedeck/internal"
)

// ElementsPlaceholder is replaced by the entry list in a template.
const ElementsPlaceholder = internal.PromptElementsPlaceholder

const campaignTemplate = `FANTASY ADVENTURE TEMPLATE USING STORY TROPES
=============================================

Build a tabletop campaign outline around the story elements below. Show how
they intersect to shape the world and its central conflict.

STORY ELEMENTS:
{{ELEMENTS}}

---------------------------------------------

CAMPAIGN TITLE AND PREMISE
A title and a one or two paragraph summary.

ADVENTURE HOOKS
Three to five quest hooks that reflect the selected elements.

KEY LOCATIONS
At least three locations with a description and their importance.

IMPORTANT NPCS
Three to five characters with a role, an agenda and roleplaying tips.

MAIN VILLAIN OR OPPOSING FORCE
Who or what opposes the party, and why.
`

// PromptExporter renders a document into an LLM prompt.
type PromptExporter struct {
	// Template overrides the built-in encounter template. Tropes documents
	// always use the campaign template. A template without
	// ElementsPlaceholder gets the inputs appended after it.
	Template string
}

// Export writes the prompt for doc
func (e *PromptExporter) Export(doc *internal.Document, w io.Writer) error {
	prompt, err := e.Build(doc)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, prompt)
	return err
}

// Build returns the prompt text for doc.
func (e *PromptExporter) Build(doc *internal.Document) (string, error) {
	if len(doc.Entries) == 0 {
		return "", fmt.Errorf("nothing to build a prompt from")
	}

	tmpl := campaignTemplate
	items := listEntries(doc.Entries)
	if doc.Kind == internal.DocumentKindEncounter {
		tmpl = internal.DefaultEncounterPromptTemplate
		if strings.TrimSpace(e.Template) != "" {
			tmpl = e.Template
		}
		items = encounterInputs(doc)
	}

	if !strings.Contains(tmpl, ElementsPlaceholder) {
		return strings.TrimRight(tmpl, "\n") + "\n\nENCOUNTER INPUTS:\n" + items + "\n", nil
	}
	return strings.Replace(tmpl, ElementsPlaceholder, items, 1), nil
}

// encounterInputs lists the category values followed by the settings, the
// world lore documents and the attached personal tropes.
func encounterInputs(doc *internal.Document) string {
	var b strings.Builder
	b.WriteString(listEntries(doc.Entries))
	if s := doc.Settings; s != nil {
		fmt.Fprintf(&b, "\n- Number of players: %d", s.Players)
		fmt.Fprintf(&b, "\n- Difficulty: %s", s.Difficulty)
		fmt.Fprintf(&b, "\n- Lore alignment mode: %s", s.LoreMode)
		if len(s.Lore) > 0 {
			b.WriteString("\n\nWORLD LORE DOCUMENTS:")
			for _, l := range s.Lore {
				fmt.Fprintf(&b, "\n- %s: %s", l.Title, l.URL)
			}
		}
	}
	if len(doc.Tropes) > 0 {
		b.WriteString("\n\nPERSONAL TROPES:\n")
		b.WriteString(listEntries(doc.Tropes))
	}
	return b.String()
}

func listEntries(entries []internal.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("- %s: %s", entry.Name, strings.ReplaceAll(entry.Detail, "\n", " ")))
	}
	return strings.Join(lines, "\n")
}

// Extension returns the file extension for this format
func (e *PromptExporter) Extension() string {
	return "txt"
}
