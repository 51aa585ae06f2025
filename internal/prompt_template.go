package internal

import (
	"errors"
	"fmt"
	"strings"
)

// PromptElementsPlaceholder marks where a prompt template receives the
// selected items. A template without it gets the items appended.
const PromptElementsPlaceholder = "{{ELEMENTS}}"

// DefaultEncounterPromptTemplate is the last-resort encounter template.
const DefaultEncounterPromptTemplate = `ENCOUNTER BUILDER
=================

Design a single tabletop encounter from the inputs below. Describe the
scene, the stakes, how the situation escalates and how it might resolve.
Scale the opposition to the number of players and the difficulty, and
follow the lore alignment mode for any world lore documents.

ENCOUNTER INPUTS:
{{ELEMENTS}}
`

// TemplateValidator accepts any non-empty text that is not an HTML page.
func TemplateValidator(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, &ParseError{Kind: Malformed, Err: errors.New("prompt template is empty")}
	}
	lower := strings.ToLower(trimmed[:min(len(trimmed), 64)])
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		return 0, &ParseError{Kind: Malformed, Err: fmt.Errorf("prompt template looks like an HTML page (%d bytes)", len(raw))}
	}
	return 1, nil
}
