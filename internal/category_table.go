package internal

import (
	"fmt"
	"strings"
)

// CategoryKey names one of the fixed encounter categories.
type CategoryKey string

const (
	CategoryLocation          CategoryKey = "location"
	CategoryFantasticalNature CategoryKey = "fantasticalNature"
	CategoryCurrentState      CategoryKey = "currentState"
	CategorySituation         CategoryKey = "situation"
	CategoryComplication      CategoryKey = "complication"
	CategoryNPC               CategoryKey = "npc"
	CategoryAdversaries       CategoryKey = "adversaries"
)

// CategoryKeys lists every category in display order.
var CategoryKeys = []CategoryKey{
	CategoryLocation,
	CategoryFantasticalNature,
	CategoryCurrentState,
	CategorySituation,
	CategoryComplication,
	CategoryNPC,
	CategoryAdversaries,
}

var categoryLabels = map[CategoryKey]string{
	CategoryLocation:          "Location",
	CategoryFantasticalNature: "Fantastical Nature",
	CategoryCurrentState:      "Current State",
	CategorySituation:         "Situation",
	CategoryComplication:      "Complication",
	CategoryNPC:               "NPC",
	CategoryAdversaries:       "Adversaries",
}

// Label returns the human-readable category name.
func (k CategoryKey) Label() string {
	if l, ok := categoryLabels[k]; ok {
		return l
	}
	return string(k)
}

// ParseCategoryKey resolves user input such as "npc", "current-state" or
// "Fantastical Nature" to a category key.
func ParseCategoryKey(s string) (CategoryKey, error) {
	want := squash(s)
	for _, k := range CategoryKeys {
		if squash(string(k)) == want || squash(k.Label()) == want {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown category %q (valid: %s)", s, strings.Join(categoryKeyNames(), ", "))
}

func squash(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}

func categoryKeyNames() []string {
	names := make([]string, len(CategoryKeys))
	for i, k := range CategoryKeys {
		names[i] = string(k)
	}
	return names
}

// CategoryTable holds the unique non-empty values seen for each category,
// in insertion order.
type CategoryTable struct {
	values map[CategoryKey][]string
	seen   map[CategoryKey]map[string]struct{}
}

// NewCategoryTable creates an empty table.
func NewCategoryTable() *CategoryTable {
	t := &CategoryTable{
		values: make(map[CategoryKey][]string, len(CategoryKeys)),
		seen:   make(map[CategoryKey]map[string]struct{}, len(CategoryKeys)),
	}
	for _, k := range CategoryKeys {
		t.seen[k] = make(map[string]struct{})
	}
	return t
}

// Add appends value to the category unless it is empty or already present.
// Duplicates are detected by exact, case-sensitive match.
func (t *CategoryTable) Add(key CategoryKey, value string) bool {
	seen, ok := t.seen[key]
	if !ok || value == "" {
		return false
	}
	if _, dup := seen[value]; dup {
		return false
	}
	seen[value] = struct{}{}
	t.values[key] = append(t.values[key], value)
	return true
}

// Values returns a copy of the values for key.
func (t *CategoryTable) Values(key CategoryKey) []string {
	return append([]string(nil), t.values[key]...)
}

// Has reports whether value is in the category.
func (t *CategoryTable) Has(key CategoryKey, value string) bool {
	_, ok := t.seen[key][value]
	return ok
}

// Len returns the number of values for key.
func (t *CategoryTable) Len(key CategoryKey) int {
	return len(t.values[key])
}

// Total returns the number of values across all categories.
func (t *CategoryTable) Total() int {
	n := 0
	for _, k := range CategoryKeys {
		n += len(t.values[k])
	}
	return n
}
