package internal

import (
	"context"
	"fmt"
	"strings"
)

// Option is one selectable value for an encounter category.
type Option struct {
	Value  string `json:"value" yaml:"value"`
	Origin Origin `json:"origin" yaml:"origin"`
}

// Encounter holds the current value of each category. Missing keys are empty.
type Encounter map[CategoryKey]string

// Document converts the encounter to (category, value) entries in display
// order, skipping empty fields.
func (e Encounter) Document(title string) *Document {
	doc := &Document{Title: title, Kind: DocumentKindEncounter}
	for _, k := range CategoryKeys {
		if v := e[k]; v != "" {
			doc.Entries = append(doc.Entries, Entry{ID: string(k), Name: k.Label(), Detail: v})
		}
	}
	return doc
}

// CategoryStore tracks the encounter being built from a CategoryTable plus
// the live custom inputs.
type CategoryStore struct {
	table   *CategoryTable
	custom  *CustomInputs
	sampler *Sampler
	current Encounter
}

// NewCategoryStore creates a store. custom may be nil.
func NewCategoryStore(table *CategoryTable, custom *CustomInputs, sampler *Sampler) *CategoryStore {
	if table == nil {
		table = NewCategoryTable()
	}
	if sampler == nil {
		sampler = NewSampler(nil)
	}
	return &CategoryStore{table: table, custom: custom, sampler: sampler, current: Encounter{}}
}

// SetTable swaps the category table, keeping the current values.
func (s *CategoryStore) SetTable(table *CategoryTable) {
	if table != nil {
		s.table = table
	}
}

// Options returns the effective option set for key: table values tagged
// default followed by custom inputs tagged custom. A custom value equal to
// a table value is listed once, as default.
func (s *CategoryStore) Options(ctx context.Context, key CategoryKey) ([]Option, error) {
	if _, ok := categoryLabels[key]; !ok {
		return nil, fmt.Errorf("unknown category %q", key)
	}
	var opts []Option
	for _, v := range s.table.Values(key) {
		opts = append(opts, Option{Value: v, Origin: OriginDefault})
	}
	if s.custom == nil {
		return opts, nil
	}
	custom, err := s.custom.List(ctx, key)
	if err != nil {
		return nil, err
	}
	for _, v := range custom {
		if s.table.Has(key, v) {
			continue
		}
		opts = append(opts, Option{Value: v, Origin: OriginCustom})
	}
	return opts, nil
}

// RandomField sets key to a uniformly random option. With no options the
// field is left empty.
func (s *CategoryStore) RandomField(ctx context.Context, key CategoryKey) (string, error) {
	opts, err := s.Options(ctx, key)
	if err != nil {
		return "", err
	}
	if len(opts) == 0 {
		delete(s.current, key)
		return "", nil
	}
	v := opts[s.sampler.IntN(len(opts))].Value
	s.current[key] = v
	return v, nil
}

// SetField sets key directly. An empty value clears the field.
func (s *CategoryStore) SetField(key CategoryKey, value string) error {
	if _, ok := categoryLabels[key]; !ok {
		return fmt.Errorf("unknown category %q", key)
	}
	value = cleanCell(value)
	if value == "" {
		delete(s.current, key)
		return nil
	}
	s.current[key] = value
	return nil
}

// GenerateAll sets every category to an independent random option. On
// error the current encounter is left as it was.
func (s *CategoryStore) GenerateAll(ctx context.Context) (Encounter, error) {
	next := Encounter{}
	for _, k := range CategoryKeys {
		opts, err := s.Options(ctx, k)
		if err != nil {
			return nil, err
		}
		if len(opts) > 0 {
			next[k] = opts[s.sampler.IntN(len(opts))].Value
		}
	}
	s.current = next
	return s.Current(), nil
}

// Clear empties every field.
func (s *CategoryStore) Clear() {
	s.current = Encounter{}
}

// Current returns a copy of the encounter.
func (s *CategoryStore) Current() Encounter {
	out := make(Encounter, len(s.current))
	for k, v := range s.current {
		out[k] = v
	}
	return out
}

// Search filters the options for key by a case-insensitive substring.
func (s *CategoryStore) Search(ctx context.Context, key CategoryKey, query string) ([]Option, error) {
	opts, err := s.Options(ctx, key)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return opts, nil
	}
	var out []Option
	for _, o := range opts {
		if strings.Contains(strings.ToLower(o.Value), q) {
			out = append(out, o)
		}
	}
	return out, nil
}
