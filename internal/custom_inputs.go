package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// DefaultCustomInputTTL is how long a custom encounter input stays live.
const DefaultCustomInputTTL = 30 * 24 * time.Hour

// CustomInput is a user-authored value for one encounter category.
type CustomInput struct {
	Category CategoryKey `json:"category" yaml:"category"`
	Value    string      `json:"value" yaml:"value"`
	AddedAt  time.Time   `json:"addedAt" yaml:"addedAt"`
}

// CustomInputs persists custom encounter inputs as a JSON list in a KVStore.
// Expired entries are pruned on every load.
type CustomInputs struct {
	store KVStore
	ttl   time.Duration
	now   func() time.Time
	fold  cases.Caser
}

// NewCustomInputs creates a custom input registry. A ttl of zero uses
// DefaultCustomInputTTL.
func NewCustomInputs(store KVStore, ttl time.Duration) *CustomInputs {
	if ttl <= 0 {
		ttl = DefaultCustomInputTTL
	}
	return &CustomInputs{store: store, ttl: ttl, now: time.Now, fold: cases.Fold()}
}

// SetClock replaces the time source. Used by tests.
func (c *CustomInputs) SetClock(now func() time.Time) {
	c.now = now
}

// PruneExpired returns the inputs younger than ttl at now.
func PruneExpired(inputs []CustomInput, now time.Time, ttl time.Duration) []CustomInput {
	out := make([]CustomInput, 0, len(inputs))
	for _, in := range inputs {
		if now.Sub(in.AddedAt) < ttl {
			out = append(out, in)
		}
	}
	return out
}

// All returns every live input, oldest first.
func (c *CustomInputs) All(ctx context.Context) ([]CustomInput, error) {
	inputs, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	live := PruneExpired(inputs, c.now(), c.ttl)
	if len(live) != len(inputs) {
		LogDebug("Pruned %d expired custom input(s)", len(inputs)-len(live))
		if err := c.save(ctx, live); err != nil {
			return nil, err
		}
	}
	return live, nil
}

// List returns the live values for one category.
func (c *CustomInputs) List(ctx context.Context, key CategoryKey) ([]string, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	var values []string
	for _, in := range all {
		if in.Category == key {
			values = append(values, in.Value)
		}
	}
	return values, nil
}

// Add stores a new value for key. It reports false when an equal value
// (ignoring case) is already registered for that category.
func (c *CustomInputs) Add(ctx context.Context, key CategoryKey, value string) (bool, error) {
	value = cleanCell(value)
	if value == "" {
		return false, fmt.Errorf("custom %s value is empty", key.Label())
	}
	if _, ok := categoryLabels[key]; !ok {
		return false, fmt.Errorf("unknown category %q", key)
	}
	all, err := c.All(ctx)
	if err != nil {
		return false, err
	}
	want := c.fold.String(value)
	for _, in := range all {
		if in.Category == key && c.fold.String(in.Value) == want {
			return false, nil
		}
	}
	all = append(all, CustomInput{Category: key, Value: value, AddedAt: c.now().UTC()})
	return true, c.save(ctx, all)
}

// Remove deletes a value (case-insensitive). It reports whether anything
// was removed.
func (c *CustomInputs) Remove(ctx context.Context, key CategoryKey, value string) (bool, error) {
	all, err := c.All(ctx)
	if err != nil {
		return false, err
	}
	want := c.fold.String(strings.TrimSpace(value))
	kept := make([]CustomInput, 0, len(all))
	for _, in := range all {
		if in.Category == key && c.fold.String(in.Value) == want {
			continue
		}
		kept = append(kept, in)
	}
	if len(kept) == len(all) {
		return false, nil
	}
	return true, c.save(ctx, kept)
}

// Clear drops every custom input.
func (c *CustomInputs) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, KeyCustomInputs); err != nil {
		return &StorageError{Key: KeyCustomInputs, Op: "delete", Err: err}
	}
	return nil
}

func (c *CustomInputs) load(ctx context.Context) ([]CustomInput, error) {
	raw, ok, err := c.store.Get(ctx, KeyCustomInputs)
	if err != nil {
		return nil, &StorageError{Key: KeyCustomInputs, Op: "get", Err: err}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var inputs []CustomInput
	if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
		LogWarn("Discarding unreadable custom inputs: %v", err)
		return nil, nil
	}
	return inputs, nil
}

func (c *CustomInputs) save(ctx context.Context, inputs []CustomInput) error {
	data, err := json.Marshal(inputs)
	if err != nil {
		return fmt.Errorf("failed to encode custom inputs: %w", err)
	}
	if err := c.store.Set(ctx, KeyCustomInputs, string(data)); err != nil {
		return &StorageError{Key: KeyCustomInputs, Op: "set", Err: err}
	}
	return nil
}

// RenderCustomInputs formats inputs as a plain-text report grouped by
// category label.
func RenderCustomInputs(inputs []CustomInput, now time.Time) string {
	var b strings.Builder
	b.WriteString("Custom Encounter Inputs\n")
	b.WriteString(fmt.Sprintf("Exported %s\n\n", now.Format("2006-01-02 15:04")))

	grouped := make(map[CategoryKey][]CustomInput)
	for _, in := range inputs {
		grouped[in.Category] = append(grouped[in.Category], in)
	}
	if len(grouped) == 0 {
		b.WriteString("No custom inputs.\n")
		return b.String()
	}
	for _, k := range CategoryKeys {
		group := grouped[k]
		if len(group) == 0 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool { return group[i].AddedAt.Before(group[j].AddedAt) })
		b.WriteString(k.Label() + "\n")
		b.WriteString(strings.Repeat("-", len(k.Label())) + "\n")
		for _, in := range group {
			b.WriteString(fmt.Sprintf("- %s (added %s)\n", in.Value, in.AddedAt.Format("2006-01-02")))
		}
		b.WriteString("\n")
	}
	return b.String()
}
