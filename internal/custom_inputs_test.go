package internal

import (
	"context"
	"strings"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCustomInputs(t *testing.T) (*CustomInputs, *fakeClock, KVStore) {
	t.Helper()
	store := NewMemoryStore()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	ci := NewCustomInputs(store, 0)
	ci.SetClock(clock.Now)
	return ci, clock, store
}

func TestCustomInputs_Add(t *testing.T) {
	ctx := context.Background()
	ci, _, _ := newTestCustomInputs(t)

	tests := []struct {
		name    string
		key     CategoryKey
		value   string
		wantNew bool
		wantErr bool
	}{
		{"new value", CategoryNPC, "  Grumpy ferryman ", true, false},
		{"case-insensitive duplicate", CategoryNPC, "GRUMPY FERRYMAN", false, false},
		{"same value other category", CategoryLocation, "Grumpy ferryman", true, false},
		{"empty value", CategoryNPC, "   ", false, true},
		{"unknown category", CategoryKey("weather"), "Rain", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, err := ci.Add(ctx, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Add() error = %v, wantErr %v", err, tt.wantErr)
			}
			if added != tt.wantNew {
				t.Errorf("Add() = %v, want %v", added, tt.wantNew)
			}
		})
	}

	npcs, err := ci.List(ctx, CategoryNPC)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(npcs) != 1 || npcs[0] != "Grumpy ferryman" {
		t.Errorf("List(npc) = %v", npcs)
	}
}

func TestCustomInputs_Expiry(t *testing.T) {
	ctx := context.Background()
	ci, clock, store := newTestCustomInputs(t)

	if _, err := ci.Add(ctx, CategoryNPC, "Old timer"); err != nil {
		t.Fatal(err)
	}
	clock.Advance(20 * 24 * time.Hour)
	if _, err := ci.Add(ctx, CategoryNPC, "Newcomer"); err != nil {
		t.Fatal(err)
	}

	clock.Advance(11 * 24 * time.Hour)
	all, err := ci.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 1 || all[0].Value != "Newcomer" {
		t.Errorf("All() after 31 days = %+v, want only the newer input", all)
	}

	raw, _, _ := store.Get(ctx, KeyCustomInputs)
	if strings.Contains(raw, "Old timer") {
		t.Error("expired inputs should be pruned from the store")
	}

	if added, _ := ci.Add(ctx, CategoryNPC, "old timer"); !added {
		t.Error("an expired value may be added again")
	}
}

func TestPruneExpired(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	inputs := []CustomInput{
		{Category: CategoryNPC, Value: "fresh", AddedAt: now.Add(-time.Hour)},
		{Category: CategoryNPC, Value: "edge", AddedAt: now.Add(-DefaultCustomInputTTL)},
		{Category: CategoryNPC, Value: "old", AddedAt: now.Add(-40 * 24 * time.Hour)},
	}
	got := PruneExpired(inputs, now, DefaultCustomInputTTL)
	if len(got) != 1 || got[0].Value != "fresh" {
		t.Errorf("PruneExpired() = %+v", got)
	}
	if len(inputs) != 3 {
		t.Error("PruneExpired() must not modify its input")
	}
}

func TestCustomInputs_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	ci, _, _ := newTestCustomInputs(t)
	_, _ = ci.Add(ctx, CategoryAdversaries, "Kobolds")
	_, _ = ci.Add(ctx, CategoryAdversaries, "Ghouls")

	removed, err := ci.Remove(ctx, CategoryAdversaries, "kobolds")
	if err != nil || !removed {
		t.Fatalf("Remove() = %v, %v", removed, err)
	}
	if removed, _ := ci.Remove(ctx, CategoryAdversaries, "kobolds"); removed {
		t.Error("second Remove() should report nothing removed")
	}
	if vals, _ := ci.List(ctx, CategoryAdversaries); len(vals) != 1 || vals[0] != "Ghouls" {
		t.Errorf("List() after Remove() = %v", vals)
	}

	if err := ci.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if all, _ := ci.All(ctx); len(all) != 0 {
		t.Errorf("All() after Clear() = %v", all)
	}
}

func TestCustomInputs_CorruptStore(t *testing.T) {
	ctx := context.Background()
	ci, _, store := newTestCustomInputs(t)
	_ = store.Set(ctx, KeyCustomInputs, "{not json")
	all, err := ci.All(ctx)
	if err != nil || len(all) != 0 {
		t.Errorf("All() on corrupt data = %v, %v; want empty", all, err)
	}
	if added, err := ci.Add(ctx, CategoryNPC, "Recovered"); err != nil || !added {
		t.Errorf("Add() after corrupt data = %v, %v", added, err)
	}
}

func TestRenderCustomInputs(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	inputs := []CustomInput{
		{Category: CategoryNPC, Value: "Bard", AddedAt: now.Add(-time.Hour)},
		{Category: CategoryLocation, Value: "Bridge", AddedAt: now.Add(-2 * time.Hour)},
		{Category: CategoryNPC, Value: "Abbot", AddedAt: now.Add(-3 * time.Hour)},
	}
	out := RenderCustomInputs(inputs, now)

	loc := strings.Index(out, "Location\n--------")
	npc := strings.Index(out, "NPC\n---")
	if loc < 0 || npc < 0 || loc > npc {
		t.Fatalf("categories missing or out of order:\n%s", out)
	}
	if strings.Index(out, "Abbot") > strings.Index(out, "Bard") {
		t.Errorf("inputs within a category should be oldest first:\n%s", out)
	}
	if !strings.Contains(RenderCustomInputs(nil, now), "No custom inputs.") {
		t.Error("empty report should say so")
	}
}
