package internal

import (
	"context"
	"testing"
)

func newTestCategoryStore(t *testing.T) (*CategoryStore, *CustomInputs) {
	t.Helper()
	table, err := ParseCategories(encounterHeader +
		"Swamp,Fog,Flooded,Ambush,Storm,Hermit,Bandits\n" +
		"Keep,Echoes,Burning,Parley,Traitor,Guard,\n")
	if err != nil {
		t.Fatalf("ParseCategories() error = %v", err)
	}
	custom, _, _ := newTestCustomInputs(t)
	return NewCategoryStore(table, custom, seededSampler(9)), custom
}

func TestCategoryStore_Options(t *testing.T) {
	ctx := context.Background()
	cs, custom := newTestCategoryStore(t)
	_, _ = custom.Add(ctx, CategoryLocation, "Sky fort")
	_, _ = custom.Add(ctx, CategoryLocation, "Swamp")

	opts, err := cs.Options(ctx, CategoryLocation)
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	want := []Option{
		{Value: "Swamp", Origin: OriginDefault},
		{Value: "Keep", Origin: OriginDefault},
		{Value: "Sky fort", Origin: OriginCustom},
	}
	if len(opts) != len(want) {
		t.Fatalf("Options() = %v, want %v", opts, want)
	}
	for i := range want {
		if opts[i] != want[i] {
			t.Errorf("option %d = %v, want %v", i, opts[i], want[i])
		}
	}

	if _, err := cs.Options(ctx, CategoryKey("weather")); err == nil {
		t.Error("Options() with unknown key should fail")
	}
}

func TestCategoryStore_RandomField(t *testing.T) {
	ctx := context.Background()
	cs, _ := newTestCategoryStore(t)

	for i := 0; i < 20; i++ {
		v, err := cs.RandomField(ctx, CategoryAdversaries)
		if err != nil {
			t.Fatalf("RandomField() error = %v", err)
		}
		if v != "Bandits" {
			t.Fatalf("RandomField(adversaries) = %q, only Bandits exists", v)
		}
	}
	if cs.Current()[CategoryAdversaries] != "Bandits" {
		t.Error("RandomField() should set the current value")
	}

	empty := NewCategoryStore(NewCategoryTable(), nil, nil)
	v, err := empty.RandomField(ctx, CategoryNPC)
	if err != nil || v != "" {
		t.Errorf("RandomField() on empty set = %q, %v", v, err)
	}
	if _, ok := empty.Current()[CategoryNPC]; ok {
		t.Error("empty set should leave the field empty")
	}
}

func TestCategoryStore_GenerateAll(t *testing.T) {
	ctx := context.Background()
	cs, _ := newTestCategoryStore(t)

	enc, err := cs.GenerateAll(ctx)
	if err != nil {
		t.Fatalf("GenerateAll() error = %v", err)
	}
	for _, k := range CategoryKeys {
		if enc[k] == "" {
			t.Errorf("GenerateAll() left %s empty", k)
		}
	}

	doc := enc.Document("Encounter")
	if doc.Kind != DocumentKindEncounter || len(doc.Entries) != len(CategoryKeys) {
		t.Fatalf("Document() = %+v", doc)
	}
	if doc.Entries[0].Name != "Location" || doc.Entries[6].Name != "Adversaries" {
		t.Errorf("Document() order = %+v", doc.Entries)
	}

	cs.Clear()
	if len(cs.Current()) != 0 {
		t.Errorf("Current() after Clear() = %v", cs.Current())
	}
}

func TestCategoryStore_SetField(t *testing.T) {
	cs, _ := newTestCategoryStore(t)
	if err := cs.SetField(CategoryNPC, "  Someone new "); err != nil {
		t.Fatalf("SetField() error = %v", err)
	}
	if got := cs.Current()[CategoryNPC]; got != "Someone new" {
		t.Errorf("Current()[npc] = %q", got)
	}
	if err := cs.SetField(CategoryNPC, ""); err != nil {
		t.Fatal(err)
	}
	if _, ok := cs.Current()[CategoryNPC]; ok {
		t.Error("SetField() with empty value should clear the field")
	}
	if err := cs.SetField(CategoryKey("weather"), "Rain"); err == nil {
		t.Error("SetField() with unknown key should fail")
	}
}

func TestCategoryStore_Search(t *testing.T) {
	ctx := context.Background()
	cs, custom := newTestCategoryStore(t)
	_, _ = custom.Add(ctx, CategoryNPC, "Hermit crab king")

	got, err := cs.Search(ctx, CategoryNPC, "HERMIT")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 || got[0].Origin != OriginDefault || got[1].Origin != OriginCustom {
		t.Errorf("Search() = %v", got)
	}
	all, _ := cs.Search(ctx, CategoryNPC, "")
	if len(all) != 3 {
		t.Errorf("blank Search() = %v, want every option", all)
	}
}
