package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/tropedeck/internal"
	"github.com/iksnae/tropedeck/internal/export"
	"github.com/iksnae/tropedeck/testutil"
)

func readSaved(t *testing.T, path string) *internal.Document {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer func() { _ = file.Close() }()
	doc, err := export.ReadDocument(file, export.FormatFromPath(path))
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return doc
}

func TestSessionCommand_Script(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	saved := filepath.Join(dir, "list.json")
	script := strings.Join([]string{
		"generate 3",
		"rm #1",
		"add",
		`custom "Haunted Lighthouse" "The keeper never left."`,
		"bogus",
		"save " + saved,
		"quit",
	}, "\n")

	out, err := runCLI(t, dir, script, "session")
	if err != nil {
		t.Fatalf("session error = %v", err)
	}
	if !strings.Contains(out, "tropedeck> ") {
		t.Errorf("session should print a prompt:\n%s", out)
	}

	doc := readSaved(t, saved)
	if len(doc.Entries) != 4 {
		t.Fatalf("saved %d entries, want 4", len(doc.Entries))
	}
	last := doc.Entries[3]
	if last.Name != "Haunted Lighthouse" || last.Origin != internal.OriginCustom || !strings.HasPrefix(last.ID, "custom-") {
		t.Errorf("custom entry = %+v", last)
	}
	seen := make(map[string]bool)
	for _, e := range doc.Entries {
		if seen[e.ID] {
			t.Errorf("duplicate id %s in saved list", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestSessionCommand_LoadAndReroll(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	first := filepath.Join(dir, "first.yaml")
	if _, err := runCLI(t, dir, "", "generate", "-n", "2", "-o", first); err != nil {
		t.Fatal(err)
	}
	before := readSaved(t, first)

	second := filepath.Join(dir, "second.json")
	script := "reroll #1\nsave " + second + "\nquit\n"
	if _, err := runCLI(t, dir, script, "session", "--load", first); err != nil {
		t.Fatalf("session --load error = %v", err)
	}
	after := readSaved(t, second)
	if len(after.Entries) != 2 {
		t.Fatalf("got %d entries after reroll, want 2", len(after.Entries))
	}
	if after.Entries[0].ID == before.Entries[0].ID || after.Entries[0].ID == before.Entries[1].ID {
		t.Errorf("reroll kept or duplicated an id: %s", after.Entries[0].ID)
	}
	if after.Entries[1].ID != before.Entries[1].ID {
		t.Errorf("reroll touched the second entry")
	}
}

func TestSessionCommand_EndOfInput(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	out, err := runCLI(t, dir, "generate 1\nlist\n", "session")
	if err != nil {
		t.Fatalf("session should end cleanly at EOF, got %v", err)
	}
	if !strings.Contains(out, " 1. ") {
		t.Errorf("list output missing:\n%s", out)
	}
}

func TestRepl_Ref(t *testing.T) {
	sel := internal.NewSelection(nil, internal.Pool{{ID: "10", Name: "A", Detail: "a"}, {ID: "20", Name: "B", Detail: "b"}}, nil)
	sel.AddSpecific(internal.Record{ID: "20", Name: "B", Detail: "b"})
	r := &repl{sel: sel}

	tests := []struct {
		arg     string
		want    string
		wantErr bool
	}{
		{"#1", "20", false},
		{"20", "20", false},
		{"10", "10", false},
		{"#2", "", true},
		{"#x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := r.ref([]string{tt.arg})
			if (err != nil) != tt.wantErr {
				t.Fatalf("ref(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ref(%q) = %q, want %q", tt.arg, got, tt.want)
			}
		})
	}
}

func TestRepl_ApplyRefreshes(t *testing.T) {
	refreshed := make(chan internal.Resolution, 1)
	sel := internal.NewSelection(nil, internal.Pool{{ID: "1", Name: "Old", Detail: "old"}}, nil)
	r := &repl{sel: sel, refreshed: refreshed}

	refreshed <- internal.Resolution{Raw: testutil.TropesCSV(4), Source: "tropes:direct"}
	r.applyRefreshes()
	if n := len(sel.Pool()); n != 4 {
		t.Errorf("pool has %d records after refresh, want 4", n)
	}

	refreshed <- internal.Resolution{Raw: "not,a,table", Source: "tropes:direct"}
	r.applyRefreshes()
	if n := len(sel.Pool()); n != 4 {
		t.Errorf("invalid refresh replaced the pool (%d records)", n)
	}
}
