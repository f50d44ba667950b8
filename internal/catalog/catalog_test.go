package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_DeduplicatesByFirstOccurrence(t *testing.T) {
	c := New([]Item{
		{Name: "Ecto", Family: "material", Category: "Rare Materials"},
		{Name: "Ecto", Family: "special", Category: "Other"},
		{Name: "Shard", Family: "material", Category: "Rare Materials"},
	})

	if c.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", c.Len())
	}
	it, ok := c.Lookup("Ecto")
	if !ok {
		t.Fatal("Ecto not found")
	}
	if it.Family != "material" {
		t.Fatalf("first occurrence must win, got family %q", it.Family)
	}
}

func TestLookup_Miss(t *testing.T) {
	c := New(nil)
	if _, ok := c.Lookup("nope"); ok {
		t.Fatal("expected miss")
	}
}

func TestLookupAll_SkipsUnknown(t *testing.T) {
	c := New([]Item{{Name: "Ecto", Family: "material", Category: "Rare Materials"}})
	items := c.LookupAll([]string{"Ecto", "nope"})
	if len(items) != 1 || items[0].Name != "Ecto" {
		t.Fatalf("got %+v", items)
	}
}

func TestAll_PreservesLoadOrder(t *testing.T) {
	c := New([]Item{
		{Name: "B", Family: "f", Category: "c"},
		{Name: "A", Family: "f", Category: "c"},
	})
	all := c.All()
	if len(all) != 2 || all[0].Name != "B" || all[1].Name != "A" {
		t.Fatalf("load order not preserved: %+v", all)
	}
}

func TestLoad_PerFamilyFiles(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "material.json", `[
		{"type": "Rare Materials", "items": [
			{"name": "Glob of Ectoplasm", "rarity": "rare"},
			{"name": "Obsidian Shard"}
		]}
	]`)
	writeFile(t, dir, "weapon.json", `[
		{"type": "Rare Swords", "items": [{"name": "Fiery Dragon Sword", "level": 20}]},
		{"type": "Axes", "items": [{"name": "Sephis Axe"}]}
	]`)
	writeFile(t, dir, "notes.txt", "ignored")

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 4 {
		t.Fatalf("expected 4 items, got %d", c.Len())
	}

	sword, ok := c.Lookup("Fiery Dragon Sword")
	if !ok {
		t.Fatal("Fiery Dragon Sword not found")
	}
	if sword.Family != "weapon" || sword.Category != "Rare Swords" {
		t.Fatalf("taxonomy wrong: %+v", sword)
	}
	if sword.Level != 20 {
		t.Fatalf("item fields not carried: %+v", sword)
	}

	ecto, _ := c.Lookup("Glob of Ectoplasm")
	if ecto.Family != "material" || ecto.Category != "Rare Materials" {
		t.Fatalf("taxonomy wrong: %+v", ecto)
	}
}

func TestLoad_MissingDir(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "weapon.json", `{not json`)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected parse error")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
