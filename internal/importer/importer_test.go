package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ziadkadry99/manualview/internal/db"
	"github.com/ziadkadry99/manualview/internal/manual"
	"github.com/ziadkadry99/manualview/internal/manuals"
)

const converted = `{
  "title": "Sound Bar SL900",
  "features": ["Bluetooth"],
  "specialFeatures": ["Night mode"],
  "sourcePdfPath": "BDA/sl900.pdf",
  "tabs": [
    {"id": "systemRequirements", "title": "System Requirements", "type": "list",
     "content": [{"id": "systemRequirements_item_0", "text": "Mains socket"}, "HDMI cable", {"id": "x"}]},
    {"id": "hardwareInstallation", "title": "Hardware Installation", "type": "steps",
     "content": {"warning": "Unplug first", "steps": [{"id": "s0", "text": "Unpack"}, {"id": "s1", "text": "Connect"}], "note": "Keep the box"}},
    {"id": "usage", "title": "Usage", "type": "text", "content": "Press play."},
    {"id": "driverInstallation", "title": "Driver Installation", "type": "table", "content": []},
    {"id": "softwareInstallation", "title": "Software Installation", "type": "text", "content": null}
  ]
}`

func TestParseDocument(t *testing.T) {
	m, warnings, err := ParseDocument([]byte(converted), "ignored.json")
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if m.Title != "Sound Bar SL900" || m.SourcePath != "BDA/sl900.pdf" || m.Language != "en" {
		t.Errorf("header = %+v", m)
	}
	if len(m.SpecialFeatures) != 1 || m.SpecialFeatures[0] != "Night mode" {
		t.Errorf("special features = %v", m.SpecialFeatures)
	}
	if len(m.Tabs) != 3 {
		t.Fatalf("tabs = %d, want 3", len(m.Tabs))
	}
	// item without text, unknown type, null content
	if len(warnings) != 3 {
		t.Errorf("warnings = %v", warnings)
	}

	list := m.Tabs[0].Content.(manual.ListContent)
	if len(list.Items) != 2 || list.Items[1].Text != "HDMI cable" || list.Items[1].ID != "systemRequirements_item_02" {
		t.Errorf("list = %+v", list)
	}
	steps := m.Tabs[1].Content.(manual.StepsContent)
	if steps.Warning != "Unplug first" || steps.Notes != "Keep the box" || len(steps.Steps) != 2 {
		t.Errorf("steps = %+v", steps)
	}
	if steps.Steps[0].ID != "hardwareInstallation_step_01" {
		t.Errorf("step id = %q", steps.Steps[0].ID)
	}
	if m.Tabs[2].Order != 3 {
		t.Errorf("order = %d", m.Tabs[2].Order)
	}
}

func TestParseDocumentDefaults(t *testing.T) {
	m, _, err := ParseDocument([]byte(`{"tabs": []}`), "out/a.json")
	if err != nil {
		t.Fatal(err)
	}
	if m.Title != "Untitled Manual" || m.SourcePath != "out/a.json" {
		t.Errorf("defaults = %q / %q", m.Title, m.SourcePath)
	}
	if m.Features == nil || m.SpecialFeatures == nil {
		t.Error("feature lists should be empty, not nil")
	}

	if _, _, err := ParseDocument([]byte(`{"tabs": []}`), ""); err == nil {
		t.Error("expected error without any source path")
	}
	if _, _, err := ParseDocument([]byte(`not json`), "a.json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestFindFiles(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{
		"a.json",
		"nested/deep/b.json",
		"nested/notes.txt",
		"drafts/c.json",
		"node_modules/d.json",
	} {
		writeFile(t, filepath.Join(root, p), "{}")
	}

	files, err := FindFiles(root, []string{"**/*.json"}, []string{"drafts/**"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, f := range files {
		got = append(got, f.RelPath)
	}
	want := []string{"a.json", "nested/deep/b.json"}
	if len(got) != len(want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := FindFiles(root, []string{"[a-"}, nil, 0); err == nil {
		t.Error("expected error for an invalid pattern")
	}
	if _, err := FindFiles(filepath.Join(root, "missing"), nil, nil, 0); err == nil {
		t.Error("expected error for a missing root")
	}
}

func TestMatchesInclude(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"a.json", nil, true},
		{"x/y/a.json", []string{"*.json"}, true},
		{"x/y/a.json", []string{"x/*.json"}, false},
		{"x/y/a.json", []string{"x/**/*.json"}, true},
		{"a.txt", []string{"**/*.json"}, false},
	}
	for _, tt := range tests {
		if got := MatchesInclude(tt.path, tt.patterns); got != tt.want {
			t.Errorf("MatchesInclude(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestRun(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	store := manuals.NewStore(database)
	ctx := context.Background()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sl900.json"), converted)
	writeFile(t, filepath.Join(root, "other.json"), `{"title": "Radio", "tabs": [{"id": "usage", "title": "Usage", "type": "text", "content": "Tune in."}]}`)
	writeFile(t, filepath.Join(root, "broken.json"), `{"title": `)

	im := New(store, Options{Include: []string{"*.json"}, Concurrency: 2})
	res, err := im.Run(ctx, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Imported != 2 || res.Failed != 1 || res.Skipped != 0 {
		t.Fatalf("result = %+v", res)
	}
	// Outcomes follow path order: broken, other, sl900.
	if res.Outcomes[0].Err == nil || res.Outcomes[1].Title != "Radio" {
		t.Errorf("outcomes = %+v", res.Outcomes)
	}

	radio, err := store.Get(ctx, res.Outcomes[1].ManualID)
	if err != nil {
		t.Fatal(err)
	}
	if radio.SourcePath != "other.json" || radio.Tabs[0].Content.(manual.TextContent).Text != "Tune in." {
		t.Errorf("stored manual = %+v", radio)
	}

	again, err := im.Run(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	if again.Imported != 0 || again.Skipped != 2 {
		t.Errorf("second run = %+v", again)
	}
	if again.Outcomes[2].ManualID != res.Outcomes[2].ManualID {
		t.Error("skipped manual should report the existing id")
	}
}

func TestRunDryRun(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	store := manuals.NewStore(database)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sl900.json"), converted)
	res, err := New(store, Options{DryRun: true}).Run(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 1 || len(res.Outcomes[0].Warnings) != 3 {
		t.Errorf("dry run = %+v", res)
	}
	list, _ := store.List(context.Background())
	if len(list) != 0 {
		t.Errorf("dry run stored %d manuals", len(list))
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
