package main

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/fontogether/fontogether/edit"
	"github.com/fontogether/fontogether/store"
)

// testConfig writes a config file pointing at a fresh database.
func testConfig(t *testing.T) (configPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "fontogether.db")
	configPath = filepath.Join(dir, "fontogether.yaml")
	yaml := "server:\n  database: " + dbPath + "\nlog:\n  level: warn\n"
	if err := os.WriteFile(configPath, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	return configPath, dbPath
}

func TestUnknownCommand(t *testing.T) {
	if err := run([]string{"frobnicate"}); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("err = %v", err)
	}
	if err := run(nil); err != nil {
		t.Errorf("usage returned %v", err)
	}
}

func TestRequiredFlags(t *testing.T) {
	configPath, _ := testConfig(t)
	for _, args := range [][]string{
		{"import", "--config", configPath},
		{"invite", "--config", configPath, "--project", "1"},
		{"preview", "--config", configPath, "--glyph", "A"},
		{"join", "--config", configPath, "--project", "1"},
	} {
		if err := run(args); err == nil || !strings.Contains(err.Error(), "required") {
			t.Errorf("%v: err = %v", args, err)
		}
	}
}

func TestImportInvitePreview(t *testing.T) {
	configPath, dbPath := testConfig(t)
	fontPath := filepath.Join(t.TempDir(), "goregular.ttf")
	if err := os.WriteFile(fontPath, goregular.TTF, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := run([]string{"import", "--config", configPath, "--font", fontPath, "--owner", "alice", "--name", "Go"}); err != nil {
		t.Fatal(err)
	}
	if err := run([]string{"invite", "--config", configPath, "--project", "1", "--user", "bob"}); err != nil {
		t.Fatal(err)
	}

	st, err := store.OpenSQLite(store.SQLiteConfig{Path: dbPath})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	p, err := st.Project(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Go" || p.OwnerID != "alice" || !strings.Contains(p.Details[store.FontInfo], `"unitsPerEm":2048`) {
		t.Errorf("project = %+v", p)
	}
	collaborators, err := st.Collaborators(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(collaborators) != 2 {
		t.Errorf("collaborators = %+v", collaborators)
	}
	var name string
	glyphs, err := st.Glyphs(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range glyphs {
		if g.PrimaryUnicode() == 'A' {
			name = g.Name
		}
	}
	st.Close()
	if name == "" {
		t.Fatal("no glyph for U+0041")
	}

	if err := run([]string{"glyphs", "--config", configPath, "--project", "1", "--sort", "codepoint", "--query", "U+0041"}); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "A.png")
	if err := run([]string{"preview", "--config", configPath, "--project", "1", "--glyph", name, "--out", out, "--size", "48"}); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 48 {
		t.Errorf("thumbnail width = %d, want 48", img.Bounds().Dx())
	}
}

func TestWorkspaceConfigUsesEditorSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fontogether.yaml")
	yaml := "log:\n  level: warn\neditor:\n  select_tolerance: 4\n  pen_tolerance: 6\n  retry_interval: 5s\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	configPath := path
	env, err := parse(newFlagSet("join", &configPath), []string{"--config", path}, &configPath)
	if err != nil {
		t.Fatal(err)
	}

	wc := env.workspaceConfig(1, "alice", "Alice", nil, nil)
	if wc.RetryInterval != 5*time.Second {
		t.Errorf("RetryInterval = %v, want 5s", wc.RetryInterval)
	}
	got := edit.New(nil, 0, wc.EditOptions...).Config()
	want := env.cfg.Editor.EditConfig()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("engine config (-want +got):\n%s", diff)
	}
	if got.SelectTolerance != 4 || got.PenTolerance != 6 {
		t.Errorf("tolerances = %v / %v, want 4 / 6", got.SelectTolerance, got.PenTolerance)
	}
}
