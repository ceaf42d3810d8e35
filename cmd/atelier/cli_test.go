package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/ops"
)

const (
	testJobA = "11111111-1111-4111-8111-111111111111"
	testJobB = "22222222-2222-4222-8222-222222222222"
)

// setupTestStore creates a temporary database for testing.
func setupTestStore(t *testing.T) *db.Store {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return db.NewStore(database)
}

// testConfig returns a default config that allows temp-dir export paths.
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	return cfg
}

// runCLI runs args against app and returns what it wrote to stdout.
func runCLI(t *testing.T, app *cli.App, args ...string) (string, error) {
	t.Helper()
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := app.Run(append([]string{"atelier"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout
	return buf.String(), err
}

// mustRun runs args and decodes the JSON output into out.
func mustRun(t *testing.T, app *cli.App, out any, args ...string) {
	t.Helper()
	stdout, err := runCLI(t, app, args...)
	if err != nil {
		t.Fatalf("%s failed: %v", args[0], err)
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal([]byte(stdout), out); err != nil {
		t.Fatalf("failed to parse %s output: %v\nOutput: %s", args[0], err, stdout)
	}
}

// mintViaCLI captures command as job and mints it, returning the card ID.
func mintViaCLI(t *testing.T, app *cli.App, job, name, command string) string {
	t.Helper()
	mustRun(t, app, nil, "capture", "--text", command, "--job-id", job)
	var out ops.MintOutput
	mustRun(t, app, &out, "mint", "--name", name, job)
	return out.Card.ID
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"single tag", "neon", []string{"neon"}},
		{"multiple tags", "neon,ink,rain", []string{"neon", "ink", "rain"}},
		{"tags with spaces", " neon , ink ", []string{"neon", "ink"}},
		{"empty tags filtered", "neon,,ink,", []string{"neon", "ink"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseTags(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("expected %d tags, got %d", len(tt.expected), len(result))
			}
			for i, tag := range result {
				if tag != tt.expected[i] {
					t.Errorf("expected tag[%d]=%q, got %q", i, tt.expected[i], tag)
				}
			}
		})
	}
}

func TestParseFill(t *testing.T) {
	fill, err := parseFill([]string{"subject=cat", " place = rainy street "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fill["subject"] != "cat" || fill["place"] != "rainy street" {
		t.Errorf("fill = %v", fill)
	}

	if fill, err := parseFill(nil); err != nil || fill != nil {
		t.Errorf("parseFill(nil) = %v, %v", fill, err)
	}

	for _, bad := range []string{"novalue", "=cat"} {
		if _, err := parseFill([]string{bad}); err == nil {
			t.Errorf("parseFill(%q) should fail", bad)
		}
	}
}

func TestReadStdinWithLimit(t *testing.T) {
	got, err := readStdin(strings.NewReader("  neon cat --ar 1:1 \n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "neon cat --ar 1:1" {
		t.Errorf("got %q", got)
	}

	_, err = readStdin(strings.NewReader(strings.Repeat("a", maxStdinBytes+1)))
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum size") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestCLIPromptCommands(t *testing.T) {
	app := newCLIApp(nil, nil, nil)

	t.Run("parse", func(t *testing.T) {
		var out struct {
			Segments   []map[string]any `json:"prompt_segments"`
			Parameters map[string]any   `json:"parameters"`
		}
		mustRun(t, app, &out, "parse", "neon cat, rainy street --ar 16:9")
		if len(out.Segments) != 2 {
			t.Errorf("segments = %d, want 2", len(out.Segments))
		}
		if out.Parameters["ar"] != "16:9" {
			t.Errorf("ar = %v", out.Parameters["ar"])
		}
	})

	t.Run("build with mask", func(t *testing.T) {
		var out map[string]string
		mustRun(t, app, &out, "build", "--mask", "sref", "neon cat --sref 111 --ar 16:9")
		if out["prompt"] != "neon cat --ar 16:9" {
			t.Errorf("prompt = %q", out["prompt"])
		}
	})

	t.Run("build unknown mask", func(t *testing.T) {
		_, err := runCLI(t, app, "build", "--mask", "seed", "neon cat")
		if err == nil || !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
			t.Errorf("expected INVALID_REQUEST, got %v", err)
		}
	})

	t.Run("merge", func(t *testing.T) {
		var out map[string]any
		mustRun(t, app, &out, "merge", "neon cat, rain", "Rain, ink wash --ar 1:1")
		if out["body"] != "neon cat, rain, ink wash" {
			t.Errorf("body = %v", out["body"])
		}
	})
}

func TestCLICaptureAndHistory(t *testing.T) {
	app := newCLIApp(setupTestStore(t), testConfig(), nil)

	var first ops.CaptureOutput
	mustRun(t, app, &first, "capture", "--text", "neon cat --ar 16:9", "--job-id", testJobA)
	if !first.Created || first.Item.ID != testJobA {
		t.Errorf("first capture = %+v", first)
	}

	var dup ops.CaptureOutput
	mustRun(t, app, &dup, "capture", "--text", "something else", "--job-id", testJobA)
	if dup.Created {
		t.Error("duplicate capture should not create")
	}
	if dup.Item.FullCommand != "neon cat --ar 16:9" {
		t.Errorf("history item was rewritten: %q", dup.Item.FullCommand)
	}

	var history ops.ListHistoryOutput
	mustRun(t, app, &history, "history", "--limit", "5")
	if len(history.Items) != 1 {
		t.Errorf("history items = %d, want 1", len(history.Items))
	}

	_, err := runCLI(t, app, "capture", "--text", "no job here")
	if err == nil || !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestCLIMintFetchEdit(t *testing.T) {
	app := newCLIApp(setupTestStore(t), testConfig(), nil)
	id := mintViaCLI(t, app, testJobA, "Neon Alley", "neon cat, rainy street --ar 16:9 --sref 111")

	var fetched ops.FetchOutput
	mustRun(t, app, &fetched, "fetch", id)
	if fetched.Card.Name != "Neon Alley" {
		t.Errorf("name = %q", fetched.Card.Name)
	}
	if fetched.Prompt != "neon cat, rainy street --ar 16:9 --sref 111" {
		t.Errorf("prompt = %q", fetched.Prompt)
	}

	var edited ops.UpdateOutput
	mustRun(t, app, &edited, "edit",
		"--append", "ink wash",
		"--slot", "1", "--slot-label", "place",
		"--flags=--ar 2:3",
		"--hide-sref",
		"--tags", "Neon, Night",
		id)
	if edited.Prompt != "neon cat, {{place}}, ink wash --ar 2:3" {
		t.Errorf("edited prompt = %q", edited.Prompt)
	}
	if !edited.Card.Masking.HideSref {
		t.Error("hide-sref not applied")
	}
	if len(edited.Card.Tags) != 2 {
		t.Errorf("tags = %v", edited.Card.Tags)
	}

	_, err := runCLI(t, app, "edit", id)
	if err == nil || !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
		t.Errorf("edit without fields: expected INVALID_REQUEST, got %v", err)
	}
}

func TestCLICardsList(t *testing.T) {
	app := newCLIApp(setupTestStore(t), testConfig(), nil)
	a := mintViaCLI(t, app, testJobA, "Neon Alley", "neon cat --ar 16:9")
	mintViaCLI(t, app, testJobB, "Ink Wash", "ink wash --ar 2:3")
	mustRun(t, app, nil, "edit", "--favorite", a)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"all", []string{"cards"}, 2},
		{"search", []string{"cards", "--search", "ink"}, 1},
		{"favorite", []string{"cards", "--favorite"}, 1},
		{"not favorite", []string{"cards", "--favorite=false"}, 1},
		{"limit", []string{"cards", "--limit", "1"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out ops.ListOutput
			mustRun(t, app, &out, tt.args...)
			if len(out.Items) != tt.want {
				t.Errorf("items = %d, want %d", len(out.Items), tt.want)
			}
		})
	}

	_, err := runCLI(t, app, "cards", "--tier", "Mythic")
	if err == nil || !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
		t.Errorf("expected INVALID_REQUEST for bad tier, got %v", err)
	}
}

func TestCLIUseAndEvolve(t *testing.T) {
	cfg := testConfig()
	cfg.EvolutionThresholds = map[string]int{"Common": 2}
	app := newCLIApp(setupTestStore(t), cfg, nil)
	id := mintViaCLI(t, app, testJobA, "Neon Alley", "neon cat --ar 16:9")

	_, err := runCLI(t, app, "evolve", id)
	if err == nil || !strings.Contains(err.Error(), "[EVOLUTION_LOCKED]") {
		t.Fatalf("expected EVOLUTION_LOCKED, got %v", err)
	}

	stdout, err := runCLI(t, app, "use", "--raw", id)
	if err != nil {
		t.Fatalf("use --raw failed: %v", err)
	}
	if stdout != "neon cat --ar 16:9\n" {
		t.Errorf("raw output = %q", stdout)
	}

	var used ops.UseOutput
	mustRun(t, app, &used, "use", id)
	if used.UsageCount != 2 || !used.Evolution.CanEvolve {
		t.Errorf("use = %+v", used)
	}

	var evolved ops.EvolveOutput
	mustRun(t, app, &evolved, "evolve", id)
	if evolved.From != "Common" || evolved.To != "Rare" {
		t.Errorf("evolved %s -> %s", evolved.From, evolved.To)
	}
}

func TestCLIVaryAndDelete(t *testing.T) {
	app := newCLIApp(setupTestStore(t), testConfig(), nil)
	a := mintViaCLI(t, app, testJobA, "Neon Alley", "neon cat --ar 16:9")
	b := mintViaCLI(t, app, testJobB, "Ink Wash", "ink wash --sref 222")

	var child ops.VariationOutput
	mustRun(t, app, &child, "vary", "--name", "Neon Ink", a, b)
	if child.Card.Genealogy.Generation != 2 {
		t.Errorf("generation = %d, want 2", child.Card.Genealogy.Generation)
	}
	if len(child.Card.Genealogy.ParentIDs) != 2 {
		t.Errorf("parents = %v", child.Card.Genealogy.ParentIDs)
	}

	var deleted ops.DeleteOutput
	mustRun(t, app, &deleted, "delete", child.Card.ID)
	if !deleted.Deleted {
		t.Error("expected deleted=true")
	}

	_, err := runCLI(t, app, "fetch", child.Card.ID)
	if err == nil || !strings.Contains(err.Error(), "[NOT_FOUND]") {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestCLIHandAndCompose(t *testing.T) {
	app := newCLIApp(setupTestStore(t), testConfig(), nil)
	a := mintViaCLI(t, app, testJobA, "Neon Alley", "a cat in neon --ar 16:9")
	b := mintViaCLI(t, app, testJobB, "Ink Wash", "ink wash --sref 222")
	mustRun(t, app, nil, "edit", "--slot", "0", "--slot-label", "subject", a)

	mustRun(t, app, nil, "pin", a)
	mustRun(t, app, nil, "pin", b)

	var hand ops.ListHandOutput
	mustRun(t, app, &hand, "hand")
	if hand.Count != 2 {
		t.Fatalf("hand count = %d, want 2", hand.Count)
	}

	var mixed ops.ComposeOutput
	mustRun(t, app, &mixed, "compose", "--mode", "mix", "--fill", "subject=a fox", a, b)
	if mixed.Prompt != "a fox, ink wash --ar 16:9 --sref 222" {
		t.Errorf("mixed prompt = %q", mixed.Prompt)
	}

	_, err := runCLI(t, app, "compose", "--mode", "blend")
	if err == nil || !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}

	mustRun(t, app, nil, "unpin", b)
	var cleared ops.ClearHandOutput
	mustRun(t, app, &cleared, "hand", "--clear")
	if cleared.Unpinned != 1 {
		t.Errorf("unpinned = %d, want 1", cleared.Unpinned)
	}
}

func TestCLIDecks(t *testing.T) {
	app := newCLIApp(setupTestStore(t), testConfig(), nil)
	a := mintViaCLI(t, app, testJobA, "Neon Alley", "neon cat --ar 16:9")
	b := mintViaCLI(t, app, testJobB, "Ink Wash", "ink wash --sref 222")

	var created ops.DeckOutput
	mustRun(t, app, &created, "deck", "create", "--color", "#112233", "Night", a)
	if created.Deck.Name != "Night" || len(created.Deck.CardIDs) != 1 {
		t.Fatalf("deck = %+v", created.Deck)
	}

	var added ops.DeckOutput
	mustRun(t, app, &added, "deck", "add", created.Deck.ID, b)
	if len(added.Deck.CardIDs) != 2 {
		t.Errorf("deck cards = %v", added.Deck.CardIDs)
	}

	var listed ops.ListDecksOutput
	mustRun(t, app, &listed, "deck", "list")
	if len(listed.Items) != 1 {
		t.Errorf("decks = %d, want 1", len(listed.Items))
	}
}

func TestCLIExportImport(t *testing.T) {
	app := newCLIApp(setupTestStore(t), testConfig(), nil)
	a := mintViaCLI(t, app, testJobA, "Neon Alley", "neon cat --ar 16:9")
	mintViaCLI(t, app, testJobB, "Ink Wash", "ink wash --sref 222")
	path := filepath.Join(t.TempDir(), "cards.jsonl")

	var exported ops.ExportOutput
	mustRun(t, app, &exported, "export", "--path", path)
	if exported.Count != 2 {
		t.Fatalf("exported %d, want 2", exported.Count)
	}

	mustRun(t, app, nil, "delete", a)

	var imported ops.ImportOutput
	mustRun(t, app, &imported, "import", "--path", path, "--mode", "skip")
	if imported.Imported != 1 || imported.Skipped != 1 {
		t.Errorf("imported=%d skipped=%d, want 1 and 1", imported.Imported, imported.Skipped)
	}

	_, err := runCLI(t, app, "import", "--path", path, "--mode", "rename")
	if err == nil || !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
		t.Errorf("expected INVALID_REQUEST for bad mode, got %v", err)
	}
}

func TestCLIErrorHandling(t *testing.T) {
	app := newCLIApp(setupTestStore(t), testConfig(), nil)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"fetch missing", []string{"fetch", "01NOPE"}, "[NOT_FOUND]"},
		{"fetch without id", []string{"fetch"}, "[INVALID_REQUEST]"},
		{"mint unknown history", []string{"mint", testJobA}, "[NOT_FOUND]"},
		{"pin missing", []string{"pin", "01NOPE"}, "[NOT_FOUND]"},
		{"bad fill", []string{"compose", "--fill", "oops"}, "[INVALID_REQUEST]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, app, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.code) {
				t.Errorf("error %q does not contain %s", err.Error(), tt.code)
			}
		})
	}
}

func TestIsCLIMode(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"atelier"}, false},
		{[]string{"atelier", "cards"}, true},
		{[]string{"atelier", "deck", "list"}, true},
		{[]string{"atelier", "serve"}, true},
		{[]string{"atelier", "--version"}, true},
		{[]string{"atelier", "-h"}, true},
		{[]string{"atelier", "bogus"}, false},
	}
	for _, tt := range tests {
		os.Args = tt.args
		if got := isCLIMode(); got != tt.want {
			t.Errorf("isCLIMode(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestIsHelpOrVersion(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"atelier"}, false},
		{[]string{"atelier", "help"}, true},
		{[]string{"atelier", "--help"}, true},
		{[]string{"atelier", "-v"}, true},
		{[]string{"atelier", "cards"}, false},
	}
	for _, tt := range tests {
		os.Args = tt.args
		if got := isHelpOrVersion(); got != tt.want {
			t.Errorf("isHelpOrVersion(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
