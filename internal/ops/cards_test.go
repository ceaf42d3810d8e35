package ops

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
	"github.com/styleatelier/atelier/internal/prompt"
)

func TestFetchCard(t *testing.T) {
	store := newTestStore(t)
	cfg := config.DefaultConfig()
	c := mintCommand(t, store, cfg, 1, neonCommand, MintInput{})

	out, err := FetchCard(context.Background(), store, cfg, FetchInput{ID: " " + c.ID + " "})
	if err != nil {
		t.Fatalf("FetchCard failed: %v", err)
	}
	if out.Card.ID != c.ID {
		t.Errorf("ID = %q, want %q", out.Card.ID, c.ID)
	}
	if out.Prompt != neonCommand {
		t.Errorf("Prompt = %q, want %q", out.Prompt, neonCommand)
	}
	want := Evolution{NextTier: card.TierRare, Required: 10, CanEvolve: false}
	if out.Evolution != want {
		t.Errorf("Evolution = %+v, want %+v", out.Evolution, want)
	}

	_, err = FetchCard(context.Background(), store, cfg, FetchInput{})
	assertCode(t, err, errors.ErrInvalidRequest)

	_, err = FetchCard(context.Background(), store, cfg, FetchInput{ID: "01NOPE"})
	assertCode(t, err, errors.ErrNotFound)
}

func TestListCards(t *testing.T) {
	store := newTestStore(t)
	cfg := config.DefaultConfig()

	setNow(t, time.Unix(1700000100, 0))
	a := mintCommand(t, store, cfg, 1, neonCommand, MintInput{Name: "Bravo", Tags: []string{"neon"}})
	setNow(t, time.Unix(1700000200, 0))
	b := mintCommand(t, store, cfg, 2, "ink wash, mountains --ar 2:3", MintInput{Name: "Alpha", Tags: []string{"ink"}})
	setNow(t, time.Unix(1700000300, 0))
	c := mintCommand(t, store, cfg, 3, "pixel art knight", MintInput{Name: "Charlie"})

	// Each touch bumps updated_at, so keep the original relative order
	setNow(t, time.Unix(1700000400, 0))
	if _, err := UseCard(context.Background(), store, cfg, UseInput{ID: a.ID}); err != nil {
		t.Fatalf("UseCard failed: %v", err)
	}
	setNow(t, time.Unix(1700000500, 0))
	if _, err := UpdateCard(context.Background(), store, UpdateInput{ID: b.ID, Favorite: boolPtr(true)}); err != nil {
		t.Fatalf("UpdateCard failed: %v", err)
	}
	setNow(t, time.Unix(1700000600, 0))
	pinCard(t, store, c.ID)

	ids := func(items []card.CardSummary) []string {
		out := make([]string, 0, len(items))
		for _, s := range items {
			out = append(out, s.ID)
		}
		return out
	}

	tests := []struct {
		name  string
		input ListInput
		want  []string
	}{
		{"default sort", ListInput{}, []string{c.ID, b.ID, a.ID}},
		{"by name", ListInput{Sort: db.SortName}, []string{b.ID, a.ID, c.ID}},
		{"by usage", ListInput{Sort: db.SortUsage, Limit: 1}, []string{a.ID}},
		{"tag", ListInput{Tag: "INK"}, []string{b.ID}},
		{"favorite", ListInput{Favorite: boolPtr(true)}, []string{b.ID}},
		{"pinned", ListInput{Pinned: boolPtr(true)}, []string{c.ID}},
		{"search", ListInput{Search: "cha"}, []string{c.ID}},
		{"tier", ListInput{Tier: "common"}, []string{c.ID, b.ID, a.ID}},
		{"offset", ListInput{Limit: 2, Offset: 2}, []string{a.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ListCards(context.Background(), store, tt.input)
			if err != nil {
				t.Fatalf("ListCards failed: %v", err)
			}
			if got := ids(out.Items); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}

	out, err := ListCards(context.Background(), store, ListInput{Limit: 2})
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	want := Pagination{Limit: 2, Offset: 0, HasMore: true, Total: 3}
	if out.Pagination != want {
		t.Errorf("Pagination = %+v, want %+v", out.Pagination, want)
	}
	if out.Sort != db.SortUpdated {
		t.Errorf("Sort = %q, want %q", out.Sort, db.SortUpdated)
	}

	_, err = ListCards(context.Background(), store, ListInput{Tier: "Mythic"})
	assertCode(t, err, errors.ErrInvalidRequest)
	_, err = ListCards(context.Background(), store, ListInput{Sort: "random"})
	assertCode(t, err, errors.ErrInvalidRequest)
}

func TestUpdateCard_Metadata(t *testing.T) {
	store := newTestStore(t)
	cfg := config.DefaultConfig()
	c := mintCommand(t, store, cfg, 1, neonCommand, MintInput{})

	setNow(t, time.Unix(1800000000, 0))
	tags := []string{"Night", " city "}
	out, err := UpdateCard(context.Background(), store, UpdateInput{
		ID:            c.ID,
		Name:          stringPtr("  Neon Night  "),
		Tags:          &tags,
		HideSref:      boolPtr(true),
		Favorite:      boolPtr(true),
		DominantColor: stringPtr("#FF00AA"),
		FrameID:       stringPtr(" "),
	})
	if err != nil {
		t.Fatalf("UpdateCard failed: %v", err)
	}

	got := out.Card
	if got.Name != "Neon Night" {
		t.Errorf("Name = %q, want %q", got.Name, "Neon Night")
	}
	if !reflect.DeepEqual(got.Tags, []string{"night", "city"}) {
		t.Errorf("Tags = %v", got.Tags)
	}
	if !got.IsFavorite {
		t.Error("IsFavorite = false, want true")
	}
	if got.DominantColor != "#ff00aa" {
		t.Errorf("DominantColor = %q, want lowercased", got.DominantColor)
	}
	if got.FrameID != card.DefaultFrameID {
		t.Errorf("FrameID = %q, want default for blank", got.FrameID)
	}
	if got.UpdatedAt != 1800000000 {
		t.Errorf("UpdatedAt = %d, want 1800000000", got.UpdatedAt)
	}
	if want := "neon cat, rainy street --ar 16:9"; out.Prompt != want {
		t.Errorf("Prompt = %q, want %q", out.Prompt, want)
	}

	stored, err := store.GetCard(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if stored.Name != "Neon Night" || !stored.Masking.HideSref {
		t.Errorf("update not persisted: name=%q hide_sref=%v", stored.Name, stored.Masking.HideSref)
	}
}

func TestUpdateCard_PromptEdits(t *testing.T) {
	store := newTestStore(t)
	cfg := config.DefaultConfig()

	tests := []struct {
		name  string
		input UpdateInput
		want  string
	}{
		{
			name:  "append typed text",
			input: UpdateInput{AppendText: stringPtr("glowing eyes; 35mm")},
			want:  "neon cat, rainy street, glowing eyes, 35mm --ar 16:9 --sref 111",
		},
		{
			name:  "toggle slot",
			input: UpdateInput{ToggleSlot: &SlotToggle{Index: 0, Label: "subject"}},
			want:  "{{subject}}, rainy street --ar 16:9 --sref 111",
		},
		{
			name:  "replace flags",
			input: UpdateInput{Flags: stringPtr("--ar 2:3 --stylize 250")},
			want:  "neon cat, rainy street --ar 2:3 --stylize 250",
		},
		{
			name: "segments then append",
			input: UpdateInput{
				Segments:   &[]prompt.Segment{prompt.Text("a fox")},
				AppendText: stringPtr("snow"),
			},
			want: "a fox, snow --ar 16:9 --sref 111",
		},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mintCommand(t, store, cfg, i+1, neonCommand, MintInput{})
			tt.input.ID = c.ID
			out, err := UpdateCard(context.Background(), store, tt.input)
			if err != nil {
				t.Fatalf("UpdateCard failed: %v", err)
			}
			if out.Prompt != tt.want {
				t.Errorf("Prompt = %q, want %q", out.Prompt, tt.want)
			}
		})
	}
}

func TestUpdateCard_Errors(t *testing.T) {
	store := newTestStore(t)
	cfg := config.DefaultConfig()
	c := mintCommand(t, store, cfg, 1, neonCommand, MintInput{})

	tests := []struct {
		name  string
		input UpdateInput
		code  errors.ErrorCode
	}{
		{"missing id", UpdateInput{Name: stringPtr("x")}, errors.ErrInvalidRequest},
		{"no fields", UpdateInput{ID: c.ID}, errors.ErrInvalidRequest},
		{"blank name", UpdateInput{ID: c.ID, Name: stringPtr("  ")}, errors.ErrInvalidRequest},
		{"bad color", UpdateInput{ID: c.ID, DominantColor: stringPtr("red")}, errors.ErrInvalidRequest},
		{"toggle out of range", UpdateInput{ID: c.ID, ToggleSlot: &SlotToggle{Index: 9}}, errors.ErrInvalidRequest},
		{"invalid segment", UpdateInput{ID: c.ID, Segments: &[]prompt.Segment{{Type: prompt.SegmentSlot}}}, errors.ErrInvalidRequest},
		{"not found", UpdateInput{ID: "01NOPE", Name: stringPtr("x")}, errors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UpdateCard(context.Background(), store, tt.input)
			assertCode(t, err, tt.code)
		})
	}
}

func TestDeleteCard(t *testing.T) {
	store := newTestStore(t)
	cfg := config.DefaultConfig()
	c := mintCommand(t, store, cfg, 1, neonCommand, MintInput{})

	out, err := DeleteCard(context.Background(), store, DeleteInput{ID: c.ID})
	if err != nil {
		t.Fatalf("DeleteCard failed: %v", err)
	}
	if !out.Deleted || out.ID != c.ID {
		t.Errorf("DeleteCard = %+v", out)
	}

	_, err = FetchCard(context.Background(), store, cfg, FetchInput{ID: c.ID})
	assertCode(t, err, errors.ErrNotFound)

	_, err = DeleteCard(context.Background(), store, DeleteInput{ID: c.ID})
	assertCode(t, err, errors.ErrNotFound)

	_, err = DeleteCard(context.Background(), store, DeleteInput{})
	assertCode(t, err, errors.ErrInvalidRequest)
}

func TestUseAndEvolve(t *testing.T) {
	store := newTestStore(t)
	cfg := config.DefaultConfig()
	c := mintCommand(t, store, cfg, 1, neonCommand, MintInput{HideSref: true})
	ctx := context.Background()

	_, err := Evolve(ctx, store, cfg, EvolveInput{ID: c.ID})
	assertCode(t, err, errors.ErrEvolutionLocked)

	var use *UseOutput
	for i := 0; i < 10; i++ {
		use, err = UseCard(ctx, store, cfg, UseInput{ID: c.ID})
		if err != nil {
			t.Fatalf("UseCard #%d failed: %v", i+1, err)
		}
	}
	if use.UsageCount != 10 {
		t.Errorf("UsageCount = %d, want 10", use.UsageCount)
	}
	if use.Prompt != "neon cat, rainy street --ar 16:9" {
		t.Errorf("Prompt = %q, want masked prompt", use.Prompt)
	}
	if !use.Evolution.CanEvolve {
		t.Error("CanEvolve = false after reaching the threshold")
	}

	out, err := Evolve(ctx, store, cfg, EvolveInput{ID: c.ID})
	if err != nil {
		t.Fatalf("Evolve failed: %v", err)
	}
	if out.From != card.TierCommon || out.To != card.TierRare {
		t.Errorf("Evolve = %s -> %s, want Common -> Rare", out.From, out.To)
	}
	want := Evolution{NextTier: card.TierEpic, Required: 30, CanEvolve: false}
	if out.Evolution != want {
		t.Errorf("Evolution = %+v, want %+v", out.Evolution, want)
	}

	stored, err := store.GetCard(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if stored.Tier != card.TierRare {
		t.Errorf("stored Tier = %q, want Rare", stored.Tier)
	}
	if stored.UsageCount != 10 {
		t.Errorf("stored UsageCount = %d, want usage kept across evolution", stored.UsageCount)
	}
	if stored.Genealogy.MutationNote == "" {
		t.Error("MutationNote is empty after evolution")
	}
}

func TestEvolve_ConfiguredThresholdsToMaxTier(t *testing.T) {
	store := newTestStore(t)
	cfg := config.DefaultConfig()
	cfg.EvolutionThresholds = map[string]int{"Common": 1, "Rare": 1, "Epic": 1}
	c := mintCommand(t, store, cfg, 1, neonCommand, MintInput{})
	ctx := context.Background()

	if _, err := UseCard(ctx, store, cfg, UseInput{ID: c.ID}); err != nil {
		t.Fatalf("UseCard failed: %v", err)
	}
	for _, want := range []card.Tier{card.TierRare, card.TierEpic, card.TierLegendary} {
		out, err := Evolve(ctx, store, cfg, EvolveInput{ID: c.ID})
		if err != nil {
			t.Fatalf("Evolve to %s failed: %v", want, err)
		}
		if out.To != want {
			t.Errorf("To = %s, want %s", out.To, want)
		}
	}

	_, err := Evolve(ctx, store, cfg, EvolveInput{ID: c.ID})
	assertCode(t, err, errors.ErrMaxTier)

	fetched, err := FetchCard(ctx, store, cfg, FetchInput{ID: c.ID})
	if err != nil {
		t.Fatalf("FetchCard failed: %v", err)
	}
	if fetched.Evolution != (Evolution{}) {
		t.Errorf("Evolution at top tier = %+v, want zero value", fetched.Evolution)
	}
}

func TestUseCard_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := UseCard(context.Background(), store, config.DefaultConfig(), UseInput{ID: "01NOPE"})
	assertCode(t, err, errors.ErrNotFound)
}

func TestCreateVariation(t *testing.T) {
	store := newTestStore(t)
	cfg := config.DefaultConfig()
	cfg.DefaultFrameID = "holo"

	a := mintCommand(t, store, cfg, 1, neonCommand, MintInput{HideSref: true, Tags: []string{"neon"}})
	b := mintCommand(t, store, cfg, 2, "cyberpunk alley, neon cat --sref 222 --stylize 500", MintInput{Tags: []string{"city"}})

	out, err := CreateVariation(context.Background(), store, cfg, VariationInput{ParentIDs: []string{a.ID, b.ID, a.ID}})
	if err != nil {
		t.Fatalf("CreateVariation failed: %v", err)
	}

	v := out.Card
	if v.Name != "neon cat Variant" {
		t.Errorf("Name = %q, want lead name with suffix", v.Name)
	}
	if v.Genealogy.Generation != 2 {
		t.Errorf("Generation = %d, want 2", v.Genealogy.Generation)
	}
	if !reflect.DeepEqual(v.Genealogy.ParentIDs, []string{a.ID, b.ID}) {
		t.Errorf("ParentIDs = %v, want deduplicated parents", v.Genealogy.ParentIDs)
	}
	if !reflect.DeepEqual(v.Parameters.Sref, []string{"222", "111"}) {
		t.Errorf("Sref = %v, want later parent first", v.Parameters.Sref)
	}
	if v.Parameters.Stylize != nil {
		t.Errorf("Stylize = %d, want only the lead's scalars", *v.Parameters.Stylize)
	}
	if !reflect.DeepEqual(v.Tags, []string{"neon", "city"}) {
		t.Errorf("Tags = %v", v.Tags)
	}
	if v.FrameID != "holo" {
		t.Errorf("FrameID = %q, want configured frame", v.FrameID)
	}
	if want := "neon cat, rainy street, cyberpunk alley --ar 16:9"; out.Prompt != want {
		t.Errorf("Prompt = %q, want %q", out.Prompt, want)
	}

	if _, err := store.GetCard(context.Background(), v.ID); err != nil {
		t.Errorf("variation not stored: %v", err)
	}
}

func TestCreateVariation_Errors(t *testing.T) {
	store := newTestStore(t)
	cfg := config.DefaultConfig()
	a := mintCommand(t, store, cfg, 1, neonCommand, MintInput{})

	_, err := CreateVariation(context.Background(), store, cfg, VariationInput{})
	assertCode(t, err, errors.ErrInvalidRequest)

	_, err = CreateVariation(context.Background(), store, cfg, VariationInput{ParentIDs: []string{a.ID, "01NOPE"}})
	assertCode(t, err, errors.ErrNotFound)

	many := make([]string, MaxVariationParents+1)
	for i := range many {
		many[i] = testJobID(i)
	}
	_, err = CreateVariation(context.Background(), store, cfg, VariationInput{ParentIDs: many})
	assertCode(t, err, errors.ErrInvalidRequest)
}
