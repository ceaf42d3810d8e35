package ops

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
)

// TestFullWorkflow exercises the complete card lifecycle:
// capture → mint → edit → pin → compose → use → evolve → vary → export → import
func TestFullWorkflow(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	require.NoError(t, err)
	defer database.Close()
	store := db.NewStore(database)

	cfg := config.DefaultConfig()
	cfg.EvolutionThresholds = map[string]int{"Common": 2}
	cfg.AllowedPaths = []string{tmpDir}
	ctx := context.Background()

	// 1. Capture
	captured, err := Capture(ctx, store, CaptureInput{HTML: captureFragment})
	require.NoError(t, err)
	require.True(t, captured.Created)

	// 2. Mint with the sref sealed
	minted, err := Mint(ctx, store, cfg, MintInput{HistoryID: captured.Item.ID, HideSref: true})
	require.NoError(t, err)
	id := minted.Card.ID
	require.Equal(t, "neon cat, rainy street --ar 16:9", minted.Prompt)

	// 3. Turn the subject into a slot
	edited, err := UpdateCard(ctx, store, UpdateInput{ID: id, ToggleSlot: &SlotToggle{Index: 0, Label: "subject"}})
	require.NoError(t, err)
	require.Equal(t, "{{subject}}, rainy street --ar 16:9", edited.Prompt)

	// 4. Pin a second card and compose both
	other, err := Capture(ctx, store, CaptureInput{Text: "ink wash --stylize 300", JobID: testJobID(5)})
	require.NoError(t, err)
	second, err := Mint(ctx, store, cfg, MintInput{HistoryID: other.Item.ID})
	require.NoError(t, err)

	_, err = Pin(ctx, store, PinInput{ID: id})
	require.NoError(t, err)
	_, err = Pin(ctx, store, PinInput{ID: second.Card.ID})
	require.NoError(t, err)

	composed, err := Compose(ctx, store, cfg, ComposeInput{
		CardIDs: []string{id, second.Card.ID},
		Fill:    map[string]string{"subject": "red fox"},
		Use:     true,
	})
	require.NoError(t, err)
	require.Equal(t, "red fox, rainy street --ar 16:9, ink wash --stylize 300", composed.Prompt)

	// 5. One more use unlocks evolution
	used, err := UseCard(ctx, store, cfg, UseInput{ID: id})
	require.NoError(t, err)
	require.Equal(t, 2, used.UsageCount)
	require.True(t, used.Evolution.CanEvolve)

	evolved, err := Evolve(ctx, store, cfg, EvolveInput{ID: id})
	require.NoError(t, err)
	require.Equal(t, card.TierRare, evolved.To)

	// 6. Combine both into a variation
	vary, err := CreateVariation(ctx, store, cfg, VariationInput{ParentIDs: []string{id, second.Card.ID}, Name: "Fox Ink"})
	require.NoError(t, err)
	require.Equal(t, 2, vary.Card.Genealogy.Generation)
	require.Equal(t, card.TierCommon, vary.Card.Tier)

	// 7. Export the hand and import it into a fresh library
	exportPath := filepath.Join(tmpDir, "hand.jsonl")
	exported, err := ExportCards(ctx, store, cfg, ExportInput{Path: exportPath, HandOnly: true})
	require.NoError(t, err)
	require.Equal(t, 2, exported.Count)

	otherDB, err := db.Init(t.TempDir())
	require.NoError(t, err)
	defer otherDB.Close()
	target := db.NewStore(otherDB)

	imported, err := ImportCards(ctx, target, cfg, ImportInput{Path: exportPath})
	require.NoError(t, err)
	require.Equal(t, 2, imported.Imported)
	require.Empty(t, imported.Errors)

	fetched, err := FetchCard(ctx, target, cfg, FetchInput{ID: id})
	require.NoError(t, err)
	require.Equal(t, card.TierRare, fetched.Card.Tier)
	require.Equal(t, edited.Prompt, fetched.Prompt)

	// 8. Delete and confirm
	_, err = DeleteCard(ctx, store, DeleteInput{ID: id})
	require.NoError(t, err)
	_, err = FetchCard(ctx, store, cfg, FetchInput{ID: id})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}
