package ops

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
)

const neonCommand = "neon cat, rainy street --ar 16:9 --sref 111"

// testJobID returns a distinct, valid job UUID for n.
func testJobID(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return db.NewStore(database)
}

// setNow pins the package clock for the duration of the test.
func setNow(t *testing.T, ts time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = prev })
}

func captureCommand(t *testing.T, store *db.Store, n int, command string) *card.HistoryItem {
	t.Helper()
	out, err := Capture(context.Background(), store, CaptureInput{Text: command, JobID: testJobID(n)})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	return out.Item
}

// mintCommand captures command as job n and mints it into a card.
func mintCommand(t *testing.T, store *db.Store, cfg *config.Config, n int, command string, input MintInput) *card.StyleCard {
	t.Helper()
	item := captureCommand(t, store, n, command)
	input.HistoryID = item.ID
	out, err := Mint(context.Background(), store, cfg, input)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	return out.Card
}

func pinCard(t *testing.T, store *db.Store, id string) {
	t.Helper()
	if _, err := Pin(context.Background(), store, PinInput{ID: id}); err != nil {
		t.Fatalf("Pin failed: %v", err)
	}
}

func assertCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !errors.Is(err, code) {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func stringPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestCleanIDs(t *testing.T) {
	got := cleanIDs([]string{" b ", "a", "", "b", "  ", "c", "a"})
	want := []string{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("cleanIDs() = %v, want %v", got, want)
	}

	if got := cleanIDs(nil); got == nil || len(got) != 0 {
		t.Errorf("cleanIDs(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		name                string
		limit, offset       int
		wantLimit, wantOffs int
	}{
		{"defaults", 0, 0, DefaultListLimit, 0},
		{"negative offset", 5, -3, 5, 0},
		{"over max", 500, 10, MaxListLimit, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := clampPage(tt.limit, tt.offset, MaxListLimit)
			if limit != tt.wantLimit || offset != tt.wantOffs {
				t.Errorf("clampPage(%d, %d) = (%d, %d), want (%d, %d)",
					tt.limit, tt.offset, limit, offset, tt.wantLimit, tt.wantOffs)
			}
		})
	}
}

func TestThresholds(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.EvolutionThresholds = map[string]int{"common": 3, "Mythic": 7, "Rare": 0}

	th := thresholds(cfg)
	if th[card.TierCommon] != 3 {
		t.Errorf("Common threshold = %d, want 3", th[card.TierCommon])
	}
	if th[card.TierRare] != 30 {
		t.Errorf("Rare threshold = %d, want default 30 (non-positive ignored)", th[card.TierRare])
	}
	if len(th) != 3 {
		t.Errorf("thresholds has %d tiers, want 3 (unknown tier ignored)", len(th))
	}

	if got := thresholds(nil); !reflect.DeepEqual(got, card.DefaultThresholds()) {
		t.Errorf("thresholds(nil) = %v, want defaults", got)
	}
}
