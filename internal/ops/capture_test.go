package ops

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/styleatelier/atelier/internal/errors"
)

const captureFragment = `
<div class="group">
  <a href="https://www.midjourney.com/jobs/0f8b6c1e-1d2a-4c3b-9e8f-123456789abc?index=0">
    <img src="https://cdn.midjourney.com/0f8b6c1e-1d2a-4c3b-9e8f-123456789abc/0_0.webp" alt="neon cat">
  </a>
  <div class="overflow-clip">
    <div class="break-word">neon cat, rainy street</div>
    <div><button>--ar 16:9</button> <button>--sref 111</button></div>
  </div>
</div>`

func TestCapture_Static(t *testing.T) {
	store := newTestStore(t)
	ts := time.Unix(1700000000, 0)
	setNow(t, ts)

	out, err := Capture(context.Background(), store, CaptureInput{
		Text:          "  " + neonCommand + "  ",
		JobID:         testJobID(1),
		ImageURL:      "https://example.com/a.png",
		RelatedCardID: stringPtr("  "),
	})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if !out.Created {
		t.Error("Created = false, want true")
	}
	if out.Item.ID != testJobID(1) {
		t.Errorf("ID = %q, want %q", out.Item.ID, testJobID(1))
	}
	if out.Item.FullCommand != neonCommand {
		t.Errorf("FullCommand = %q, want %q", out.Item.FullCommand, neonCommand)
	}
	if out.Item.Timestamp != ts.Unix() {
		t.Errorf("Timestamp = %d, want %d", out.Item.Timestamp, ts.Unix())
	}
	if out.Item.RelatedCardID != nil {
		t.Errorf("RelatedCardID = %q, want nil for blank input", *out.Item.RelatedCardID)
	}

	stored, err := store.GetHistory(context.Background(), testJobID(1))
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if stored.ImageURL != "https://example.com/a.png" {
		t.Errorf("stored ImageURL = %q", stored.ImageURL)
	}
}

func TestCapture_HTML(t *testing.T) {
	store := newTestStore(t)

	out, err := Capture(context.Background(), store, CaptureInput{HTML: captureFragment})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if out.Item.ID != "0f8b6c1e-1d2a-4c3b-9e8f-123456789abc" {
		t.Errorf("ID = %q, want job id from the link", out.Item.ID)
	}
	if out.Item.FullCommand != neonCommand {
		t.Errorf("FullCommand = %q, want %q", out.Item.FullCommand, neonCommand)
	}
	if out.Item.ImageURL == "" {
		t.Error("ImageURL is empty, want the scraped image")
	}
}

func TestCapture_ExplicitFieldsOverrideHTML(t *testing.T) {
	store := newTestStore(t)

	out, err := Capture(context.Background(), store, CaptureInput{
		HTML:  captureFragment,
		Text:  "a fox --ar 2:3",
		JobID: testJobID(7),
	})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if out.Item.ID != testJobID(7) {
		t.Errorf("ID = %q, want explicit %q", out.Item.ID, testJobID(7))
	}
	if out.Item.FullCommand != "a fox --ar 2:3" {
		t.Errorf("FullCommand = %q, want explicit text", out.Item.FullCommand)
	}
}

func TestCapture_DuplicateReturnsOriginal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := Capture(ctx, store, CaptureInput{Text: neonCommand, JobID: testJobID(1)})
	if err != nil {
		t.Fatalf("first Capture failed: %v", err)
	}

	second, err := Capture(ctx, store, CaptureInput{Text: "something else entirely", JobID: testJobID(1)})
	if err != nil {
		t.Fatalf("second Capture failed: %v", err)
	}
	if second.Created {
		t.Error("Created = true for a duplicate job, want false")
	}
	if second.Item.FullCommand != first.Item.FullCommand {
		t.Errorf("FullCommand = %q, want original %q", second.Item.FullCommand, first.Item.FullCommand)
	}
}

func TestCapture_Rejections(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name  string
		input CaptureInput
	}{
		{"no command", CaptureInput{JobID: testJobID(1)}},
		{"no job id", CaptureInput{Text: neonCommand}},
		{"unknown url shape", CaptureInput{Text: neonCommand, PageURL: "https://example.com/" + testJobID(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Capture(context.Background(), store, tt.input)
			assertCode(t, err, errors.ErrInvalidRequest)
		})
	}
}

func TestCapture_JobIDFromPageURL(t *testing.T) {
	store := newTestStore(t)

	out, err := Capture(context.Background(), store, CaptureInput{
		Text:    neonCommand,
		PageURL: "https://www.midjourney.com/jobs/" + testJobID(3) + "?index=1",
	})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if out.Item.ID != testJobID(3) {
		t.Errorf("ID = %q, want %q", out.Item.ID, testJobID(3))
	}
}

func TestCaptureBatch(t *testing.T) {
	store := newTestStore(t)

	out, err := CaptureBatch(context.Background(), store, []CaptureInput{
		{Text: neonCommand, JobID: testJobID(1)},
		{Text: "no job id here"},
		{Text: "duplicate", JobID: testJobID(1)},
		{Text: "a fox --ar 2:3", JobID: testJobID(2)},
	})
	if err != nil {
		t.Fatalf("CaptureBatch failed: %v", err)
	}

	if len(out.Items) != 4 {
		t.Fatalf("len(Items) = %d, want 4", len(out.Items))
	}
	if out.Created != 2 {
		t.Errorf("Created = %d, want 2", out.Created)
	}
	if out.Failed != 1 {
		t.Errorf("Failed = %d, want 1", out.Failed)
	}

	for i, item := range out.Items {
		if item.Index != i {
			t.Errorf("Items[%d].Index = %d, want input order", i, item.Index)
		}
	}
	if out.Items[1].Code != string(errors.ErrInvalidRequest) {
		t.Errorf("Items[1].Code = %q, want %q", out.Items[1].Code, errors.ErrInvalidRequest)
	}
	if out.Items[1].Item != nil {
		t.Error("Items[1].Item should be nil for a failed capture")
	}
	if out.Items[2].Created {
		t.Error("Items[2].Created = true for a duplicate, want false")
	}
	if out.Items[2].Item.FullCommand != neonCommand {
		t.Errorf("Items[2] FullCommand = %q, want the stored original", out.Items[2].Item.FullCommand)
	}

	history, err := ListHistory(context.Background(), store, ListHistoryInput{})
	if err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	if history.Pagination.Total != 2 {
		t.Errorf("history total = %d, want 2", history.Pagination.Total)
	}
}

func TestCaptureBatch_Bounds(t *testing.T) {
	store := newTestStore(t)

	_, err := CaptureBatch(context.Background(), store, nil)
	assertCode(t, err, errors.ErrInvalidRequest)

	inputs := make([]CaptureInput, MaxBatchCaptures+1)
	_, err = CaptureBatch(context.Background(), store, inputs)
	assertCode(t, err, errors.ErrInvalidRequest)
}

func TestCaptureBatch_Cancelled(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CaptureBatch(ctx, store, []CaptureInput{{Text: neonCommand, JobID: testJobID(1)}})
	assertCode(t, err, errors.ErrCancelled)
}

func TestCaptureBatch_NoLeakedWorkers(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionCleaner"),
	)
	store := newTestStore(t)

	inputs := make([]CaptureInput, 0, 20)
	for i := range 20 {
		inputs = append(inputs, CaptureInput{Text: neonCommand, JobID: testJobID(i + 1)})
	}
	// A bad item in the middle must not strand the workers behind it.
	inputs[7] = CaptureInput{Text: "no job id here"}

	out, err := CaptureBatch(context.Background(), store, inputs)
	if err != nil {
		t.Fatalf("CaptureBatch failed: %v", err)
	}
	if out.Created != 19 || out.Failed != 1 {
		t.Errorf("Created = %d, Failed = %d, want 19 and 1", out.Created, out.Failed)
	}
}
