package ops

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/styleatelier/atelier/internal/capture"
	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
)

// batchExtractWorkers bounds concurrent extraction in CaptureBatch.
const batchExtractWorkers = 4

// CaptureInput contains parameters for the Capture operation.
// HTML, when set, is a job card fragment scraped by HTMLExtractor; the
// other fields fill in or override what the fragment yields.
type CaptureInput struct {
	HTML          string  `json:"html,omitempty"`
	Text          string  `json:"text,omitempty"`
	Alt           string  `json:"alt,omitempty"`
	JobID         string  `json:"job_id,omitempty"`
	PageURL       string  `json:"page_url,omitempty"`
	ImageURL      string  `json:"image_url,omitempty"`
	RelatedCardID *string `json:"related_card_id,omitempty"`
}

// CaptureOutput contains the result of the Capture operation.
type CaptureOutput struct {
	Item *card.HistoryItem `json:"item"`
	// Created is false when the job was already captured; Item is then the
	// stored original.
	Created bool `json:"created"`
}

// Capture extracts one generation and records it as an immutable history item.
func Capture(ctx context.Context, store *db.Store, input CaptureInput) (*CaptureOutput, error) {
	item, err := extractHistory(ctx, input)
	if err != nil {
		return nil, err
	}
	return saveHistory(ctx, store, item)
}

// CaptureBatchItem is the outcome of one capture in a batch.
type CaptureBatchItem struct {
	Index   int               `json:"index"`
	Item    *card.HistoryItem `json:"item,omitempty"`
	Created bool              `json:"created"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
}

// CaptureBatchOutput contains the result of the CaptureBatch operation.
type CaptureBatchOutput struct {
	Items   []CaptureBatchItem `json:"items"`
	Created int                `json:"created"`
	Failed  int                `json:"failed"`
}

// CaptureBatch captures many generations at once, as when a gallery page is
// scanned. Extraction runs concurrently; items are stored in input order.
// A bad item is reported in its slot and does not fail the batch.
func CaptureBatch(ctx context.Context, store *db.Store, inputs []CaptureInput) (*CaptureBatchOutput, error) {
	if len(inputs) == 0 {
		return nil, errors.NewInvalidRequest("at least one capture is required")
	}
	if len(inputs) > MaxBatchCaptures {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("at most %d captures per batch", MaxBatchCaptures))
	}

	items := make([]*card.HistoryItem, len(inputs))
	failures := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchExtractWorkers)
	for i, in := range inputs {
		g.Go(func() error {
			item, err := extractHistory(gctx, in)
			if errors.Is(err, errors.ErrCancelled) {
				return err
			}
			items[i], failures[i] = item, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &CaptureBatchOutput{Items: make([]CaptureBatchItem, 0, len(inputs))}
	for i := range inputs {
		result := CaptureBatchItem{Index: i}
		err := failures[i]
		if err == nil {
			var saved *CaptureOutput
			if saved, err = saveHistory(ctx, store, items[i]); err == nil {
				result.Item, result.Created = saved.Item, saved.Created
				if saved.Created {
					out.Created++
				}
			}
		}
		if err != nil {
			if errors.Is(err, errors.ErrCancelled) {
				return nil, err
			}
			result.Code, result.Message = errorCode(err)
			out.Failed++
		}
		out.Items = append(out.Items, result)
	}
	return out, nil
}

func extractHistory(ctx context.Context, input CaptureInput) (*card.HistoryItem, error) {
	var ex capture.Extractor = capture.Static{
		Text:     input.Text,
		Alt:      input.Alt,
		JobID:    input.JobID,
		PageURL:  input.PageURL,
		ImageURL: input.ImageURL,
	}
	if strings.TrimSpace(input.HTML) != "" {
		ex = capture.NewHTMLExtractor(input.HTML)
	}

	raw, err := ex.Extract(ctx)
	if err != nil {
		return nil, err
	}
	overlay(&raw.Text, input.Text)
	overlay(&raw.Alt, input.Alt)
	overlay(&raw.JobID, input.JobID)
	overlay(&raw.PageURL, input.PageURL)
	overlay(&raw.ImageURL, input.ImageURL)

	if raw.Command() == "" {
		return nil, errors.NewInvalidRequest("capture has no command text")
	}
	item, err := capture.ToHistoryItem(raw, now())
	if err != nil {
		return nil, err
	}
	item.RelatedCardID = cleanOptional(input.RelatedCardID)
	return item, nil
}

func saveHistory(ctx context.Context, store *db.Store, item *card.HistoryItem) (*CaptureOutput, error) {
	created, err := store.PutHistory(ctx, item)
	if err != nil {
		return nil, err
	}
	if !created {
		if item, err = store.GetHistory(ctx, item.ID); err != nil {
			return nil, err
		}
	}
	return &CaptureOutput{Item: item, Created: created}, nil
}

func overlay(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// cleanOptional trims an optional string, mapping blank to nil.
func cleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// errorCode flattens an error for per-item reports.
func errorCode(err error) (string, string) {
	if ae, ok := errors.As(err); ok {
		return string(ae.Code), ae.Message
	}
	return string(errors.ErrInternal), err.Error()
}
