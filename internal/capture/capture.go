// Package capture turns scraped page data into history items.
//
// Scraping heuristics live behind the Extractor interface so the rest of the
// system only ever sees a RawCapture: the best-effort command text plus
// whatever identifiers the page exposed.
package capture

import (
	"context"
	"strings"
	"time"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/errors"
)

// RawCapture is the output of an extractor.
type RawCapture struct {
	// Text is the scraped command (body plus parameter flags)
	Text string `json:"text"`

	// Alt is the image alt text, used when Text carries no parameters
	Alt string `json:"alt,omitempty"`

	// JobID is the external job identifier, when the extractor found one
	JobID string `json:"job_id,omitempty"`

	// PageURL is the job link or page the capture came from
	PageURL string `json:"page_url,omitempty"`

	ImageURL string `json:"image_url,omitempty"`
}

// Extractor produces a RawCapture from some page representation.
type Extractor interface {
	Extract(ctx context.Context) (*RawCapture, error)
}

// Static is an Extractor that returns a fixed capture. It serves callers
// that already hold structured data (CLI flags, JSON request bodies).
type Static RawCapture

// Extract implements Extractor.
func (s Static) Extract(ctx context.Context) (*RawCapture, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("extract")
	}
	raw := RawCapture(s)
	return &raw, nil
}

// Command returns the best command text for the capture. The alt text
// replaces Text when Text is empty, or when only the alt text carries
// parameter flags.
func (r *RawCapture) Command() string {
	text := strings.TrimSpace(r.Text)
	alt := strings.TrimSpace(r.Alt)
	if !strings.Contains(text, "--") && strings.Contains(alt, "--") {
		return alt
	}
	if text == "" {
		return alt
	}
	return text
}

// ResolveJobID returns the explicit job ID, or one recovered from the page
// or image URL.
func (r *RawCapture) ResolveJobID() (string, bool) {
	if id := strings.TrimSpace(r.JobID); id != "" {
		if norm, ok := ParseJobID(id); ok {
			return norm, true
		}
		return id, true
	}
	if id, ok := ExtractJobID(r.PageURL); ok {
		return id, true
	}
	return ExtractJobID(r.ImageURL)
}

// ToHistoryItem validates the capture and converts it to a history item.
// A job ID is required: captures that cannot be tied to a generation are
// rejected.
func ToHistoryItem(r *RawCapture, now time.Time) (*card.HistoryItem, error) {
	if r == nil {
		return nil, errors.NewInvalidRequest("capture is required")
	}
	id, ok := r.ResolveJobID()
	if !ok {
		return nil, errors.NewInvalidRequest("capture has no job id")
	}
	return &card.HistoryItem{
		ID:          id,
		FullCommand: r.Command(),
		ImageURL:    strings.TrimSpace(r.ImageURL),
		Timestamp:   now.Unix(),
	}, nil
}
