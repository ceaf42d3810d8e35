package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
)

// ExportSchemaVersion is written to the header line of every export.
const ExportSchemaVersion = "1.0"

// ExportInput contains parameters for the ExportCards operation.
type ExportInput struct {
	Path string // optional, default: ~/.atelier/exports/<label>-<timestamp>.jsonl

	// CardIDs restricts the export to these cards; empty exports everything.
	CardIDs []string
	// HandOnly restricts the export to pinned cards.
	HandOnly bool
	// Label prefixes the default file name.
	Label string
}

// ExportOutput contains the result of the ExportCards operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader represents the header line in a JSONL export file.
type ExportHeader struct {
	AtelierExport bool   `json:"_atelier_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// ExportCards writes cards to a JSONL file: one header line, then one card
// per line in creation order.
func ExportCards(ctx context.Context, store *db.Store, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	ts := now()
	exportedAt := ts.Unix()

	exportPath := input.Path
	if exportPath == "" {
		label := input.Label
		if label == "" {
			label = "cards"
			if input.HandOnly {
				label = "hand"
			}
		}
		var err error
		exportPath, err = defaultExportPath(label, ts)
		if err != nil {
			return nil, err
		}
	}

	// Default paths are validated too; the label is caller input
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	// Write to temp file first, then atomic rename to preserve existing file on failure
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)

	header := ExportHeader{
		AtelierExport: true,
		SchemaVersion: ExportSchemaVersion,
		ExportedAt:    exportedAt,
	}
	if err := enc.Encode(header); err != nil {
		return nil, errors.NewInternal(err)
	}

	wanted := make(map[string]bool)
	for _, id := range cleanIDs(input.CardIDs) {
		wanted[id] = true
	}

	count := 0
	err = store.StreamCards(ctx, func(c *card.StyleCard) error {
		if len(wanted) > 0 && !wanted[c.ID] {
			return nil
		}
		if input.HandOnly && !c.IsPinned {
			return nil
		}
		if err := enc.Encode(card.CardToExportRecord(c)); err != nil {
			return errors.NewInternal(err)
		}
		count++
		return nil
	})
	if err != nil {
		if errors.Is(err, errors.ErrCancelled) {
			return nil, errors.NewCancelled("export")
		}
		return nil, err
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Close before atomic replace (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	// On Windows, os.Rename fails if the destination exists; the existing
	// file is kept rather than risking a non-atomic delete+rename.
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows yet (choose a new path or delete the existing file)")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: exportedAt,
	}, nil
}

// defaultExportPath generates the default export path.
// Format: ~/.atelier/exports/<label>-<timestamp>.jsonl
func defaultExportPath(label string, ts time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s-%s.jsonl", SanitizeForFilename(card.Normalize(label)), ts.Format("2006-01-02T150405"))
	return filepath.Join(dir, filename), nil
}
