package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
)

// Import size limits. Inline thumbnails make single lines large.
const (
	MaxImportFileBytes = 64 << 20
	MaxImportLineBytes = 16 << 20
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on collision (atomic)
	ImportModeReplace ImportMode = "replace" // overwrite on collision
	ImportModeSkip    ImportMode = "skip"    // keep existing on collision
)

// ImportInput contains parameters for the ImportCards operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the ImportCards operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError represents an error that occurred during import.
type ImportError struct {
	Line    int    `json:"line,omitempty"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type importRecord struct {
	line int
	card *card.StyleCard
}

// ImportCards imports cards from a JSONL export file.
func ImportCards(ctx context.Context, store *db.Store, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace && input.Mode != ImportModeSkip {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, skip")
	}

	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if info.Size() > MaxImportFileBytes {
		return nil, errors.NewFileTooLarge(MaxImportFileBytes, info.Size())
	}

	records, parseErrors := parseExportFile(file)

	// mode:error is all-or-nothing, including malformed lines
	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		return &ImportOutput{Errors: parseErrors}, nil
	}

	switch input.Mode {
	case ImportModeError:
		return importModeError(ctx, store, records)
	default:
		return importModeLenient(ctx, store, records, parseErrors, input.Mode)
	}
}

// parseExportFile parses a JSONL export file into sanitized cards.
func parseExportFile(r io.Reader) ([]importRecord, []ImportError) {
	var (
		records     []importRecord
		parseErrors []ImportError
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxImportLineBytes)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record card.ExportRecord
		if err := json.Unmarshal(line, &record); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		if record.AtelierExport {
			if record.SchemaVersion != "" && record.SchemaVersion != ExportSchemaVersion {
				parseErrors = append(parseErrors, ImportError{
					Line:    lineNum,
					Code:    "UNSUPPORTED_SCHEMA",
					Message: fmt.Sprintf("unsupported schema_version %q", record.SchemaVersion),
				})
			}
			continue
		}

		c, err := record.ToCard()
		if err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "INVALID_RECORD",
				Message: err.Error(),
			})
			continue
		}
		records = append(records, importRecord{line: lineNum, card: c})
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum + 1,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}

// importModeError imports all records atomically, rolling back on any collision.
func importModeError(ctx context.Context, store *db.Store, records []importRecord) (*ImportOutput, error) {
	var collision *ImportError

	err := store.WithTx(ctx, func(tx *db.Store) error {
		for _, rec := range records {
			if ctx.Err() != nil {
				return errors.NewCancelled("import")
			}
			err := tx.InsertCard(ctx, rec.card)
			if errors.Is(err, errors.ErrAlreadyExists) {
				collision = &ImportError{
					Line:    rec.line,
					ID:      rec.card.ID,
					Code:    "ID_COLLISION",
					Message: fmt.Sprintf("card with id %q already exists", rec.card.ID),
				}
				return err
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if collision != nil {
		return &ImportOutput{Errors: []ImportError{*collision}}, nil
	}
	if err != nil {
		return nil, err
	}

	return &ImportOutput{
		Imported: len(records),
		Errors:   []ImportError{},
	}, nil
}

// importModeLenient imports record by record. Collisions overwrite in
// replace mode and are skipped in skip mode; bad lines are skipped.
func importModeLenient(ctx context.Context, store *db.Store, records []importRecord, parseErrors []ImportError, mode ImportMode) (*ImportOutput, error) {
	out := &ImportOutput{Errors: append([]ImportError{}, parseErrors...)}
	out.Skipped = len(parseErrors)

	for _, rec := range records {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("import")
		}

		if mode == ImportModeSkip {
			exists, err := store.CardExists(ctx, rec.card.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				out.Skipped++
				continue
			}
		}

		if err := store.PutCard(ctx, rec.card); err != nil {
			return nil, err
		}
		out.Imported++
	}

	return out, nil
}
