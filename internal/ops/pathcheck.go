package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/errors"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // import
	PathCheckWrite                      // export
)

// ValidatePath checks an import or export path. The path must name a .jsonl
// file with no ".." components that sits directly in ~/.atelier/exports or
// in one of cfg.AllowedPaths. Neither the file nor its parent may be a
// symlink.
//
// Subdirectories of an allowed directory are refused: with O_NOFOLLOW on the
// final component, no intermediate directory is left that could be swapped
// for a symlink between this check and the open. AllowUnsafePaths lifts the
// directory rule only.
func ValidatePath(path string, mode PathCheckMode, cfg *config.Config) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != ".jsonl" {
		return errors.NewInvalidRequest("path must have .jsonl extension")
	}
	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		if err := checkDirectory(absPath, cfg); err != nil {
			return err
		}
	}

	if mode == PathCheckRead {
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
	}
	if isSymlink(absPath) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

// checkDirectory requires absPath's parent to be an allowed directory itself.
func checkDirectory(absPath string, cfg *config.Config) error {
	allowed, err := allowedDirs(cfg)
	if err != nil {
		return err
	}

	parent := filepath.Clean(filepath.Dir(absPath))
	if !slices.Contains(allowed, parent) {
		return errors.NewInvalidRequest(fmt.Sprintf(
			"file must be directly in an allowed directory (no subdirectories); allowed: %v", allowed))
	}
	if isSymlink(parent) {
		return errors.NewInvalidRequest("parent directory must not be a symlink")
	}
	return nil
}

// allowedDirs returns the exports directory plus every absolute entry of
// cfg.AllowedPaths, cleaned. Entries that are symlinks resolve to their target.
func allowedDirs(cfg *config.Config) ([]string, error) {
	exports, err := DefaultExportsDir()
	if err != nil {
		return nil, err
	}

	dirs := []string{exports}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				dirs = append(dirs, p)
			}
		}
	}

	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(filepath.Clean(d))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		if isSymlink(abs) {
			if abs, err = filepath.EvalSymlinks(abs); err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
		}
		out = append(out, filepath.Clean(abs))
	}
	return out, nil
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// DefaultExportsDir returns ~/.atelier/exports.
func DefaultExportsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(homeDir, config.DirName, "exports"), nil
}

// containsTraversal reports whether any component of path is "..".
// Forward slashes count as separators on every platform.
func containsTraversal(path string) bool {
	split := func(r rune) bool { return r == '/' || r == filepath.Separator }
	return slices.Contains(strings.FieldsFunc(path, split), "..")
}

// SanitizeForFilename makes a label safe to embed in an export file name.
// Separators and ".." become dashes, control characters are dropped and
// dash runs collapse. A label with nothing left becomes "unnamed".
func SanitizeForFilename(s string) string {
	s = strings.NewReplacer("/", "-", "\\", "-").Replace(s)
	s = strings.ReplaceAll(s, "..", "-")
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	if s = strings.Trim(s, "-"); s == "" {
		return "unnamed"
	}
	return s
}
