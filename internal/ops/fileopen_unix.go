//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/styleatelier/atelier/internal/errors"
)

// openFileNoFollow opens path with O_NOFOLLOW so a symlink planted at the
// final component is refused. Directory components are covered by
// ValidatePath.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	return openNoFollow(path, flag, perm, "cannot write to symlink")
}

// openFileNoFollowRead is openFileNoFollow for the import side.
func openFileNoFollowRead(path string) (*os.File, error) {
	return openNoFollow(path, os.O_RDONLY, 0, "cannot read from symlink")
}

func openNoFollow(path string, flag int, perm os.FileMode, symlinkMsg string) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	switch {
	case err == nil:
		return os.NewFile(uintptr(fd), path), nil
	case stderrors.Is(err, syscall.ELOOP):
		return nil, errors.NewInvalidRequest(symlinkMsg)
	case stderrors.Is(err, syscall.ENOENT) && flag&os.O_CREATE == 0:
		return nil, errors.NewFileNotFound(path)
	}
	return nil, err
}
