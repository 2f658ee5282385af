package write

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// replaceFile writes data to a temporary sibling of path and renames it
// over the target, so a mid-write failure (disk full, permission revoked,
// process killed) never truncates the original file.
func replaceFile(path string, data []byte, backup bool) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".sltmx-*.tmp")
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &WriteError{Kind: KindTempCollision, Err: err}
		}
		return &WriteError{Kind: KindIO, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return &WriteError{Kind: KindIO, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return &WriteError{Kind: KindIO, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &WriteError{Kind: KindIO, Err: err}
	}

	// Carry the target's permissions over; CreateTemp defaults to 0600.
	if info, err := os.Stat(path); err == nil {
		if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
			os.Remove(tmpName)
			return &WriteError{Kind: KindIO, Err: err}
		}
		if backup {
			if err := copyFile(path, path+".bak", info.Mode().Perm()); err != nil {
				os.Remove(tmpName)
				return &WriteError{Kind: KindIO, Err: err}
			}
		}
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &WriteError{Kind: KindIO, Err: err}
	}
	return nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, perm)
}
