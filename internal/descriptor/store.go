package descriptor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// BackupSuffix derives the backup path for a foreign original that was found
// at a descriptor path.
const BackupSuffix = ".depstage-backup"

func backupPath(path string) string {
	return path + BackupSuffix
}

// Store is the file-system boundary of the patcher. Writes are atomic: a
// partially written descriptor must never be observable, and on any error the
// prior on-disk state stays untouched.
type Store interface {
	// Read returns the file content and whether the file exists.
	Read(path string) ([]byte, bool, error)
	WriteAtomic(path string, data []byte) error
	Rename(oldPath, newPath string) error
	Remove(path string) error
	Exists(path string) bool
}

// FSStore is the real file-system Store.
type FSStore struct{}

func (FSStore) Read(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read descriptor %s: %w", path, err)
	}
	return data, true, nil
}

func (FSStore) WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create descriptor directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("stage descriptor write: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("stage descriptor write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("stage descriptor write: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit descriptor write: %w", err)
	}
	return nil
}

func (FSStore) Rename(oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("rename %s: %w", oldPath, err)
	}
	return nil
}

func (FSStore) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (FSStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
