package store

import (
	"os"
	"path/filepath"
)

// Blob is a single key-value slot holding the serialized session list. Every
// Save replaces the previous contents wholesale.
type Blob interface {
	// Load returns the stored bytes, or ok=false when nothing was stored yet.
	Load() (data []byte, ok bool, err error)
	Save(data []byte) error
}

// FileBlob stores the blob in a single file, replacing it atomically via a
// temp file and rename so a crash mid-write never leaves a corrupt blob.
type FileBlob struct {
	path string
}

func NewFileBlob(path string) *FileBlob {
	return &FileBlob{path: path}
}

func (b *FileBlob) Load() ([]byte, bool, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (b *FileBlob) Save(data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".sessions-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, b.path)
}
