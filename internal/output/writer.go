// Package output persists the generated sitemap.
package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrDestinationWrite wraps every failure to persist the document.
var ErrDestinationWrite = errors.New("destination write failed")

const filePerm = 0o644

// Writer replaces the destination file with new content.
type Writer struct {
	atomic bool
}

// NewWriter creates a writer. With atomic set, content goes to a temporary
// file in the destination directory that is renamed over the destination, so
// readers never see a truncated sitemap. Otherwise the destination is
// truncated and written in place.
func NewWriter(atomic bool) *Writer {
	return &Writer{atomic: atomic}
}

// WriteFile replaces path with data. The parent directory must already exist.
func (w *Writer) WriteFile(path string, data []byte) error {
	var err error
	if w.atomic {
		err = writeAtomic(path, data)
	} else {
		err = os.WriteFile(path, data, filePerm)
	}

	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDestinationWrite, path, err)
	}

	return nil
}

func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}

	if err = tmp.Sync(); err != nil {
		return err
	}

	if err = tmp.Chmod(filePerm); err != nil {
		return err
	}

	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
