package app

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteArchive streams the named files from dir into w as a single zip
// archive, in the order given
func WriteArchive(w io.Writer, dir string, files []string) error {
	zw := zip.NewWriter(w)

	for _, name := range files {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", name, err)
		}

		entry, err := zw.Create(name)
		if err == nil {
			_, err = io.Copy(entry, f)
		}
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to archive %s: %w", name, err)
		}
	}

	return zw.Close()
}
