package parser

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ArchivePath returns the archive that ArchiveDir produces for dir: a zip
// file next to it with the same base name.
func ArchivePath(dir string) string {
	return filepath.Clean(dir) + ".zip"
}

// ArchiveDir compresses dir into ArchivePath(dir). Entries are stored under
// the directory's base name so the archive unpacks into a single folder.
// An existing archive with the same name is replaced. Unfinished ".part"
// files and IncompleteMarker flags are left out.
func ArchiveDir(dir string) (string, error) {
	dir = filepath.Clean(dir)
	target := ArchivePath(dir)

	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to remove existing archive: %w", err)
	}

	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	zw := zip.NewWriter(out)
	root := filepath.Base(dir)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(filepath.Join(root, rel))

		if d.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}
		if strings.HasSuffix(path, ".part") || d.Name() == IncompleteMarker {
			return nil
		}
		return addFileToZip(zw, path, name)
	})

	closeErr := zw.Close()
	if err := out.Close(); err != nil && closeErr == nil {
		closeErr = err
	}

	if walkErr != nil || closeErr != nil {
		os.Remove(target)
		if walkErr != nil {
			return "", fmt.Errorf("failed to archive %s: %w", dir, walkErr)
		}
		return "", fmt.Errorf("failed to finalize archive: %w", closeErr)
	}

	return target, nil
}

func addFileToZip(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Printf("[Archive] error closing %s: %v", path, cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, f)
	return err
}
