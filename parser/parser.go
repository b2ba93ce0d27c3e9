package parser

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// IncompleteMarker is created in an episode folder when its download starts
// and removed once the episode finishes. A folder that still carries it was
// interrupted and must be downloaded again.
const IncompleteMarker = ".incomplete"

// MarkIncomplete flags dir as an episode download in progress.
func MarkIncomplete(dir string) error {
	return os.WriteFile(filepath.Join(dir, IncompleteMarker), nil, 0644)
}

// ClearIncomplete removes the in-progress flag from dir.
func ClearIncomplete(dir string) error {
	err := os.Remove(filepath.Join(dir, IncompleteMarker))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// EpisodeComplete reports whether dir holds a finished episode: at least one
// finished file and no in-progress flag.
func EpisodeComplete(dir string) (bool, error) {
	has, err := DirHasFiles(dir)
	if err != nil || !has {
		return false, err
	}

	_, err = os.Stat(filepath.Join(dir, IncompleteMarker))
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// DirHasFiles reports whether dir exists and contains at least one finished
// file. Leftover ".part" files from an interrupted write and the
// IncompleteMarker do not count.
func DirHasFiles(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	for _, entry := range entries {
		if !entry.IsDir() && !strings.HasSuffix(entry.Name(), ".part") && entry.Name() != IncompleteMarker {
			return true, nil
		}
	}
	return false, nil
}

// CountImages returns the number of finished image files in dir.
func CountImages(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), "img_") && !strings.HasSuffix(entry.Name(), ".part") {
			count++
		}
	}
	return count
}

// ExpandPath expands ~ to the user's home directory, or returns the path as-is
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, strings.TrimPrefix(path[1:], "/")), nil
	}
	return path, nil
}
