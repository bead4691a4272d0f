package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/archive"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/install"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/profile"
)

// newToggler adapts internal/install.Installer.Toggle to
// internal/profile.Toggler, so loading a profile flips the same
// .disabled-suffix renames C10's toggle operation performs directly.
func newToggler(writer install.FileWriter) profile.Toggler {
	installer := install.NewInstaller(nil, writer, db)
	return func(mod model.InstalledMod, disable bool) error {
		return installer.Toggle(mod, disable)
	}
}

// stagedArchiveReader adapts internal/archive.Extractor to
// internal/install.ArchiveReader: it extracts a staged archive to a temp
// directory once per archive path and serves entries from there.
type stagedArchiveReader struct {
	extractor *archive.Extractor
	outputDir map[string]string
}

func newStagedArchiveReader(e *archive.Extractor) *stagedArchiveReader {
	return &stagedArchiveReader{extractor: e, outputDir: make(map[string]string)}
}

func (r *stagedArchiveReader) stage(archivePath string) (string, error) {
	if dir, ok := r.outputDir[archivePath]; ok {
		return dir, nil
	}
	result, err := r.extractor.Extract(context.Background(), archivePath)
	if err != nil {
		return "", err
	}
	r.outputDir[archivePath] = result.OutputDir
	return result.OutputDir, nil
}

func (r *stagedArchiveReader) ListEntries(archivePath string) ([]install.ArchiveEntry, error) {
	dir, err := r.stage(archivePath)
	if err != nil {
		return nil, err
	}

	var entries []install.ArchiveEntry
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		entries = append(entries, install.ArchiveEntry{
			Path:  filepath.ToSlash(rel),
			IsDir: info.IsDir(),
			Size:  info.Size(),
		})
		return nil
	})
	return entries, err
}

func (r *stagedArchiveReader) ReadEntry(archivePath, entryPath string) (io.ReadCloser, error) {
	dir, err := r.stage(archivePath)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(dir, filepath.FromSlash(entryPath)))
}

func (r *stagedArchiveReader) cleanup() {
	for _, dir := range r.outputDir {
		os.RemoveAll(dir)
	}
}

// gameRootWriter adapts direct filesystem operations rooted at the game
// install directory to internal/install.FileWriter.
type gameRootWriter struct {
	root string
}

func newGameRootWriter(root string) *gameRootWriter {
	return &gameRootWriter{root: root}
}

func (w *gameRootWriter) abs(relPath string) (string, error) {
	clean := filepath.Clean(filepath.Join(w.root, filepath.FromSlash(relPath)))
	rootClean := filepath.Clean(w.root)
	if clean != rootClean && !strings.HasPrefix(clean, rootClean+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes game root: %s", relPath)
	}
	return clean, nil
}

func (w *gameRootWriter) WriteFile(relPath string, r io.Reader) (int64, error) {
	dest, err := w.abs(relPath)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, err
	}
	f, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(f, r)
}

func (w *gameRootWriter) Remove(relPath string) error {
	dest, err := w.abs(relPath)
	if err != nil {
		return err
	}
	return os.Remove(dest)
}

func (w *gameRootWriter) Rename(oldRelPath, newRelPath string) error {
	oldDest, err := w.abs(oldRelPath)
	if err != nil {
		return err
	}
	newDest, err := w.abs(newRelPath)
	if err != nil {
		return err
	}
	return os.Rename(oldDest, newDest)
}

func (w *gameRootWriter) Exists(relPath string) (bool, error) {
	dest, err := w.abs(relPath)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(dest); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (w *gameRootWriter) RemoveEmptyDirs(dir string) error {
	current, err := w.abs(dir)
	if err != nil {
		return err
	}
	rootClean := filepath.Clean(w.root)
	for current != rootClean {
		entries, err := os.ReadDir(current)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if len(entries) > 0 {
			return nil
		}
		if err := os.Remove(current); err != nil {
			return err
		}
		current = filepath.Dir(current)
	}
	return nil
}

func (w *gameRootWriter) ReadSeeker(relPath string) (io.ReadSeeker, error) {
	dest, err := w.abs(relPath)
	if err != nil {
		return nil, err
	}
	return os.Open(dest)
}
