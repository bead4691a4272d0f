package install

import (
	"path/filepath"
	"strings"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/engineerr"
)

// ArchiveEntry is one entry in a staged archive's listing, as produced by
// C2 (archive opening). Directories and files are both present; Filter
// drops directories.
type ArchiveEntry struct {
	Path  string // path within the archive, as read from the archive listing
	IsDir bool
	Size  int64
}

// FilterOptions configures FilterEntries for one install call.
type FilterOptions struct {
	// StripPrefix is the WRAPPED wrapper folder to remove (layout.Result.StripPrefix),
	// empty for a STANDARD layout.
	StripPrefix string
	// Renames maps a post-strip relative path to its caller-supplied replacement.
	Renames map[string]string
	// Skip is a caller-supplied set of post-strip, post-rename relative paths to drop.
	Skip map[string]bool
	// GameRoot is the installation root every destination path must resolve under.
	GameRoot string
}

// FilteredEntry is one archive entry that survived filtering.
type FilteredEntry struct {
	ArchivePath string // original entry path, for reading the bytes out of the archive
	DestPath    string // relative path to write under GameRoot
}

// FilterEntries implements install step 4: drop directories, strip the
// WRAPPED prefix, apply renames, drop the skip set, and reject any entry
// whose destination resolves outside the game root. Returns the survivors
// plus the count of entries dropped (directories, entries outside the strip
// prefix, and explicit skips). An entry whose destination resolves outside
// the game root is not counted: it fails the whole call with an
// InvalidInput error.
func FilterEntries(entries []ArchiveEntry, opts FilterOptions) ([]FilteredEntry, int, error) {
	var survivors []FilteredEntry
	dropped := 0

	cleanRoot := filepath.Clean(opts.GameRoot)

	for _, e := range entries {
		if e.IsDir {
			dropped++
			continue
		}

		rel := filepath.ToSlash(e.Path)
		rel = strings.TrimPrefix(rel, "/")

		if opts.StripPrefix != "" {
			prefix := filepath.ToSlash(opts.StripPrefix) + "/"
			lowerRel, lowerPrefix := strings.ToLower(rel), strings.ToLower(prefix)
			if !strings.HasPrefix(lowerRel, lowerPrefix) {
				dropped++
				continue
			}
			rel = rel[len(prefix):]
		}

		if renamed, ok := opts.Renames[rel]; ok {
			rel = renamed
		}

		if opts.Skip[rel] {
			dropped++
			continue
		}

		destAbs := filepath.Join(cleanRoot, filepath.FromSlash(rel))
		destAbs = filepath.Clean(destAbs)
		if destAbs != cleanRoot && !strings.HasPrefix(destAbs, cleanRoot+string(filepath.Separator)) {
			return nil, 0, engineerr.InvalidInput("entry " + e.Path + " resolves outside the game root")
		}

		survivors = append(survivors, FilteredEntry{ArchivePath: e.Path, DestPath: rel})
	}

	return survivors, dropped, nil
}
