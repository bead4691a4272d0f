package install

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/engineerr"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/redarchive"
)

// ArchiveReader opens a staged archive's entry listing and reads individual
// entry bytes. Implementations wrap internal/archive.Extractor (C2).
type ArchiveReader interface {
	ListEntries(archivePath string) ([]ArchiveEntry, error)
	ReadEntry(archivePath, entryPath string) (io.ReadCloser, error)
}

// FileWriter performs the actual filesystem mutation for one install,
// uninstall, or toggle call.
type FileWriter interface {
	WriteFile(relPath string, r io.Reader) (int64, error)
	Remove(relPath string) error
	Rename(oldRelPath, newRelPath string) error
	Exists(relPath string) (bool, error)
	// RemoveEmptyDirs removes dir and any now-empty ancestor up to (not
	// including) the game root.
	RemoveEmptyDirs(dir string) error
	// ReadSeeker reopens a just-written path for the C8 archive-index pass.
	ReadSeeker(relPath string) (io.ReadSeeker, error)
}

// Store persists InstalledMod rows and the archive-entry index. Callers
// wire this to whatever storage layer they use; Installer only calls it
// after the filesystem mutation has already succeeded (filesystem first,
// database second — spec §4.10).
type Store interface {
	InstalledMods(gameID int64) ([]model.InstalledMod, error)
	CreateInstalledMod(mod model.InstalledMod) (int64, error)
	DeleteInstalledMod(id int64) error
	DeleteInstalledModFile(installedModID int64, relativePath string) error
	ReplaceArchiveIndex(gameID, installedModID int64, entries []model.ArchiveEntryIndex) error
	DeleteArchiveIndex(gameID, installedModID int64) error
}

// Installer wires together archive reading, filesystem mutation, and
// persistence for the four C10 operations.
type Installer struct {
	Reader ArchiveReader
	Writer FileWriter
	Store  Store
	Clock  func() time.Time
}

func NewInstaller(r ArchiveReader, w FileWriter, s Store) *Installer {
	return &Installer{Reader: r, Writer: w, Store: s, Clock: time.Now}
}

// InstallResult reports the counters spec step 5 requires.
type InstallResult struct {
	InstalledModID int64
	Extracted      int
	Skipped        int
	Overwritten    int
}

// InstallRequest carries the decisions C1-C4 already made about one staged
// archive, plus the caller-supplied renames/skip set (from a FOMOD plan or
// manual override).
type InstallRequest struct {
	GameID      int64
	GameRoot    string
	ArchivePath string
	Name        string
	Version     string
	NexusModID  int64
	NexusFileID int64
	StripPrefix string // layout.Result.StripPrefix, empty for STANDARD
	Renames     map[string]string
	Skip        map[string]bool
	// MaxEntrySize rejects any single extracted entry larger than this.
	// Zero means unlimited.
	MaxEntrySize int64
}

// Install implements the 8-step procedure from spec §4.10. Archive opening
// (C2) and layout detection (C4) are assumed to have already happened;
// req.StripPrefix carries their outcome. FOMOD archives must be rejected
// by the caller before calling Install — this function has no FOMOD
// knowledge.
func (in *Installer) Install(req InstallRequest) (InstallResult, error) {
	existing, err := in.Store.InstalledMods(req.GameID)
	if err != nil {
		return InstallResult{}, err
	}
	ownership := BuildOwnershipMap(existing)

	entries, err := in.Reader.ListEntries(req.ArchivePath)
	if err != nil {
		return InstallResult{}, err
	}

	survivors, skipped, err := FilterEntries(entries, FilterOptions{
		StripPrefix: req.StripPrefix,
		Renames:     req.Renames,
		Skip:        req.Skip,
		GameRoot:    req.GameRoot,
	})
	if err != nil {
		return InstallResult{}, err
	}

	sizeByPath := make(map[string]int64, len(entries))
	for _, e := range entries {
		sizeByPath[e.Path] = e.Size
	}

	var (
		extracted   int
		overwritten int
		files       []model.InstalledModFile
		transfers   []string // paths whose prior owner's InstalledModFile row must be deleted
	)

	for _, s := range survivors {
		if req.MaxEntrySize > 0 && sizeByPath[s.ArchivePath] > req.MaxEntrySize {
			return InstallResult{}, engineerr.InvalidInput(fmt.Sprintf(
				"entry %s is %s, exceeding the %s limit",
				s.DestPath, humanize.Bytes(uint64(sizeByPath[s.ArchivePath])), humanize.Bytes(uint64(req.MaxEntrySize))))
		}
		rc, err := in.Reader.ReadEntry(req.ArchivePath, s.ArchivePath)
		if err != nil {
			return InstallResult{}, err
		}
		size, err := in.Writer.WriteFile(s.DestPath, rc)
		rc.Close()
		if err != nil {
			return InstallResult{}, engineerr.FilesystemErr("write extracted file "+s.DestPath, err)
		}

		if _, owned := ownership.Owner(s.DestPath); owned {
			overwritten++
			transfers = append(transfers, s.DestPath)
		} else {
			extracted++
		}

		files = append(files, model.InstalledModFile{RelativePath: s.DestPath, Size: size})
	}

	// Step 6: atomic ownership transfer for every overwritten path.
	for _, path := range transfers {
		priorOwner := ownership[normalizePath(path)]
		if err := in.Store.DeleteInstalledModFile(priorOwner, path); err != nil {
			return InstallResult{}, err
		}
	}

	mod := model.InstalledMod{
		GameID:           req.GameID,
		Name:             req.Name,
		SourceArchive:    req.ArchivePath,
		InstalledVersion: req.Version,
		NexusModID:       req.NexusModID,
		NexusFileID:      req.NexusFileID,
		InstalledAt:      in.Clock(),
		Files:            files,
	}

	id, err := in.Store.CreateInstalledMod(mod)
	if err != nil {
		return InstallResult{}, err
	}

	// Step 8: index any newly extracted .archive files.
	var indexEntries []model.ArchiveEntryIndex
	for _, f := range files {
		if !strings.HasSuffix(strings.ToLower(f.RelativePath), ".archive") {
			continue
		}
		rs, err := in.Writer.ReadSeeker(f.RelativePath)
		if err != nil {
			continue // best-effort; index rebuild on next scan will catch it
		}
		idx, err := IndexArchiveFile(req.GameID, id, filepath.Base(f.RelativePath), rs)
		if closer, ok := rs.(io.Closer); ok {
			closer.Close()
		}
		if err != nil {
			continue
		}
		indexEntries = append(indexEntries, idx...)
	}
	if len(indexEntries) > 0 {
		if err := in.Store.ReplaceArchiveIndex(req.GameID, id, indexEntries); err != nil {
			return InstallResult{}, err
		}
	}

	return InstallResult{InstalledModID: id, Extracted: extracted, Skipped: skipped, Overwritten: overwritten}, nil
}

// Uninstall deletes every path an InstalledMod owns (or its .disabled
// sibling if the mod is currently disabled), prunes now-empty parent
// directories up to the game root, removes the archive index, and deletes
// the InstalledMod row.
func (in *Installer) Uninstall(mod model.InstalledMod) error {
	for _, f := range mod.Files {
		path := f.RelativePath
		if mod.Disabled {
			path += ".disabled"
		}
		exists, err := in.Writer.Exists(path)
		if err != nil {
			return engineerr.FilesystemErr("stat owned path "+path, err)
		}
		if !exists {
			continue
		}
		if err := in.Writer.Remove(path); err != nil {
			return engineerr.FilesystemErr("remove owned path "+path, err)
		}
		if err := in.Writer.RemoveEmptyDirs(filepath.Dir(path)); err != nil {
			return engineerr.FilesystemErr("prune empty directories under "+path, err)
		}
	}

	if err := in.Store.DeleteArchiveIndex(mod.GameID, mod.ID); err != nil {
		return err
	}
	return in.Store.DeleteInstalledMod(mod.ID)
}

// Toggle enables or disables an InstalledMod by renaming every owned path
// to or from its .disabled sibling. Bytes are never moved — a disable
// followed by an enable restores the original path exactly.
func (in *Installer) Toggle(mod model.InstalledMod, disable bool) error {
	renamed := 0
	for _, f := range mod.Files {
		var oldPath, newPath string
		if disable {
			oldPath, newPath = f.RelativePath, f.RelativePath+".disabled"
		} else {
			oldPath, newPath = f.RelativePath+".disabled", f.RelativePath
		}
		if err := in.Writer.Rename(oldPath, newPath); err != nil {
			// Roll back everything renamed so far.
			for i := renamed - 1; i >= 0; i-- {
				prior := mod.Files[i]
				if disable {
					in.Writer.Rename(prior.RelativePath+".disabled", prior.RelativePath)
				} else {
					in.Writer.Rename(prior.RelativePath, prior.RelativePath+".disabled")
				}
			}
			return engineerr.FilesystemErr("toggle owned path "+oldPath, err)
		}
		renamed++
	}
	return nil
}

// DeleteOrphanedArchives drops staged archive filenames that neither an
// InstalledMod.SourceArchive nor an active download job references.
func DeleteOrphanedArchives(stagedArchives []string, referenced map[string]bool, remove func(path string) error) ([]string, error) {
	var deleted []string
	names := append([]string(nil), stagedArchives...)
	sort.Strings(names)
	for _, path := range names {
		if referenced[filepath.Base(path)] {
			continue
		}
		if err := remove(path); err != nil {
			return deleted, err
		}
		deleted = append(deleted, path)
	}
	return deleted, nil
}

// IndexArchiveFile parses a freshly extracted .archive container's hash
// table and builds the per-entry index rows for C8's conflict detection.
func IndexArchiveFile(gameID, installedModID int64, archiveFilename string, r io.ReadSeeker) ([]model.ArchiveEntryIndex, error) {
	archive, err := redarchive.Parse(r)
	if err != nil {
		return nil, err
	}
	out := make([]model.ArchiveEntryIndex, 0, len(archive.Entries))
	for _, e := range archive.Entries {
		out = append(out, model.ArchiveEntryIndex{
			GameID:              gameID,
			InstalledModID:      installedModID,
			ArchiveFilename:     archiveFilename,
			ArchiveRelativePath: archiveFilename,
			ResourceHash:        e.ResourceHash,
			SHA1:                e.SHA1,
		})
	}
	return out, nil
}
