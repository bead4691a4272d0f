package manifest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mholt/archiver/v4"
)

// Common errors returned by the extractor.
var (
	ErrNoArchivePath     = errors.New("archive path is required")
	ErrArchiveNotFound   = errors.New("archive file not found")
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	ErrExtractionFailed  = errors.New("extraction failed")
)

// Extractor extracts file manifests from mod archives.
type Extractor struct{}

// NewExtractor creates a new manifest extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractOptions controls the single archive-walking pass ExtractManifest
// performs. WithHashes and Filter are independent: a filter narrows which
// entries are kept, WithHashes controls whether kept entries get a content
// hash, so either can be used alone or together without walking the
// archive twice.
type ExtractOptions struct {
	// WithHashes computes a SHA-256 content hash per kept entry. This reads
	// every kept file's bytes, not just the directory listing, so it costs
	// more than a bare manifest.
	WithHashes bool
	// Filter, when non-nil, drops entries it returns false for before they
	// ever reach Hash computation or the result slice.
	Filter func(FileEntry) bool
}

// ExtractManifest walks archivePath once, identifying its format via
// archiver.Identify and extracting its directory listing via
// archiver.Extractor, applying opts along the way. This single pass
// replaces what used to be three separate directory walks (bare manifest,
// manifest-with-hashes, filtered manifest) — callers that want hashes,
// filtering, both, or neither all drive the same walk.
func (e *Extractor) ExtractManifest(ctx context.Context, archivePath string, opts ExtractOptions) (*Manifest, error) {
	if archivePath == "" {
		return nil, ErrNoArchivePath
	}

	if _, err := os.Stat(archivePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, archivePath)
	}

	file, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	format, input, err := archiver.Identify(ctx, archivePath, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	extractor, ok := format.(archiver.Extractor)
	if !ok {
		return nil, fmt.Errorf("%w: format does not support extraction", ErrUnsupportedFormat)
	}

	var entries []FileEntry

	err = extractor.Extract(ctx, input, func(ctx context.Context, f archiver.FileInfo) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if f.IsDir() {
			return nil
		}

		entry := NewFileEntry(f.NameInArchive, f.Size())

		if opts.Filter != nil && !opts.Filter(entry) {
			return nil
		}

		if opts.WithHashes {
			if rc, err := f.Open(); err == nil {
				defer rc.Close()
				hash := sha256.New()
				if _, err := io.Copy(hash, rc); err == nil {
					entry.Hash = hex.EncodeToString(hash.Sum(nil))
				}
				// A read failure leaves entry.Hash as the path hash
				// NewFileEntry already set — still usable for dedup by path.
			}
		}

		entries = append(entries, entry)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	return NewManifest(entries), nil
}

// FilterByType returns a filter function that matches files of the given type.
func FilterByType(fileType FileType) func(FileEntry) bool {
	return func(entry FileEntry) bool {
		return entry.Type == fileType
	}
}

// FilterByExtension returns a filter function that matches files with the given extension.
func FilterByExtension(extension string) func(FileEntry) bool {
	return func(entry FileEntry) bool {
		return entry.Extension == extension
	}
}

// FilterByDirectory returns a filter function that matches files in the given directory.
func FilterByDirectory(directory string) func(FileEntry) bool {
	normalizedDir := NormalizePath(directory)
	return func(entry FileEntry) bool {
		return entry.Directory == normalizedDir
	}
}

// FilterByPathPrefix returns a filter function that matches files with paths starting with prefix.
func FilterByPathPrefix(prefix string) func(FileEntry) bool {
	normalizedPrefix := NormalizePath(prefix)
	return func(entry FileEntry) bool {
		return len(entry.Path) >= len(normalizedPrefix) &&
			entry.Path[:len(normalizedPrefix)] == normalizedPrefix
	}
}
