// Package redarchive parses the RED engine's .archive binary container
// (spec §4.3, C3). Only metadata is read — file bodies are never needed for
// conflict detection — so the parser reads the fixed header and hash table
// lazily and never touches the bulk of the file.
package redarchive

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/engineerr"
)

// Magic is the 4-byte signature every valid .archive container starts with.
// ("RDAR" — RED archive.)
var Magic = [4]byte{'R', 'D', 'A', 'R'}

const (
	headerSize     = 40 // magic(4) + version(4) + indexOffset(8) + indexSize(4) + fileSize(8) + reserved(12)
	hashEntrySize  = 40 // 64-bit resource hash + 20-byte SHA1 + 12 unused bytes
	sha1Len        = 20
)

// Header is the container's fixed header.
type Header struct {
	Version     uint32
	IndexOffset uint64
	IndexSize   uint32
	FileSize    uint64
}

// Entry is one hash-table record: a resource's content hash and its SHA1.
type Entry struct {
	ResourceHash uint64
	SHA1         [sha1Len]byte
}

// Archive is a parsed .archive container's metadata.
type Archive struct {
	Header  Header
	Entries []Entry
}

// ErrBadMagic is returned when the file does not start with the RDAR magic.
var ErrBadMagic = fmt.Errorf("not a RED archive container")

// ParseFile opens path and parses its header and hash table.
func ParseFile(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, engineerr.FilesystemErr("open archive container", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the fixed header and hash table from r. r must support
// random access via io.ReaderAt semantics through io.ReadSeeker; only the
// header and the index region are read, never the resource bodies.
func Parse(r io.ReadSeeker) (*Archive, error) {
	var magicBuf [4]byte
	if _, err := io.ReadFull(r, magicBuf[:]); err != nil {
		return nil, engineerr.FormatErr("read archive magic", err)
	}
	if magicBuf != Magic {
		return nil, engineerr.FormatErr("verify archive magic", ErrBadMagic)
	}

	rest := make([]byte, headerSize-4)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, engineerr.FormatErr("read archive header", err)
	}

	hdr := Header{
		Version:     binary.LittleEndian.Uint32(rest[0:4]),
		IndexOffset: binary.LittleEndian.Uint64(rest[4:12]),
		IndexSize:   binary.LittleEndian.Uint32(rest[12:16]),
		FileSize:    binary.LittleEndian.Uint64(rest[16:24]),
	}

	if hdr.IndexSize%hashEntrySize != 0 {
		return nil, engineerr.FormatErr("parse archive index",
			fmt.Errorf("index size %d is not a multiple of entry size %d", hdr.IndexSize, hashEntrySize))
	}

	if _, err := r.Seek(int64(hdr.IndexOffset), io.SeekStart); err != nil {
		return nil, engineerr.FormatErr("seek to archive index", err)
	}

	count := int(hdr.IndexSize) / hashEntrySize
	entries := make([]Entry, 0, count)
	buf := make([]byte, hashEntrySize)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, engineerr.FormatErr("read archive hash entry", err)
		}
		var e Entry
		e.ResourceHash = binary.LittleEndian.Uint64(buf[0:8])
		copy(e.SHA1[:], buf[8:8+sha1Len])
		entries = append(entries, e)
	}

	return &Archive{Header: hdr, Entries: entries}, nil
}
