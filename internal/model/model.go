// Package model holds the engine's core data entities (spec §3). These are
// plain structs — persistence, the HTTP API, and the storage schema are all
// out of scope (spec §1); components operate on these values in memory and
// whatever thin adapter a caller wires up is responsible for durability.
package model

import "time"

// Game is a configured target: a stable name, a catalog-domain identifier,
// a filesystem root, and an ordered set of mod-paths.
type Game struct {
	ID           int64
	Name         string
	CatalogDomain string
	InstallPath  string
	ModPaths     []string // e.g. archive/pc/mod, r6/scripts, r6/tweaks, bin/x64/plugins, mods
}

// KnownRoots are the top-level directories the layout detector recognises
// for the concrete target (Cyberpunk 2077).
var KnownRoots = []string{"archive", "bin", "red4ext", "r6", "mods"}

// ModFile is one on-disk file under a mod-path. Created by the scanner,
// replaced wholesale on rescan.
type ModFile struct {
	GameID       int64
	RelativePath string
	Size         int64
	ModGroupID   int64 // 0 if ungrouped
}

// ModGroup is a cluster of ModFiles representing one logical mod.
// Invariant: every ModFile belongs to at most one ModGroup per game.
type ModGroup struct {
	ID          int64
	GameID      int64
	DisplayName string
	Confidence  float64 // in [0,1]
	Files       []ModFile
}

// InstalledMod is a mod the installer has extracted into the game tree.
type InstalledMod struct {
	ID               int64
	GameID           int64
	Name             string // unique per game
	SourceArchive    string // possibly empty
	Disabled         bool
	InstalledVersion string
	NexusModID       int64 // 0 if unset
	NexusFileID      int64 // 0 if unset
	UploadTimestamp  *time.Time
	InstalledAt      time.Time
	Files            []InstalledModFile
}

// InstalledModFile is one extracted path owned by an InstalledMod.
//
// Invariants (spec §3): (a) every extracted path on disk is owned by
// exactly one InstalledMod at a time; (b) when the owning mod is disabled,
// the path exists on disk with a .disabled suffix, never both.
type InstalledModFile struct {
	InstalledModID int64
	RelativePath   string
	Size           int64
}

// NexusModFileCategory enumerates catalog file categories.
type NexusModFileCategory int

const (
	CategoryMain        NexusModFileCategory = 1
	CategoryUpdate      NexusModFileCategory = 2
	CategoryOptional    NexusModFileCategory = 3
	CategoryOldVersion  NexusModFileCategory = 4
	CategoryDeleted     NexusModFileCategory = 6
	CategoryArchived    NexusModFileCategory = 7
)

// NexusDownload is a catalog entry the system has learned about.
type NexusDownload struct {
	GameID      int64
	NexusModID  int64 // unique per game
	ModName     string
	FileName    string
	FileID      int64
	Version     string // captured at discovery, never overwritten by later refreshes
	IsTracked   bool
	IsEndorsed  bool
}

// NexusModMeta holds richer catalog metadata for one nexus_mod_id,
// refreshed independently of NexusDownload.Version.
type NexusModMeta struct {
	GameID          int64
	NexusModID      int64
	Author          string
	Summary         string
	Description     string
	UpdatedAt       time.Time
	EndorsementCount int64
	PictureURL      string
}

// NexusModFile is one file known to exist on a mod's catalog page.
type NexusModFile struct {
	NexusModID       int64
	FileID           int64
	FileName         string
	Version          string
	CategoryID       NexusModFileCategory
	UploadedTimestamp time.Time
	FileSize         int64
}

// CorrelationMethod enumerates how a ModNexusCorrelation was established.
type CorrelationMethod string

const (
	MethodExact        CorrelationMethod = "exact"
	MethodSubstring    CorrelationMethod = "substring"
	MethodFuzzy        CorrelationMethod = "fuzzy"
	MethodFilenameID   CorrelationMethod = "filename_id"
	MethodMD5          CorrelationMethod = "md5"
	MethodFileList     CorrelationMethod = "file_list"
	MethodFomod        CorrelationMethod = "fomod"
	MethodEndorsedName CorrelationMethod = "endorsed_name"
	MethodWebSearch    CorrelationMethod = "web_search"
	MethodAISearch     CorrelationMethod = "ai_search"
	MethodManual       CorrelationMethod = "manual"
)

// ModNexusCorrelation links a ModGroup to a NexusDownload.
//
// Invariants (spec §3): (a) at most one correlation per (mod_group,
// nexus_mod); (b) a confirmed_by_user=true correlation is never
// auto-mutated; (c) when multiple ModGroups correlate to the same
// nexus_mod_id, only the highest-scoring one is surfaced.
type ModNexusCorrelation struct {
	ModGroupID      int64
	NexusModID      int64
	Score           float64 // in [0,1]
	Method          CorrelationMethod
	ConfirmedByUser bool
	Reasoning       string
}

// ArchiveEntryIndex is one file-entry inside a RED .archive on disk.
// Lifecycle: populated after install, removed on uninstall, rebuilt on scan.
type ArchiveEntryIndex struct {
	GameID              int64
	InstalledModID      int64 // 0 if unmanaged
	ArchiveFilename      string
	ArchiveRelativePath  string
	ResourceHash        uint64
	SHA1                [20]byte
}

// ConflictKind enumerates the kind of collided resource spec §3 names.
type ConflictKind string

const (
	ConflictArchiveResource ConflictKind = "archive_resource"
	ConflictArchiveEntry    ConflictKind = "archive_entry"
	ConflictRedscriptTarget ConflictKind = "redscript_target"
	ConflictTweakKey        ConflictKind = "tweak_key"
)

// Severity is one of the three levels spec §3/§7 name.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ConflictEvidence is one detected conflict. Rebuilt end-to-end on each
// conflict scan; never partially updated.
type ConflictEvidence struct {
	GameID       int64
	Kind         ConflictKind
	Severity     Severity
	Key          string // names the collided resource/path/symbol
	ModIDs       []int64
	WinnerModID  *int64 // nil when the winner is genuinely ambiguous (spec §9 open question)
	Detail       string // JSON-ish payload
}

// LoadOrderPreference is a directed edge "winner must load before loser"
// within one game.
//
// Invariant: adding A>B removes any pre-existing B>A; duplicates are
// idempotent.
type LoadOrderPreference struct {
	ID            string // uuid
	GameID        int64
	WinnerModID   int64
	LoserModID    int64
}

// Profile is a named set of (installed_mod, enabled) bindings.
type Profile struct {
	ID      string
	GameID  int64
	Name    string
	Entries []ProfileEntry
}

// ProfileEntry binds one InstalledMod to an enabled/disabled state within a Profile.
type ProfileEntry struct {
	InstalledModID int64
	Enabled        bool
}
