// Package catalog is the client contract a mod catalog (Nexus Mods or a
// compatible service) must satisfy for the engine's correlation, update,
// and install-time download flows (spec §6). Wire format is explicitly out
// of scope for the core; this package provides one concrete REST-ish
// implementation alongside the Client interface so callers can substitute a
// fake in tests.
package catalog

import (
	"context"
	"time"
)

// KeyInfo is the result of validating an API key.
type KeyInfo struct {
	Valid     bool
	Username  string
	IsPremium bool
}

// TrackedRef identifies a mod the user tracks or has endorsed.
type TrackedRef struct {
	ModID  int64
	Domain string
}

// ModInfo is catalog metadata for one mod.
type ModInfo struct {
	Name              string
	Version           string
	Author            string
	Summary           string
	Description       string
	EndorsementCount  int
	UpdatedTimestamp  int64
	CategoryID        int
	PictureURL        string
}

// FileUpdate records a Nexus file-ID migration (old file superseded by new).
type FileUpdate struct {
	OldFileID int64
	NewFileID int64
}

// ModFile is one downloadable file belonging to a mod.
type ModFile struct {
	FileID            int64
	FileName          string
	Version           string
	CategoryID        int
	UploadedTimestamp int64
	FileSize          int64
}

// ModFilesResult is the response shape of get_mod_files.
type ModFilesResult struct {
	Files       []ModFile
	FileUpdates []FileUpdate
}

// MD5SearchHit is one result row from an md5_search call.
type MD5SearchHit struct {
	ModID      int64
	ModName    string
	FileID     int64
	FileName   string
	Version    string
}

// UpdatedModRef is one row from get_updated_mods.
type UpdatedModRef struct {
	ModID            int64
	LatestFileUpdate int64
}

// DownloadLink is one candidate URI for a file download.
type DownloadLink struct {
	URI string
}

// RateLimit is surfaced to the caller after every call (spec §6).
type RateLimit struct {
	HourlyLimit     int
	HourlyRemaining int
	DailyLimit      int
	DailyRemaining  int
	ObservedAt      time.Time
}

// UpdatePeriod is the window get_updated_mods accepts.
type UpdatePeriod string

const (
	Period1Day  UpdatePeriod = "1d"
	Period1Week UpdatePeriod = "1w"
	Period1Mo   UpdatePeriod = "1m"
)

// Client is the catalog contract spec §6 requires. Every method's
// behaviour, not its wire format, is specified.
type Client interface {
	ValidateKey(ctx context.Context) (KeyInfo, error)
	GetTrackedMods(ctx context.Context) ([]TrackedRef, error)
	GetEndorsements(ctx context.Context) ([]TrackedRef, error)
	GetModInfo(ctx context.Context, domain string, modID int64) (ModInfo, error)
	GetModFiles(ctx context.Context, domain string, modID int64, category string) (ModFilesResult, error)
	MD5Search(ctx context.Context, domain, md5 string) ([]MD5SearchHit, error)
	GetUpdatedMods(ctx context.Context, domain string, period UpdatePeriod) ([]UpdatedModRef, error)
	GetDownloadLinks(ctx context.Context, domain string, modID, fileID int64, nxmKey string, nxmExpires int64) ([]DownloadLink, error)
	Endorse(ctx context.Context, domain string, modID int64) (bool, error)
	Abstain(ctx context.Context, domain string, modID int64) (bool, error)
	Track(ctx context.Context, domain string, modID int64) (bool, error)
	Untrack(ctx context.Context, domain string, modID int64) (bool, error)

	// LastRateLimit returns the rate-limit snapshot observed on the most
	// recent call, or the zero value if no call has happened yet.
	LastRateLimit() RateLimit
}
