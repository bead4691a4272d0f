// Package store is the thin persistence adapter model.go's doc comment
// calls for: a SQLite-backed implementation of install.Store plus the
// extra tables cmd/modengine needs to keep installed mods, the archive
// entry index, load-order preferences, and profiles around between runs.
// Mirrors internal/cache's database/sql + modernc.org/sqlite idiom; no ORM.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

// Store is a SQLite-backed implementation of internal/install.Store, and
// also persists load-order preferences and profiles for cmd/modengine.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) the database file at path and ensures schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS installed_mods (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			source_archive TEXT NOT NULL DEFAULT '',
			disabled INTEGER NOT NULL DEFAULT 0,
			installed_version TEXT NOT NULL DEFAULT '',
			nexus_mod_id INTEGER NOT NULL DEFAULT 0,
			nexus_file_id INTEGER NOT NULL DEFAULT 0,
			upload_timestamp INTEGER,
			installed_at INTEGER NOT NULL,
			UNIQUE(game_id, name)
		);

		CREATE TABLE IF NOT EXISTS installed_mod_files (
			installed_mod_id INTEGER NOT NULL,
			relative_path TEXT NOT NULL,
			size INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (installed_mod_id, relative_path)
		);

		CREATE TABLE IF NOT EXISTS archive_entries (
			game_id INTEGER NOT NULL,
			installed_mod_id INTEGER NOT NULL DEFAULT 0,
			archive_filename TEXT NOT NULL,
			archive_relative_path TEXT NOT NULL,
			resource_hash INTEGER NOT NULL,
			sha1 BLOB NOT NULL,
			PRIMARY KEY (game_id, archive_filename, archive_relative_path)
		);

		CREATE INDEX IF NOT EXISTS idx_archive_entries_mod ON archive_entries(installed_mod_id);

		CREATE TABLE IF NOT EXISTS load_order_preferences (
			id TEXT PRIMARY KEY,
			game_id INTEGER NOT NULL,
			winner_mod_id INTEGER NOT NULL,
			loser_mod_id INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			game_id INTEGER NOT NULL,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS profile_entries (
			profile_id TEXT NOT NULL,
			installed_mod_id INTEGER NOT NULL,
			enabled INTEGER NOT NULL,
			PRIMARY KEY (profile_id, installed_mod_id)
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// InstalledMods returns every InstalledMod for a game, with files attached.
func (s *Store) InstalledMods(gameID int64) ([]model.InstalledMod, error) {
	rows, err := s.db.Query(`
		SELECT id, game_id, name, source_archive, disabled, installed_version,
		       nexus_mod_id, nexus_file_id, upload_timestamp, installed_at
		FROM installed_mods WHERE game_id = ? ORDER BY id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query installed_mods: %w", err)
	}
	defer rows.Close()

	var mods []model.InstalledMod
	for rows.Next() {
		var m model.InstalledMod
		var disabled int
		var uploadTS sql.NullInt64
		var installedAt int64
		if err := rows.Scan(&m.ID, &m.GameID, &m.Name, &m.SourceArchive, &disabled,
			&m.InstalledVersion, &m.NexusModID, &m.NexusFileID, &uploadTS, &installedAt); err != nil {
			return nil, fmt.Errorf("scan installed_mods: %w", err)
		}
		m.Disabled = disabled != 0
		m.InstalledAt = time.Unix(installedAt, 0).UTC()
		if uploadTS.Valid {
			t := time.Unix(uploadTS.Int64, 0).UTC()
			m.UploadTimestamp = &t
		}
		mods = append(mods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range mods {
		files, err := s.modFiles(mods[i].ID)
		if err != nil {
			return nil, err
		}
		mods[i].Files = files
	}
	return mods, nil
}

func (s *Store) modFiles(installedModID int64) ([]model.InstalledModFile, error) {
	rows, err := s.db.Query(`
		SELECT installed_mod_id, relative_path, size FROM installed_mod_files
		WHERE installed_mod_id = ? ORDER BY relative_path`, installedModID)
	if err != nil {
		return nil, fmt.Errorf("query installed_mod_files: %w", err)
	}
	defer rows.Close()

	var files []model.InstalledModFile
	for rows.Next() {
		var f model.InstalledModFile
		if err := rows.Scan(&f.InstalledModID, &f.RelativePath, &f.Size); err != nil {
			return nil, fmt.Errorf("scan installed_mod_files: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// CreateInstalledMod inserts mod and its files, returning the new ID.
func (s *Store) CreateInstalledMod(mod model.InstalledMod) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var uploadTS sql.NullInt64
	if mod.UploadTimestamp != nil {
		uploadTS = sql.NullInt64{Int64: mod.UploadTimestamp.Unix(), Valid: true}
	}
	installedAt := mod.InstalledAt
	if installedAt.IsZero() {
		installedAt = time.Now().UTC()
	}

	res, err := tx.Exec(`
		INSERT INTO installed_mods (game_id, name, source_archive, disabled, installed_version,
			nexus_mod_id, nexus_file_id, upload_timestamp, installed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mod.GameID, mod.Name, mod.SourceArchive, boolToInt(mod.Disabled), mod.InstalledVersion,
		mod.NexusModID, mod.NexusFileID, uploadTS, installedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("insert installed_mod: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, f := range mod.Files {
		if _, err := tx.Exec(`
			INSERT INTO installed_mod_files (installed_mod_id, relative_path, size)
			VALUES (?, ?, ?)`, id, f.RelativePath, f.Size); err != nil {
			return 0, fmt.Errorf("insert installed_mod_file: %w", err)
		}
	}

	return id, tx.Commit()
}

// DeleteInstalledMod removes a mod and its owned file rows.
func (s *Store) DeleteInstalledMod(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM installed_mod_files WHERE installed_mod_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM installed_mods WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteInstalledModFile removes one file row owned by a mod (partial
// uninstall/toggle bookkeeping).
func (s *Store) DeleteInstalledModFile(installedModID int64, relativePath string) error {
	_, err := s.db.Exec(`DELETE FROM installed_mod_files WHERE installed_mod_id = ? AND relative_path = ?`,
		installedModID, relativePath)
	return err
}

// ReplaceArchiveIndex rewrites the archive-entry index rows for one
// installed mod's archives wholesale.
func (s *Store) ReplaceArchiveIndex(gameID, installedModID int64, entries []model.ArchiveEntryIndex) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM archive_entries WHERE game_id = ? AND installed_mod_id = ?`,
		gameID, installedModID); err != nil {
		return err
	}

	for _, e := range entries {
		if _, err := tx.Exec(`
			INSERT OR REPLACE INTO archive_entries
				(game_id, installed_mod_id, archive_filename, archive_relative_path, resource_hash, sha1)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.GameID, e.InstalledModID, e.ArchiveFilename, e.ArchiveRelativePath, e.ResourceHash, e.SHA1[:]); err != nil {
			return fmt.Errorf("insert archive_entry: %w", err)
		}
	}
	return tx.Commit()
}

// DeleteArchiveIndex drops every archive-entry row owned by one installed mod.
func (s *Store) DeleteArchiveIndex(gameID, installedModID int64) error {
	_, err := s.db.Exec(`DELETE FROM archive_entries WHERE game_id = ? AND installed_mod_id = ?`,
		gameID, installedModID)
	return err
}

// ArchiveEntries returns every archive_entries row for a game, for the
// C8/C9 conflict scan's archive-collision pass.
func (s *Store) ArchiveEntries(gameID int64) ([]model.ArchiveEntryIndex, error) {
	rows, err := s.db.Query(`
		SELECT game_id, installed_mod_id, archive_filename, archive_relative_path, resource_hash, sha1
		FROM archive_entries WHERE game_id = ?`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query archive_entries: %w", err)
	}
	defer rows.Close()

	var entries []model.ArchiveEntryIndex
	for rows.Next() {
		var e model.ArchiveEntryIndex
		var sha1 []byte
		if err := rows.Scan(&e.GameID, &e.InstalledModID, &e.ArchiveFilename, &e.ArchiveRelativePath,
			&e.ResourceHash, &sha1); err != nil {
			return nil, fmt.Errorf("scan archive_entries: %w", err)
		}
		copy(e.SHA1[:], sha1)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SavePreferences replaces a game's entire load-order preference set.
func (s *Store) SavePreferences(gameID int64, prefs []model.LoadOrderPreference) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM load_order_preferences WHERE game_id = ?`, gameID); err != nil {
		return err
	}
	for _, p := range prefs {
		if _, err := tx.Exec(`
			INSERT INTO load_order_preferences (id, game_id, winner_mod_id, loser_mod_id)
			VALUES (?, ?, ?, ?)`, p.ID, p.GameID, p.WinnerModID, p.LoserModID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Preferences returns a game's load-order preferences.
func (s *Store) Preferences(gameID int64) ([]model.LoadOrderPreference, error) {
	rows, err := s.db.Query(`SELECT id, game_id, winner_mod_id, loser_mod_id FROM load_order_preferences WHERE game_id = ?`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query load_order_preferences: %w", err)
	}
	defer rows.Close()

	var prefs []model.LoadOrderPreference
	for rows.Next() {
		var p model.LoadOrderPreference
		if err := rows.Scan(&p.ID, &p.GameID, &p.WinnerModID, &p.LoserModID); err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// SaveProfile upserts a profile and its entries wholesale.
func (s *Store) SaveProfile(p model.Profile) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO profiles (id, game_id, name) VALUES (?, ?, ?)`,
		p.ID, p.GameID, p.Name); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM profile_entries WHERE profile_id = ?`, p.ID); err != nil {
		return err
	}
	for _, e := range p.Entries {
		if _, err := tx.Exec(`
			INSERT INTO profile_entries (profile_id, installed_mod_id, enabled) VALUES (?, ?, ?)`,
			p.ID, e.InstalledModID, boolToInt(e.Enabled)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Profile loads one profile by ID.
func (s *Store) Profile(id string) (model.Profile, error) {
	var p model.Profile
	if err := s.db.QueryRow(`SELECT id, game_id, name FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.GameID, &p.Name); err != nil {
		return model.Profile{}, fmt.Errorf("query profile: %w", err)
	}

	rows, err := s.db.Query(`SELECT installed_mod_id, enabled FROM profile_entries WHERE profile_id = ?`, id)
	if err != nil {
		return model.Profile{}, fmt.Errorf("query profile_entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e model.ProfileEntry
		var enabled int
		if err := rows.Scan(&e.InstalledModID, &enabled); err != nil {
			return model.Profile{}, err
		}
		e.Enabled = enabled != 0
		p.Entries = append(p.Entries, e)
	}
	return p, rows.Err()
}

// Profiles lists every profile for a game (without entries).
func (s *Store) Profiles(gameID int64) ([]model.Profile, error) {
	rows, err := s.db.Query(`SELECT id, game_id, name FROM profiles WHERE game_id = ? ORDER BY name`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.GameID, &p.Name); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// DeleteProfile removes a profile and its entries.
func (s *Store) DeleteProfile(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM profile_entries WHERE profile_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM profiles WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
