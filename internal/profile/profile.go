// Package profile implements mod profiles (spec §4.13, C13): named
// snapshots of each InstalledMod's enabled/disabled state, with export to
// and import from a portable JSON format, comparison, and duplication.
package profile

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/engineerr"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

// Toggler flips one InstalledMod's enabled state, mirroring
// internal/install.Installer.Toggle without importing that package (C13
// only needs the capability, not the filesystem/store wiring).
type Toggler func(mod model.InstalledMod, disable bool) error

// Create snapshots every installed mod's current disabled state into a
// new Profile.
func Create(gameID int64, id, name string, mods []model.InstalledMod) model.Profile {
	entries := make([]model.ProfileEntry, 0, len(mods))
	for _, m := range mods {
		entries = append(entries, model.ProfileEntry{InstalledModID: m.ID, Enabled: !m.Disabled})
	}
	return model.Profile{ID: id, GameID: gameID, Name: name, Entries: entries}
}

// Load toggles every installed mod whose current state differs from the
// profile's snapshot, so each mod ends up enabled or disabled exactly as
// the profile records. A mod present in the profile but no longer
// installed is silently skipped.
func Load(p model.Profile, mods []model.InstalledMod, toggle Toggler) error {
	byID := make(map[int64]model.InstalledMod, len(mods))
	for _, m := range mods {
		byID[m.ID] = m
	}
	for _, entry := range p.Entries {
		mod, ok := byID[entry.InstalledModID]
		if !ok {
			continue
		}
		wantDisabled := !entry.Enabled
		if mod.Disabled == wantDisabled {
			continue
		}
		if err := toggle(mod, wantDisabled); err != nil {
			return err
		}
	}
	return nil
}

// ExportedMod is one mod entry in the portable export format.
type ExportedMod struct {
	Name          string `json:"name"`
	NexusModID    int64  `json:"nexus_mod_id,omitempty"`
	Version       string `json:"version"`
	SourceArchive string `json:"source_archive"`
}

// ExportDocument is the top-level JSON shape Export produces and Import consumes.
type ExportDocument struct {
	ProfileName string        `json:"profile_name"`
	GameName    string        `json:"game_name"`
	ExportedAt  time.Time     `json:"exported_at"`
	ModCount    int           `json:"mod_count"`
	Mods        []ExportedMod `json:"mods"`
}

// Export renders a profile, its game's name, and the installed mods it
// references into the portable JSON document.
func Export(p model.Profile, gameName string, mods []model.InstalledMod, now time.Time) ([]byte, error) {
	byID := make(map[int64]model.InstalledMod, len(mods))
	for _, m := range mods {
		byID[m.ID] = m
	}

	doc := ExportDocument{ProfileName: p.Name, GameName: gameName, ExportedAt: now}
	for _, entry := range p.Entries {
		mod, ok := byID[entry.InstalledModID]
		if !ok {
			continue
		}
		doc.Mods = append(doc.Mods, ExportedMod{
			Name:          mod.Name,
			NexusModID:    mod.NexusModID,
			Version:       mod.InstalledVersion,
			SourceArchive: mod.SourceArchive,
		})
	}
	doc.ModCount = len(doc.Mods)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, engineerr.FormatErr("marshal profile export", err)
	}
	return data, nil
}

// Import parses an exported document and resolves each entry against the
// current game's installed mods, matching by name first, then by
// nexus_mod_id. Unmatched entries are silently skipped — spec §4.13
// treats a missing mod as "not currently installed," not an error.
func Import(data []byte, mods []model.InstalledMod) (ExportDocument, []model.ProfileEntry, error) {
	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return ExportDocument{}, nil, engineerr.FormatErr("parse profile export", err)
	}

	byName := make(map[string]model.InstalledMod, len(mods))
	byNexusID := make(map[int64]model.InstalledMod, len(mods))
	for _, m := range mods {
		byName[m.Name] = m
		if m.NexusModID != 0 {
			byNexusID[m.NexusModID] = m
		}
	}

	var entries []model.ProfileEntry
	for _, em := range doc.Mods {
		mod, ok := byName[em.Name]
		if !ok && em.NexusModID != 0 {
			mod, ok = byNexusID[em.NexusModID]
		}
		if !ok {
			continue
		}
		entries = append(entries, model.ProfileEntry{InstalledModID: mod.ID, Enabled: true})
	}
	return doc, entries, nil
}

// Comparison is the result of comparing two profiles' entries.
type Comparison struct {
	Added         []int64 // in b, not in a
	Removed       []int64 // in a, not in b
	StateChanged  []int64 // present in both, enabled state differs
}

// Compare yields the added/removed/state_changed sets between two profiles.
func Compare(a, b model.Profile) Comparison {
	aByID := make(map[int64]bool, len(a.Entries))
	for _, e := range a.Entries {
		aByID[e.InstalledModID] = e.Enabled
	}
	bByID := make(map[int64]bool, len(b.Entries))
	for _, e := range b.Entries {
		bByID[e.InstalledModID] = e.Enabled
	}

	var cmp Comparison
	for id, enabled := range bByID {
		aEnabled, inA := aByID[id]
		if !inA {
			cmp.Added = append(cmp.Added, id)
			continue
		}
		if aEnabled != enabled {
			cmp.StateChanged = append(cmp.StateChanged, id)
		}
	}
	for id := range aByID {
		if _, inB := bByID[id]; !inB {
			cmp.Removed = append(cmp.Removed, id)
		}
	}

	sort.Slice(cmp.Added, func(i, j int) bool { return cmp.Added[i] < cmp.Added[j] })
	sort.Slice(cmp.Removed, func(i, j int) bool { return cmp.Removed[i] < cmp.Removed[j] })
	sort.Slice(cmp.StateChanged, func(i, j int) bool { return cmp.StateChanged[i] < cmp.StateChanged[j] })
	return cmp
}

// Duplicate clones a profile's entries under a new ID and name.
func Duplicate(p model.Profile, newID, newName string) model.Profile {
	entries := make([]model.ProfileEntry, len(p.Entries))
	copy(entries, p.Entries)
	return model.Profile{ID: newID, GameID: p.GameID, Name: newName, Entries: entries}
}
