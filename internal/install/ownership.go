// Package install implements the installer, uninstaller, enable/disable
// toggle, and orphaned-archive sweep (spec §4.10, C10). The orchestration
// methods accept small reader/writer interfaces so the decision logic —
// ownership transfer, entry filtering, path-traversal rejection — runs and
// tests without touching a real filesystem.
package install

import (
	"path/filepath"
	"strings"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

// normalizePath lowercases and forward-slashes a path for ownership-map
// lookups, matching internal/manifest's NormalizePath convention.
func normalizePath(p string) string {
	return strings.ToLower(strings.ReplaceAll(filepath.ToSlash(p), "\\", "/"))
}

// OwnershipMap maps a normalized relative path to the InstalledMod.ID that
// currently owns it. Disabled mods still own their paths — they are
// present on disk under a .disabled suffix (model.InstalledModFile
// invariant b) — so BuildOwnershipMap does not skip them.
type OwnershipMap map[string]int64

// BuildOwnershipMap collects every installed mod's owned paths for one game.
func BuildOwnershipMap(mods []model.InstalledMod) OwnershipMap {
	m := make(OwnershipMap)
	for _, mod := range mods {
		for _, f := range mod.Files {
			m[normalizePath(f.RelativePath)] = mod.ID
		}
	}
	return m
}

// Owner returns the InstalledMod.ID owning path, and whether any mod owns it.
func (m OwnershipMap) Owner(path string) (int64, bool) {
	id, ok := m[normalizePath(path)]
	return id, ok
}
