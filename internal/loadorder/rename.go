package loadorder

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/engineerr"
)

var escalationPrefixes = []string{"zz_", "zzz_", "zzzz_"}

// RenameStep is one filesystem rename the rename-path fallback performs.
type RenameStep struct {
	OldPath string
	NewPath string
}

// PlanLoserRename picks a non-colliding deprioritized filename for a
// loser's archive. It tries zz_, then zzz_, then zzzz_; within each prefix
// a filename collision (another archive already has that exact name) is
// broken by appending "_{modID}" before the extension. Exhausting all
// three prefixes is an error — escalation has a bound.
func PlanLoserRename(filename string, modID int64, taken map[string]bool) (string, error) {
	for _, prefix := range escalationPrefixes {
		candidate := prefix + filename
		if !taken[strings.ToLower(candidate)] {
			return candidate, nil
		}
		ext := filepath.Ext(filename)
		stem := strings.TrimSuffix(filename, ext)
		withSuffix := fmt.Sprintf("%s%s_%d%s", prefix, stem, modID, ext)
		if !taken[strings.ToLower(withSuffix)] {
			return withSuffix, nil
		}
	}
	return "", engineerr.InvalidInput(fmt.Sprintf("could not find a non-colliding rename for %q after exhausting zz_/zzz_/zzzz_ escalation", filename))
}

// Renamer performs one filesystem rename.
type Renamer interface {
	Rename(oldPath, newPath string) error
}

// ApplyRenames performs steps in order. If any step fails, every
// previously-applied step is reversed before returning the error, so a
// partial rename batch never leaves the tree in a half-renamed state.
func ApplyRenames(r Renamer, steps []RenameStep) error {
	applied := 0
	var failErr error
	for i, s := range steps {
		if err := r.Rename(s.OldPath, s.NewPath); err != nil {
			failErr = err
			break
		}
		applied = i + 1
	}
	if failErr == nil {
		return nil
	}
	for i := applied - 1; i >= 0; i-- {
		r.Rename(steps[i].NewPath, steps[i].OldPath)
	}
	return engineerr.FilesystemErr(fmt.Sprintf("rename step %d of %d failed, rolled back", applied+1, len(steps)), failErr)
}

// ApplyRenamesWithCommit performs the renames, then calls commit (the
// database write recording the new filenames). If commit fails, the
// filesystem renames are rolled back too, so the database and the
// filesystem never disagree about which archive owns which name.
func ApplyRenamesWithCommit(r Renamer, steps []RenameStep, commit func() error) error {
	if err := ApplyRenames(r, steps); err != nil {
		return err
	}
	if err := commit(); err != nil {
		reverse := make([]RenameStep, len(steps))
		for i, s := range steps {
			reverse[len(steps)-1-i] = RenameStep{OldPath: s.NewPath, NewPath: s.OldPath}
		}
		ApplyRenames(r, reverse)
		return err
	}
	return nil
}
