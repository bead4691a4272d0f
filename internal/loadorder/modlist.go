package loadorder

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/engineerr"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

// ModlistFilename is the filename the RED engine's modding tools read for
// an explicit archive load order.
const ModlistFilename = "modlist.txt"

// WriteModlist emits lines to <modPathRoot>/modlist.txt, one archive
// filename per line. An empty lines slice deletes the file instead of
// writing an empty one, matching spec §4.11's "delete when empty" rule.
func WriteModlist(modPathRoot string, lines []string) error {
	path := filepath.Join(modPathRoot, ModlistFilename)

	if len(lines) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return engineerr.FilesystemErr("remove empty modlist.txt", err)
		}
		return nil
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return engineerr.FilesystemErr("write modlist.txt", err)
	}
	return nil
}

// ReadModlist parses an existing modlist.txt, one archive filename per
// non-blank line. Returns an empty slice, not an error, if the file does
// not exist.
func ReadModlist(modPathRoot string) ([]string, error) {
	path := filepath.Join(modPathRoot, ModlistFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, engineerr.FilesystemErr("read modlist.txt", err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// AddPreference implements the "adding A>B first removes existing B>A"
// rule from the LoadOrderPreference invariant. Returns the updated slice.
func AddPreference(prefs []LoadOrderPreferenceEdge, winnerModID, loserModID int64) []LoadOrderPreferenceEdge {
	out := prefs[:0:0]
	for _, p := range prefs {
		if p.WinnerModID == loserModID && p.LoserModID == winnerModID {
			continue
		}
		out = append(out, p)
	}
	for _, p := range out {
		if p.WinnerModID == winnerModID && p.LoserModID == loserModID {
			return out
		}
	}
	return append(out, LoadOrderPreferenceEdge{WinnerModID: winnerModID, LoserModID: loserModID})
}

// LoadOrderPreferenceEdge mirrors model.LoadOrderPreference's winner/loser
// pair without the persistence ID, for in-memory preference-set edits.
type LoadOrderPreferenceEdge struct {
	WinnerModID int64
	LoserModID  int64
}

// NewPreference mints a model.LoadOrderPreference with a fresh random ID.
func NewPreference(gameID, winnerModID, loserModID int64) model.LoadOrderPreference {
	return model.LoadOrderPreference{
		ID:          uuid.NewString(),
		GameID:      gameID,
		WinnerModID: winnerModID,
		LoserModID:  loserModID,
	}
}
