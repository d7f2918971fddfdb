// Package paths resolves user-supplied file locations and derives the
// output filenames for transcript and summary documents.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return filepath.Join(home, path[2:])
	}
	return path
}

// Outputs names the two files a run may produce.
type Outputs struct {
	Transcript string
	Summary    string
}

// OutputsFor returns the output locations for a video. With no override
// the files are {id}_transcript.md and {id}_summarized.md inside dir. An
// override names the transcript file directly, and the summary sits next
// to it with "_summarized" appended to the stem.
func OutputsFor(dir, override, videoID string) Outputs {
	if override != "" {
		transcript := ExpandHome(override)
		stem := strings.TrimSuffix(transcript, filepath.Ext(transcript))
		return Outputs{
			Transcript: transcript,
			Summary:    stem + "_summarized.md",
		}
	}

	if dir == "" {
		dir = "."
	}
	dir = ExpandHome(dir)
	return Outputs{
		Transcript: filepath.Join(dir, videoID+"_transcript.md"),
		Summary:    filepath.Join(dir, videoID+"_summarized.md"),
	}
}
