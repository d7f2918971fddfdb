package transcript

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/creachadair/atomicfile"

	"github.com/nugget/ytscribe/internal/paths"
)

// Write saves the transcript, and the summary when there is one, to the
// given locations. Each file is written atomically, so an interrupted
// write leaves any previous file intact. It returns the paths written.
func Write(res *Result, out paths.Outputs) ([]string, error) {
	var written []string

	if err := writeFile(out.Transcript, res.Transcript); err != nil {
		return written, fmt.Errorf("write transcript: %w", err)
	}
	written = append(written, out.Transcript)

	if res.Summary == "" {
		return written, nil
	}
	if err := writeFile(out.Summary, res.Summary); err != nil {
		return written, fmt.Errorf("write summary: %w", err)
	}
	return append(written, out.Summary), nil
}

func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := atomicfile.New(path, 0o644)
	if err != nil {
		return err
	}
	defer f.Cancel()

	if _, err := io.WriteString(f, content); err != nil {
		return err
	}
	return f.Close()
}
