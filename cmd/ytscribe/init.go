package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nugget/ytscribe/internal/defaults"
)

// runInit writes a starter ytscribe.yaml and an empty .env into dir.
// Existing files are never overwritten.
func runInit(w io.Writer, dir string) error {
	fmt.Fprintf(w, "Initializing ytscribe in %s\n", dir)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	// The config may hold API keys inline, so it is private.
	configPath := filepath.Join(dir, "ytscribe.yaml")
	created, err := writeIfMissing(configPath, defaults.ConfigYAML, 0o600)
	if err != nil {
		return err
	}
	report(w, configPath, created)

	envPath := filepath.Join(dir, ".env")
	created, err = writeIfMissing(envPath, defaults.DotEnv, 0o600)
	if err != nil {
		return err
	}
	report(w, envPath, created)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Put your GEMINI_API_KEY in .env, or set summary.enabled: false.")
	return nil
}

func report(w io.Writer, path string, created bool) {
	if created {
		fmt.Fprintf(w, "  ✓ %s\n", path)
	} else {
		fmt.Fprintf(w, "  - %s (exists, kept)\n", path)
	}
}

// writeIfMissing writes content to path only if the file does not already
// exist, reporting whether it wrote.
func writeIfMissing(path string, content []byte, perm os.FileMode) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if os.IsExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, f.Close()
}
