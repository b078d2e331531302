package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteJSONFile writes one report artifact under dir, creating the
// directory on first use. Output is indented so dashboards and humans
// can diff it.
func WriteJSONFile(dir, name string, v any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return f.Close()
}

// Slug turns a dimension item (repository URL, organization name) into a
// filename-safe token. Runs of unsafe characters collapse to one
// underscore.
func Slug(item string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(item) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			if pending && b.Len() > 0 {
				b.WriteRune('_')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}
