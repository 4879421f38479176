// Package export renders a board snapshot for backups and inspection.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"pepeboard/internal/models"

	"gopkg.in/yaml.v3"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Write renders posts to w in the given format. JSON output matches the
// stored document layout, so it can be loaded back by the file store.
func Write(w io.Writer, posts models.Collection, format string) error {
	if posts == nil {
		posts = models.Collection{}
	}

	switch strings.ToLower(format) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(posts); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		// Clone turns nil comment lists into empty ones so YAML prints [].
		if err := enc.Encode(posts.Clone()); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
