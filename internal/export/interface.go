package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/iksnae/tropedeck/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(doc *internal.Document, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "txt", "text":
		return &TextExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "jsonl":
		return &JSONLExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "prompt":
		return &PromptExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: txt, md, json, jsonl, yaml, prompt)", format)
	}
}

// ReadDocument decodes a json or yaml export back into a document.
func ReadDocument(r io.Reader, format string) (*internal.Document, error) {
	switch strings.ToLower(format) {
	case "json":
		return readJSON(r)
	case "yaml", "yml":
		return readYAML(r)
	default:
		return nil, fmt.Errorf("cannot read %s exports (supported: json, yaml)", format)
	}
}

// FormatFromPath guesses the export format from a file extension.
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
