package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/tropedeck/internal"
)

// JSONExporter exports documents in JSON format (pretty-printed)
type JSONExporter struct{}

// Export exports a document to JSON format
func (e *JSONExporter) Export(doc *internal.Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(doc)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}

func readJSON(r io.Reader) (*internal.Document, error) {
	var doc internal.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode json document: %w", err)
	}
	return &doc, nil
}
