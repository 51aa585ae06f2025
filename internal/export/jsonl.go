package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/tropedeck/internal"
)

// JSONLExporter exports documents in JSONL format, one entry per line
type JSONLExporter struct{}

type jsonlLine struct {
	Kind string `json:"kind"`
	internal.Entry
}

// Export exports a document to JSONL format
func (e *JSONLExporter) Export(doc *internal.Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, entry := range doc.Entries {
		if err := enc.Encode(jsonlLine{Kind: doc.Kind, Entry: entry}); err != nil {
			return err
		}
	}
	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
