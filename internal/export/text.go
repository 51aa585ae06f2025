package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/tropedeck/internal"
)

// TextExporter writes each entry as a name underlined with '=' followed by
// its detail.
type TextExporter struct{}

// Export exports a document as plain text
func (e *TextExporter) Export(doc *internal.Document, w io.Writer) error {
	for _, entry := range doc.Entries {
		underline := strings.Repeat("=", len([]rune(entry.Name)))
		if _, err := fmt.Fprintf(w, "%s\n%s\n%s\n\n", entry.Name, underline, entry.Detail); err != nil {
			return err
		}
	}
	return nil
}

// Extension returns the file extension for this format
func (e *TextExporter) Extension() string {
	return "txt"
}
