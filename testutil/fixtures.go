package testutil

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// EncounterHeader is the header row of an encounter input table.
var EncounterHeader = []string{
	"Location", "Fantastical nature", "Current state of location",
	"Situation", "Complication", "NPC", "Adversaries",
}

// TropesCSV returns a record table with n rows named "Trope i".
func TropesCSV(n int) string {
	rows := [][]string{{"#", "Trope name", "Trope detail"}}
	for i := 1; i <= n; i++ {
		rows = append(rows, []string{fmt.Sprint(i), fmt.Sprintf("Trope %d", i), fmt.Sprintf("Detail for trope %d", i)})
	}
	return CSV(rows)
}

// EncounterCSV returns an encounter table with n rows of distinct values.
func EncounterCSV(n int) string {
	rows := [][]string{EncounterHeader}
	for i := 1; i <= n; i++ {
		row := make([]string, len(EncounterHeader))
		for j, h := range EncounterHeader {
			row[j] = fmt.Sprintf("%s %d", h, i)
		}
		rows = append(rows, row)
	}
	return CSV(rows)
}

// CSV renders rows with standard quoting.
func CSV(rows [][]string) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll(rows)
	return buf.String()
}

// Server is an httptest server that counts its requests.
type Server struct {
	*httptest.Server
	hits atomic.Int64
}

// Hits returns how many requests the server received.
func (s *Server) Hits() int {
	return int(s.hits.Load())
}

// NewTextServer serves body with status for every request.
func NewTextServer(t *testing.T, status int, body string) *Server {
	t.Helper()
	return NewHandlerServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

// NewHandlerServer wraps fn in a counting httptest server closed at cleanup.
func NewHandlerServer(t *testing.T, fn http.HandlerFunc) *Server {
	t.Helper()
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		fn(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}
