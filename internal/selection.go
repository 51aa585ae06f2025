package internal

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Outcome reports what a selection operation did.
type Outcome int

const (
	Added Outcome = iota
	AlreadyPresent
	NoMoreAvailable
	Replaced
	NoCandidates
	Removed
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case AlreadyPresent:
		return "already present"
	case NoMoreAvailable:
		return "no more available"
	case Replaced:
		return "replaced"
	case NoCandidates:
		return "no candidates remaining"
	case Removed:
		return "removed"
	case NotFound:
		return "not found"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Selection is the user's working list of records. It never holds two
// records with the same id, and every operation either completes or leaves
// the list untouched.
type Selection struct {
	sampler   *Sampler
	primary   Pool
	secondary Pool
	records   Pool
	newID     func() string
}

// NewSelection creates an empty selection over the default (primary) and
// personal (secondary) pools.
func NewSelection(sampler *Sampler, primary, secondary Pool) *Selection {
	if sampler == nil {
		sampler = NewSampler(nil)
	}
	return &Selection{
		sampler:   sampler,
		primary:   primary,
		secondary: secondary,
		newID: func() string {
			return "custom-" + ulid.Make().String()
		},
	}
}

// SetPools swaps the sampling pools without touching the current list.
func (s *Selection) SetPools(primary, secondary Pool) {
	s.primary = primary
	s.secondary = secondary
}

// Pool returns the combined sampling universe.
func (s *Selection) Pool() Pool {
	return Union(s.primary, s.secondary)
}

// HasPersonal reports whether a non-empty personal pool is loaded.
func (s *Selection) HasPersonal() bool {
	return len(s.secondary) > 0
}

// Generate replaces the whole list with a fresh sample of count records.
func (s *Selection) Generate(count int) Pool {
	s.records = s.sampler.SampleMixed(s.primary, s.secondary, count)
	return s.Records()
}

// AddSpecific appends rec unless a record with its id is already selected.
func (s *Selection) AddSpecific(rec Record) Outcome {
	if s.indexOf(rec.ID) >= 0 {
		return AlreadyPresent
	}
	if rec.Origin == "" {
		rec.Origin = s.originOf(rec.ID)
	}
	s.records = append(s.records, rec)
	return Added
}

// AddRandom appends one record drawn from the pools minus the current list.
func (s *Selection) AddRandom() (Record, Outcome) {
	rec, ok := s.sampler.PickOne(s.Pool(), s.records.IDs())
	if !ok {
		return Record{}, NoMoreAvailable
	}
	rec.Origin = s.originOf(rec.ID)
	s.records = append(s.records, rec)
	return rec, Added
}

// AddCustom appends a user-authored record with a fresh id.
func (s *Selection) AddCustom(name, detail string) (Record, error) {
	name = cleanCell(name)
	detail = cleanCell(detail)
	if name == "" || detail == "" {
		return Record{}, fmt.Errorf("custom element needs both a name and a detail")
	}
	rec := Record{ID: s.newID(), Name: name, Detail: detail, Origin: OriginCustom}
	s.records = append(s.records, rec)
	return rec, nil
}

// Remove deletes the record with id. Removing a missing id is a no-op.
func (s *Selection) Remove(id string) Outcome {
	i := s.indexOf(id)
	if i < 0 {
		return NotFound
	}
	next := make(Pool, 0, len(s.records)-1)
	next = append(next, s.records[:i]...)
	next = append(next, s.records[i+1:]...)
	s.records = next
	return Removed
}

// Randomize replaces the record with id by a random record that is not
// already selected. With no candidates left the original is kept.
func (s *Selection) Randomize(id string) (Record, Outcome) {
	i := s.indexOf(id)
	if i < 0 {
		return Record{}, NotFound
	}
	rec, ok := s.sampler.PickOne(s.Pool(), s.records.IDs())
	if !ok {
		return s.records[i], NoCandidates
	}
	rec.Origin = s.originOf(rec.ID)
	s.records[i] = rec
	return rec, Replaced
}

// Clear empties the list.
func (s *Selection) Clear() {
	s.records = nil
}

// Load replaces the list with records, dropping repeated ids.
func (s *Selection) Load(records []Record) {
	next := make(Pool, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.ID]; dup || r.ID == "" {
			continue
		}
		seen[r.ID] = struct{}{}
		next = append(next, r)
	}
	s.records = next
}

// Records returns a copy of the current list.
func (s *Selection) Records() Pool {
	out := make(Pool, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of selected records.
func (s *Selection) Len() int {
	return len(s.records)
}

// Lookup finds a record in the pools by id.
func (s *Selection) Lookup(id string) (Record, bool) {
	for _, r := range s.Pool() {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// Search returns pool records whose name or detail contains query,
// case-insensitively. Name matches come first.
func (s *Selection) Search(query string, limit int) Pool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Pool{}
	}
	var byName, byDetail Pool
	for _, r := range s.Pool() {
		switch {
		case strings.Contains(strings.ToLower(r.Name), q):
			byName = append(byName, r.WithOrigin(s.originOf(r.ID)))
		case strings.Contains(strings.ToLower(r.Detail), q):
			byDetail = append(byDetail, r.WithOrigin(s.originOf(r.ID)))
		}
	}
	out := append(byName, byDetail...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Counts tallies the current list by origin.
func (s *Selection) Counts() map[Origin]int {
	counts := make(map[Origin]int)
	for _, r := range s.records {
		counts[r.Origin]++
	}
	return counts
}

// Document converts the list for exporters.
func (s *Selection) Document(title string) *Document {
	return &Document{Title: title, Kind: DocumentKindTropes, Entries: s.records.Entries()}
}

func (s *Selection) indexOf(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *Selection) originOf(id string) Origin {
	if s.secondary.Contains(id) {
		return OriginPersonal
	}
	return OriginDefault
}
