package internal

// Origin marks which pool a record in a selection came from.
type Origin string

const (
	OriginDefault  Origin = "default"
	OriginPersonal Origin = "personal"
	OriginCustom   Origin = "custom"
)

// Record is a single story element (trope): a name and a detail.
// Origin is attached by the sampler or the selection, never by the parser.
type Record struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Detail string `json:"detail" yaml:"detail"`
	Origin Origin `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// WithOrigin returns a copy of r tagged with origin.
func (r Record) WithOrigin(origin Origin) Record {
	r.Origin = origin
	return r
}

// Pool is an ordered sequence of records from one origin.
type Pool []Record

// IDs returns the set of record ids in the pool.
func (p Pool) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(p))
	for _, r := range p {
		ids[r.ID] = struct{}{}
	}
	return ids
}

// Contains reports whether a record with id is in the pool.
func (p Pool) Contains(id string) bool {
	for _, r := range p {
		if r.ID == id {
			return true
		}
	}
	return false
}

// Without returns the records whose id is not in exclude, preserving order.
func (p Pool) Without(exclude map[string]struct{}) Pool {
	out := make(Pool, 0, len(p))
	for _, r := range p {
		if _, skip := exclude[r.ID]; !skip {
			out = append(out, r)
		}
	}
	return out
}

// Union concatenates pools, keeping the first record seen for each id.
func Union(pools ...Pool) Pool {
	seen := make(map[string]struct{})
	var out Pool
	for _, p := range pools {
		for _, r := range p {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

// Document is the ordered, de-duplicated list handed to exporters.
type Document struct {
	Title   string  `json:"title" yaml:"title"`
	Kind    string  `json:"kind" yaml:"kind"` // "tropes" or "encounter"
	Entries []Entry `json:"entries" yaml:"entries"`

	// Encounter documents only.
	Settings *EncounterSettings `json:"settings,omitempty" yaml:"settings,omitempty"`
	Tropes   []Entry            `json:"tropes,omitempty" yaml:"tropes,omitempty"`
}

// Entry is one exported (name, detail) or (category, value) pair.
type Entry struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Name   string `json:"name" yaml:"name"`
	Detail string `json:"detail" yaml:"detail"`
	Origin Origin `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// Document kinds.
const (
	DocumentKindTropes    = "tropes"
	DocumentKindEncounter = "encounter"
)

// RecordsFromDocument rebuilds records from an exported tropes document.
func RecordsFromDocument(doc *Document) []Record {
	return RecordsFromEntries(doc.Entries)
}

// RecordsFromEntries converts exported entries back to records.
func RecordsFromEntries(entries []Entry) []Record {
	out := make([]Record, 0, len(entries))
	for _, e := range entries {
		out = append(out, Record{ID: e.ID, Name: e.Name, Detail: e.Detail, Origin: e.Origin})
	}
	return out
}

// Entries converts the pool to export entries in order.
func (p Pool) Entries() []Entry {
	out := make([]Entry, 0, len(p))
	for _, r := range p {
		out = append(out, Entry{ID: r.ID, Name: r.Name, Detail: r.Detail, Origin: r.Origin})
	}
	return out
}
