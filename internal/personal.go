package internal

import (
	"context"
	"strings"
)

const personalIDPrefix = "personal-"

// PersonalTemplateHeader is the header row users start a personal table from.
const PersonalTemplateHeader = "#,Element name,Element detail"

// PersonalData is the user's own table of story elements, used as the
// secondary pool when sampling.
type PersonalData struct {
	store KVStore
}

// NewPersonalData creates a personal data registry on store.
func NewPersonalData(store KVStore) *PersonalData {
	return &PersonalData{store: store}
}

// Upload validates raw and stores it. Invalid tables are rejected and the
// previous upload is kept.
func (p *PersonalData) Upload(ctx context.Context, raw string) (*ParseResult, error) {
	res, err := ParseRecords(raw)
	if err != nil {
		return nil, err
	}
	if err := p.store.Set(ctx, KeyPersonalTropes, raw); err != nil {
		return nil, &StorageError{Key: KeyPersonalTropes, Op: "set", Err: err}
	}
	LogInfo("Stored %d personal record(s), skipped %d row(s)", len(res.Records), len(res.Skipped))
	return res, nil
}

// Load returns the stored personal pool, or an empty pool when nothing was
// uploaded. Ids are namespaced so they never collide with default ids.
func (p *PersonalData) Load(ctx context.Context) (Pool, error) {
	raw, ok, err := p.store.Get(ctx, KeyPersonalTropes)
	if err != nil {
		return nil, &StorageError{Key: KeyPersonalTropes, Op: "get", Err: err}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return Pool{}, nil
	}
	res, err := ParseRecords(raw)
	if err != nil {
		LogWarn("Stored personal data is no longer valid: %v", err)
		return Pool{}, nil
	}
	pool := make(Pool, len(res.Records))
	for i, r := range res.Records {
		r.ID = personalIDPrefix + r.ID
		pool[i] = r
	}
	return pool, nil
}

// Purge deletes the stored personal data.
func (p *PersonalData) Purge(ctx context.Context) error {
	if err := p.store.Delete(ctx, KeyPersonalTropes); err != nil {
		return &StorageError{Key: KeyPersonalTropes, Op: "delete", Err: err}
	}
	return nil
}

// TemplateCSV returns an empty personal table with the expected header.
func TemplateCSV() string {
	return PersonalTemplateHeader + "\n"
}
