package internal

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iksnae/tropedeck/internal/bundled"
)

// NewTropesResolver builds the source chain for the default trope table:
// remote siblings (unless offline), the bundled copy, then the built-in list.
func NewTropesResolver(cfg *Config, store KVStore, client *http.Client, onRefresh func(Resolution)) *Resolver {
	var sources []Source
	if !cfg.Offline {
		sources = append(sources, RemoteSources("tropes", cfg.TropesURL, cfg.TropesMirrors, *cfg, client)...)
	}
	sources = append(sources,
		&BundledSource{Label: "tropes:bundled", FS: bundled.FS, Path: bundled.TropesFile},
		&StaticSource{Label: "tropes:fallback", Text: FallbackTropesCSV()},
	)
	return NewResolver(ResolverOptions{
		Key:          KeyTropesTable,
		Store:        store,
		Sources:      sources,
		Validate:     RecordValidator,
		FallbackSize: len(FallbackTropes),
		FetchTimeout: cfg.FetchTimeout,
		OnRefresh:    onRefresh,
	})
}

// NewEncounterResolver builds the source chain for the encounter input table.
func NewEncounterResolver(cfg *Config, store KVStore, client *http.Client, onRefresh func(Resolution)) *Resolver {
	var sources []Source
	if !cfg.Offline {
		sources = append(sources, RemoteSources("encounter", cfg.EncounterURL, cfg.EncounterMirrors, *cfg, client)...)
	}
	sources = append(sources,
		&BundledSource{Label: "encounter:bundled", FS: bundled.FS, Path: bundled.EncounterFile},
		&StaticSource{Label: "encounter:fallback", Text: FallbackEncounterCSV()},
	)
	return NewResolver(ResolverOptions{
		Key:          KeyEncounterTable,
		Store:        store,
		Sources:      sources,
		Validate:     CategoryValidator,
		FallbackSize: FallbackEncounterSize(),
		FetchTimeout: cfg.FetchTimeout,
		OnRefresh:    onRefresh,
	})
}

// NewEncounterTropesResolver builds the source chain for the personal tropes
// attached to encounters: the remote table through the proxies (unless
// offline), then the bundled copy. There is no static fallback, so an empty
// chain leaves the encounter without tropes.
func NewEncounterTropesResolver(cfg *Config, store KVStore, client *http.Client, onRefresh func(Resolution)) *Resolver {
	var sources []Source
	if !cfg.Offline {
		sources = append(sources, RemoteSources("encounter-tropes", cfg.EncounterTropesURL, nil, *cfg, client)...)
	}
	sources = append(sources, &BundledSource{Label: "encounter-tropes:bundled", FS: bundled.FS, Path: bundled.EncounterTropesFile})
	return NewResolver(ResolverOptions{
		Key:          KeyEncounterTropes,
		Store:        store,
		Sources:      sources,
		Validate:     RecordValidator,
		FetchTimeout: cfg.FetchTimeout,
		OnRefresh:    onRefresh,
	})
}

// NewPromptTemplateResolver builds the source chain for the encounter prompt
// template: the published template (unless offline), the bundled copy, then
// the built-in one.
func NewPromptTemplateResolver(cfg *Config, store KVStore, client *http.Client, onRefresh func(Resolution)) *Resolver {
	var sources []Source
	if !cfg.Offline && cfg.PromptTemplateURL != "" {
		sources = append(sources, NewHTTPSource("prompt-template:direct", cfg.PromptTemplateURL, client))
	}
	sources = append(sources,
		&BundledSource{Label: "prompt-template:bundled", FS: bundled.FS, Path: bundled.PromptTemplateFile},
		&StaticSource{Label: "prompt-template:built-in", Text: DefaultEncounterPromptTemplate},
	)
	return NewResolver(ResolverOptions{
		Key:          KeyPromptTemplate,
		Store:        store,
		Sources:      sources,
		Validate:     TemplateValidator,
		FetchTimeout: cfg.FetchTimeout,
		OnRefresh:    onRefresh,
	})
}

// LoadPromptTemplate resolves the encounter prompt template.
func LoadPromptTemplate(ctx context.Context, r *Resolver) (string, *Resolution, error) {
	res, err := r.Resolve(ctx)
	if err != nil {
		return "", nil, err
	}
	return res.Raw, res, nil
}

// LoadTropes resolves and parses the trope table.
func LoadTropes(ctx context.Context, r *Resolver) (Pool, *Resolution, error) {
	res, err := r.Resolve(ctx)
	if err != nil {
		return nil, nil, err
	}
	parsed, err := ParseRecords(res.Raw)
	if err != nil {
		return nil, res, fmt.Errorf("parse tropes from %s: %w", res.Source, err)
	}
	return parsed.Records, res, nil
}

// LoadCategories resolves and parses the encounter input table.
func LoadCategories(ctx context.Context, r *Resolver) (*CategoryTable, *Resolution, error) {
	res, err := r.Resolve(ctx)
	if err != nil {
		return nil, nil, err
	}
	table, err := ParseCategories(res.Raw)
	if err != nil {
		return nil, res, fmt.Errorf("parse encounter inputs from %s: %w", res.Source, err)
	}
	return table, res, nil
}
