package cmd

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/iksnae/tropedeck/internal"
	"github.com/iksnae/tropedeck/internal/export"
)

// app holds what a single command invocation shares. It is built by the
// root command's PersistentPreRunE and closed after the command runs.
var app *appContext

type appContext struct {
	cfg     *internal.Config
	client  *http.Client
	sampler *internal.Sampler

	store     internal.KVStore
	tropes    *internal.Resolver
	encounter *internal.Resolver
	// Created by TableResolvers; most commands need neither.
	encounterTropes *internal.Resolver
	template        *internal.Resolver

	// refreshed receives trope tables replaced by a background refresh.
	refreshed chan internal.Resolution
}

func newApp() (*appContext, error) {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if offline {
		cfg.Offline = true
	}

	level, err := internal.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	internal.SetLogLevel(level)
	if verbose {
		internal.SetVerbose(true)
	}

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed))
	}

	return &appContext{
		cfg:       cfg,
		client:    &http.Client{},
		sampler:   internal.NewSampler(rng),
		refreshed: make(chan internal.Resolution, 4),
	}, nil
}

// Store opens the configured store on first use.
func (a *appContext) Store(ctx context.Context) (internal.KVStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	var (
		store internal.KVStore
		err   error
	)
	switch {
	case ephemeral:
		store = internal.NewMemoryStore()
	case a.cfg.RedisURL != "":
		store, err = internal.NewRedisStore(ctx, a.cfg.RedisURL)
	default:
		store, err = internal.NewSQLiteStore(a.cfg.DBPath)
	}
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// Resolvers returns the trope and encounter resolvers, creating them on
// first use.
func (a *appContext) Resolvers(ctx context.Context) (*internal.Resolver, *internal.Resolver, error) {
	if a.tropes != nil {
		return a.tropes, a.encounter, nil
	}
	store, err := a.Store(ctx)
	if err != nil {
		return nil, nil, err
	}
	a.tropes = internal.NewTropesResolver(a.cfg, store, a.client, a.onRefresh)
	a.encounter = internal.NewEncounterResolver(a.cfg, store, a.client, func(res internal.Resolution) {
		internal.LogInfo("Encounter inputs refreshed from %s (%d item(s))", res.Source, res.Count)
	})
	return a.tropes, a.encounter, nil
}

func (a *appContext) onRefresh(res internal.Resolution) {
	select {
	case a.refreshed <- res:
	default:
		internal.LogDebug("Dropped refresh notification from %s", res.Source)
	}
}

// TableResolvers returns every resolver the app uses, creating them on
// first use: tropes, encounter inputs, encounter tropes and the prompt
// template.
func (a *appContext) TableResolvers(ctx context.Context) ([]*internal.Resolver, error) {
	if _, _, err := a.Resolvers(ctx); err != nil {
		return nil, err
	}
	if a.encounterTropes == nil {
		a.encounterTropes = internal.NewEncounterTropesResolver(a.cfg, a.store, a.client, func(res internal.Resolution) {
			internal.LogInfo("Encounter tropes refreshed from %s (%d item(s))", res.Source, res.Count)
		})
	}
	if a.template == nil {
		a.template = internal.NewPromptTemplateResolver(a.cfg, a.store, a.client, func(res internal.Resolution) {
			internal.LogInfo("Prompt template refreshed from %s", res.Source)
		})
	}
	return []*internal.Resolver{a.tropes, a.encounter, a.encounterTropes, a.template}, nil
}

// EncounterTropes loads the personal tropes that can be attached to an
// encounter.
func (a *appContext) EncounterTropes(ctx context.Context) (internal.Pool, error) {
	if _, err := a.TableResolvers(ctx); err != nil {
		return nil, err
	}
	var pool internal.Pool
	err := internal.ShowProgress(ctx, "Loading personal tropes...", func() error {
		var loadErr error
		pool, _, loadErr = internal.LoadTropes(ctx, a.encounterTropes)
		return loadErr
	})
	return pool, err
}

// PromptTemplate resolves the encounter prompt template.
func (a *appContext) PromptTemplate(ctx context.Context) (string, error) {
	if _, err := a.TableResolvers(ctx); err != nil {
		return "", err
	}
	tmpl, res, err := internal.LoadPromptTemplate(ctx, a.template)
	if err != nil {
		return "", err
	}
	internal.LogDebug("Using prompt template from %s", res.Source)
	return tmpl, nil
}

// exporter returns the exporter for format. Encounter prompts get the
// resolved template.
func (a *appContext) exporter(ctx context.Context, format string, doc *internal.Document) (export.Exporter, error) {
	exporter, err := export.NewExporter(format)
	if err != nil {
		return nil, err
	}
	if p, ok := exporter.(*export.PromptExporter); ok && doc.Kind == internal.DocumentKindEncounter {
		tmpl, err := a.PromptTemplate(ctx)
		if err != nil {
			return nil, err
		}
		p.Template = tmpl
	}
	return exporter, nil
}

// Pools loads the default trope pool and, unless skipped, the personal pool.
func (a *appContext) Pools(ctx context.Context, withPersonal bool) (internal.Pool, internal.Pool, error) {
	tropes, _, err := a.Resolvers(ctx)
	if err != nil {
		return nil, nil, err
	}
	var primary internal.Pool
	err = internal.ShowProgress(ctx, "Loading story tropes...", func() error {
		var loadErr error
		primary, _, loadErr = internal.LoadTropes(ctx, tropes)
		return loadErr
	})
	if err != nil {
		return nil, nil, err
	}
	if !withPersonal {
		return primary, nil, nil
	}
	personal, err := a.Personal(ctx)
	if err != nil {
		return nil, nil, err
	}
	secondary, err := personal.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return primary, secondary, nil
}

// Categories loads the encounter input table.
func (a *appContext) Categories(ctx context.Context) (*internal.CategoryTable, error) {
	_, encounter, err := a.Resolvers(ctx)
	if err != nil {
		return nil, err
	}
	var table *internal.CategoryTable
	err = internal.ShowProgress(ctx, "Loading encounter inputs...", func() error {
		var loadErr error
		table, _, loadErr = internal.LoadCategories(ctx, encounter)
		return loadErr
	})
	return table, err
}

// CustomInputs returns the custom input list backed by the store.
func (a *appContext) CustomInputs(ctx context.Context) (*internal.CustomInputs, error) {
	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	return internal.NewCustomInputs(store, a.cfg.CustomInputTTL), nil
}

// Personal returns the personal data handle backed by the store.
func (a *appContext) Personal(ctx context.Context) (*internal.PersonalData, error) {
	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	return internal.NewPersonalData(store), nil
}

// CategoryStore loads the encounter table and wraps it with the custom inputs.
func (a *appContext) CategoryStore(ctx context.Context) (*internal.CategoryStore, error) {
	table, err := a.Categories(ctx)
	if err != nil {
		return nil, err
	}
	custom, err := a.CustomInputs(ctx)
	if err != nil {
		return nil, err
	}
	return internal.NewCategoryStore(table, custom, a.sampler), nil
}

// Close waits for background refreshes and closes the store. A refresh may
// try every remote source in turn, so the wait is bounded by the slowest
// resolver's refresh budget.
func (a *appContext) Close() error {
	if !a.cfg.Offline {
		resolvers := a.openResolvers()
		if budget := refreshBudget(resolvers...); budget > 0 {
			ctx, cancel := context.WithTimeout(context.Background(), budget)
			defer cancel()
			for _, r := range resolvers {
				if err := r.Wait(ctx); err != nil {
					internal.LogDebug("Gave up waiting for background refresh: %v", err)
					break
				}
			}
		}
	}
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func (a *appContext) openResolvers() []*internal.Resolver {
	var out []*internal.Resolver
	for _, r := range []*internal.Resolver{a.tropes, a.encounter, a.encounterTropes, a.template} {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// refreshBudget returns the largest refresh budget among resolvers.
// Refreshes run concurrently, so the slowest one bounds the wait.
func refreshBudget(resolvers ...*internal.Resolver) time.Duration {
	var budget time.Duration
	for _, r := range resolvers {
		budget = max(budget, r.RefreshBudget())
	}
	return budget
}

// writeDocument renders doc in format to path, or to w when path is empty.
// An empty format is taken from the path's extension, then defaults to txt.
func writeDocument(ctx context.Context, w io.Writer, doc *internal.Document, format, path string) error {
	if format == "" {
		format = export.FormatFromPath(path)
	}
	if format == "" {
		format = "txt"
	}
	exporter, err := app.exporter(ctx, format, doc)
	if err != nil {
		return err
	}
	if path == "" {
		if err := exporter.Export(doc, w); err != nil {
			return &internal.ExportError{Format: format, Path: "stdout", Err: err}
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &internal.ExportError{Format: format, Path: path, Err: err}
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := exporter.Export(doc, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	internal.PrintSuccess(fmt.Sprintf("Wrote %d item(s) to %s", len(doc.Entries), path))
	return nil
}

// readDocument loads a json or yaml export.
func readDocument(path string) (*internal.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return export.ReadDocument(file, export.FormatFromPath(path))
}

func documentTitle(kind string) string {
	stamp := time.Now().Format("2006-01-02")
	if kind == internal.DocumentKindEncounter {
		return "Encounter " + stamp
	}
	return "Story Tropes " + stamp
}
