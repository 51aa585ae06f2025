package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
)

// SourceKind groups sources by the resolver step they belong to.
type SourceKind string

const (
	SourceCache    SourceKind = "cache"
	SourceRemote   SourceKind = "remote"
	SourceBundled  SourceKind = "bundled"
	SourceFallback SourceKind = "fallback"
)

// maxTableBytes caps how much of a response body is read.
const maxTableBytes = 8 << 20

// Source is one strategy for obtaining raw table text.
type Source interface {
	Name() string
	Kind() SourceKind
	Fetch(ctx context.Context) (string, error)
}

// HTTPSource fetches a table directly from its URL.
type HTTPSource struct {
	Label  string
	URL    string
	Client *http.Client
}

// NewHTTPSource creates a direct remote source.
func NewHTTPSource(label, rawURL string, client *http.Client) *HTTPSource {
	return &HTTPSource{Label: label, URL: rawURL, Client: client}
}

func (s *HTTPSource) Name() string     { return s.Label }
func (s *HTTPSource) Kind() SourceKind { return SourceRemote }

func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	header := http.Header{}
	header.Set("Accept", "text/csv,text/plain,*/*")
	header.Set("Cache-Control", "no-cache")
	body, err := httpGet(ctx, s.Client, s.URL, header)
	if err != nil {
		return "", withSource(err, s.Label)
	}
	return string(body), nil
}

// AllOriginsSource fetches a table through a JSON relay that wraps the
// target document as {"contents": "..."}.
type AllOriginsSource struct {
	Label    string
	Endpoint string
	Target   string
	Client   *http.Client
}

func (s *AllOriginsSource) Name() string     { return s.Label }
func (s *AllOriginsSource) Kind() SourceKind { return SourceRemote }

func (s *AllOriginsSource) Fetch(ctx context.Context) (string, error) {
	u := s.Endpoint + "?url=" + url.QueryEscape(s.Target)
	body, err := httpGet(ctx, s.Client, u, nil)
	if err != nil {
		return "", withSource(err, s.Label)
	}
	var payload struct {
		Contents string `json:"contents"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &FetchError{Source: s.Label, URL: u, Err: fmt.Errorf("decode relay payload: %w", err)}
	}
	if payload.Contents == "" {
		return "", &FetchError{Source: s.Label, URL: u, Err: fmt.Errorf("relay returned no contents")}
	}
	return payload.Contents, nil
}

// PrefixProxySource fetches a table through a relay that takes the target
// URL appended to its own.
type PrefixProxySource struct {
	Label  string
	Prefix string
	Target string
	Client *http.Client
}

func (s *PrefixProxySource) Name() string     { return s.Label }
func (s *PrefixProxySource) Kind() SourceKind { return SourceRemote }

func (s *PrefixProxySource) Fetch(ctx context.Context) (string, error) {
	header := http.Header{}
	header.Set("X-Requested-With", "XMLHttpRequest")
	body, err := httpGet(ctx, s.Client, s.Prefix+s.Target, header)
	if err != nil {
		return "", withSource(err, s.Label)
	}
	return string(body), nil
}

// BundledSource reads a table shipped inside the binary.
type BundledSource struct {
	Label string
	FS    fs.FS
	Path  string
}

func (s *BundledSource) Name() string     { return s.Label }
func (s *BundledSource) Kind() SourceKind { return SourceBundled }

func (s *BundledSource) Fetch(_ context.Context) (string, error) {
	data, err := fs.ReadFile(s.FS, s.Path)
	if err != nil {
		return "", &FetchError{Source: s.Label, URL: s.Path, Err: err}
	}
	return string(data), nil
}

// StaticSource returns fixed text; it is the last resort of every chain.
type StaticSource struct {
	Label string
	Text  string
}

func (s *StaticSource) Name() string     { return s.Label }
func (s *StaticSource) Kind() SourceKind { return SourceFallback }

func (s *StaticSource) Fetch(_ context.Context) (string, error) {
	return s.Text, nil
}

func httpGet(ctx context.Context, client *http.Client, rawURL string, header http.Header) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: rawURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTableBytes))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	return body, nil
}

func withSource(err error, label string) error {
	if fe, ok := err.(*FetchError); ok {
		fe.Source = label
		return fe
	}
	return err
}

// RemoteSources builds the remote siblings for one table: the canonical URL,
// its mirrors, and optionally the two public relays wrapping the canonical URL.
func RemoteSources(table, canonical string, mirrors []string, cfg Config, client *http.Client) []Source {
	var sources []Source
	if canonical != "" {
		sources = append(sources, NewHTTPSource(table+":direct", canonical, client))
	}
	for i, m := range mirrors {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		sources = append(sources, NewHTTPSource(fmt.Sprintf("%s:mirror-%d", table, i+1), m, client))
	}
	if cfg.UseProxies && canonical != "" {
		if cfg.AllOriginsURL != "" {
			sources = append(sources, &AllOriginsSource{Label: table + ":allorigins", Endpoint: cfg.AllOriginsURL, Target: canonical, Client: client})
		}
		if cfg.CORSProxyURL != "" {
			sources = append(sources, &PrefixProxySource{Label: table + ":cors-proxy", Prefix: cfg.CORSProxyURL, Target: canonical, Client: client})
		}
	}
	return sources
}
