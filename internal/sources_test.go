package internal

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/iksnae/tropedeck/testutil"
)

func TestHTTPSource_Fetch(t *testing.T) {
	var gotAccept string
	srv := testutil.NewHandlerServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("a,b\n"))
	})
	got, err := NewHTTPSource("direct", srv.URL, srv.Client()).Fetch(context.Background())
	if err != nil || got != "a,b\n" {
		t.Fatalf("Fetch() = %q, %v", got, err)
	}
	if gotAccept == "" {
		t.Error("Fetch() should send an Accept header")
	}
}

func TestHTTPSource_StatusError(t *testing.T) {
	srv := testutil.NewTextServer(t, http.StatusNotFound, "gone")
	_, err := NewHTTPSource("direct", srv.URL, srv.Client()).Fetch(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Fetch() error = %v, want FetchError", err)
	}
	if fe.Status != http.StatusNotFound || fe.Source != "direct" {
		t.Errorf("FetchError = %+v", fe)
	}
}

func TestAllOriginsSource_Fetch(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"contents", `{"contents":"#,Trope name,Trope detail\n1,A,B"}`, "#,Trope name,Trope detail\n1,A,B", false},
		{"empty contents", `{"contents":""}`, "", true},
		{"not json", `<html>`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotTarget string
			srv := testutil.NewHandlerServer(t, func(w http.ResponseWriter, r *http.Request) {
				gotTarget = r.URL.Query().Get("url")
				_, _ = w.Write([]byte(tt.body))
			})
			src := &AllOriginsSource{Label: "allorigins", Endpoint: srv.URL + "/get", Target: "https://example.com/data.csv?x=1", Client: srv.Client()}
			got, err := src.Fetch(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Fetch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Fetch() = %q, want %q", got, tt.want)
			}
			if gotTarget != "https://example.com/data.csv?x=1" {
				t.Errorf("relay received target %q", gotTarget)
			}
		})
	}
}

func TestPrefixProxySource_Fetch(t *testing.T) {
	var gotPath, gotHeader string
	srv := testutil.NewHandlerServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeader = r.Header.Get("X-Requested-With")
		_, _ = w.Write([]byte("table"))
	})
	src := &PrefixProxySource{Label: "cors", Prefix: srv.URL + "/", Target: "data.csv", Client: srv.Client()}
	got, err := src.Fetch(context.Background())
	if err != nil || got != "table" {
		t.Fatalf("Fetch() = %q, %v", got, err)
	}
	if gotPath != "/data.csv" || gotHeader != "XMLHttpRequest" {
		t.Errorf("proxy got path %q header %q", gotPath, gotHeader)
	}
}

func TestRemoteSources(t *testing.T) {
	cfg := Config{UseProxies: true, AllOriginsURL: "https://relay/get", CORSProxyURL: "https://cors/"}
	sources := RemoteSources("tropes", "https://canonical/data.csv", []string{"https://mirror/a.csv", " "}, cfg, nil)
	var names []string
	for _, s := range sources {
		if s.Kind() != SourceRemote {
			t.Errorf("%s has kind %s", s.Name(), s.Kind())
		}
		names = append(names, s.Name())
	}
	want := []string{"tropes:direct", "tropes:mirror-1", "tropes:allorigins", "tropes:cors-proxy"}
	if len(names) != len(want) {
		t.Fatalf("sources = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("source %d = %s, want %s", i, names[i], want[i])
		}
	}

	cfg.UseProxies = false
	if got := RemoteSources("tropes", "https://canonical/data.csv", nil, cfg, nil); len(got) != 1 {
		t.Errorf("without proxies got %d sources, want 1", len(got))
	}
	if got := RemoteSources("encounter", "", nil, cfg, nil); len(got) != 0 {
		t.Errorf("no canonical URL should yield no sources, got %d", len(got))
	}
}
