package linecard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// catalogServer serves pages keyed by offset token and counts requests.
func catalogServer(t *testing.T, pages map[string]any, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, `{"error":"AUTHENTICATION_REQUIRED"}`, http.StatusUnauthorized)
			return
		}
		page, ok := pages[r.URL.Query().Get("offset")]
		if !ok {
			http.Error(w, "bad offset", http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher(t *testing.T, srv *httptest.Server, env map[string]string) *Fetcher {
	t.Helper()
	f, err := NewFetcher(FetcherConfig{
		BaseURL: srv.URL,
		BaseID:  "appTest",
		Table:   "tblTest",
	}, WithHTTPClient(srv.Client()), WithEnvLookup(envWith(env)))
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	return f
}

func attrs(name, parent, region, states string) map[string]any {
	f := map[string]any{FieldName: name, FieldRegion: []any{region}, FieldStates: states}
	if parent != "" {
		f[FieldParent] = parent
	}
	return f
}

func TestFetcher_FetchGrouped_TwoPages(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := catalogServer(t, map[string]any{
		"": map[string]any{
			"records": []any{
				map[string]any{"id": "r1", "fields": attrs("Acme", "", "West", "CA")},
			},
			"offset": "itrNext",
		},
		"itrNext": map[string]any{
			"records": []any{
				map[string]any{"id": "r2", "fields": attrs("Acme Sub", "Acme", "West", "CA, NV")},
				map[string]any{"id": "r3", "fields": attrs("Beta", "", "East", "FL")},
			},
		},
	}, &hits)

	f := newTestFetcher(t, srv, map[string]string{DefaultTokenEnv: "secret"})
	g, err := f.FetchGrouped(context.Background(), "west", "ca")
	if err != nil {
		t.Fatalf("FetchGrouped: %v", err)
	}

	if got := hits.Load(); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
	if diff := cmp.Diff([]string{"Acme"}, g.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if g[0].Parent == nil || g[0].Parent.ID != "r1" || len(g[0].Children) != 1 || g[0].Children[0].ID != "r2" {
		t.Errorf("cluster = %+v", g[0])
	}
}

func TestFetcher_MissingCredential(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unset", map[string]string{}},
		{"blank", map[string]string{DefaultTokenEnv: "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hits atomic.Int32
			srv := catalogServer(t, map[string]any{"": map[string]any{"records": []any{}}}, &hits)
			f := newTestFetcher(t, srv, tt.env)

			if f.HasCredential() {
				t.Error("HasCredential() = true, want false")
			}
			_, err := f.FetchGrouped(context.Background(), "West", "")
			if !errors.Is(err, ErrMissingCredential) {
				t.Fatalf("error = %v, want ErrMissingCredential", err)
			}
			if got := hits.Load(); got != 0 {
				t.Errorf("requests = %d, want 0", got)
			}
		})
	}
}

func TestFetcher_CustomTokenEnv(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := catalogServer(t, map[string]any{"": map[string]any{"records": []any{}}}, &hits)
	f, err := NewFetcher(FetcherConfig{
		BaseURL:  srv.URL,
		BaseID:   "appTest",
		Table:    "tblTest",
		TokenEnv: "CATALOG_TOKEN",
	}, WithHTTPClient(srv.Client()), WithEnvLookup(envWith(map[string]string{"CATALOG_TOKEN": "secret"})))
	if err != nil {
		t.Fatal(err)
	}

	if f.TokenEnv() != "CATALOG_TOKEN" {
		t.Errorf("TokenEnv() = %q", f.TokenEnv())
	}
	g, err := f.FetchGrouped(context.Background(), "West", "")
	if err != nil {
		t.Fatalf("FetchGrouped: %v", err)
	}
	if g.Len() != 0 {
		t.Errorf("Len() = %d, want 0", g.Len())
	}
}

func TestFetcher_StatusError(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := catalogServer(t, nil, &hits)
	f := newTestFetcher(t, srv, map[string]string{DefaultTokenEnv: "wrong"})

	_, err := f.FetchGrouped(context.Background(), "West", "")
	if !errors.Is(err, ErrRetrieval) {
		t.Fatalf("error = %v, want ErrRetrieval", err)
	}
	var re *RetrievalError
	if !errors.As(err, &re) {
		t.Fatalf("error %T is not *RetrievalError", err)
	}
	if re.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", re.StatusCode)
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want 1 (no retry)", hits.Load())
	}
}

func TestFetcher_EmptyRegion(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := catalogServer(t, nil, &hits)
	f := newTestFetcher(t, srv, map[string]string{DefaultTokenEnv: "secret"})

	if _, err := f.FetchGrouped(context.Background(), " ", ""); !errors.Is(err, ErrInvalidRegion) {
		t.Errorf("error = %v, want ErrInvalidRegion", err)
	}
}

func TestNewFetcher_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := NewFetcher(FetcherConfig{BaseID: "", Table: "tbl"})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}
