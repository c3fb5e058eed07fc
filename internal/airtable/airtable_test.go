package airtable_test

// Notes:
// - Tests use httptest servers and srv.Client(); srv.Close releases idle
//   connections, which keeps goleak quiet.
// - Rate limiting is disabled in most tests to keep them fast; one test
//   checks that a cancelled context stops a throttled fetch.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/alnah/go-linecard/internal/airtable"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// pagedServer serves pages in order, keyed by the offset token.
func pagedServer(t *testing.T, pages map[string]map[string]any, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer pat-123" {
			http.Error(w, `{"error":"AUTHENTICATION_REQUIRED"}`, http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/v0/appBase/tblCatalog" {
			http.NotFound(w, r)
			return
		}
		page, ok := pages[r.URL.Query().Get("offset")]
		if !ok {
			http.Error(w, "unknown offset", http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server, opts ...airtable.Option) *airtable.Client {
	t.Helper()
	opts = append([]airtable.Option{
		airtable.WithBaseURL(srv.URL),
		airtable.WithHTTPClient(srv.Client()),
		airtable.WithRateLimit(0),
	}, opts...)
	c, err := airtable.New("appBase", "tblCatalog", opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func record(id, name string) map[string]any {
	return map[string]any{"id": id, "createdTime": "2024-01-01T00:00:00.000Z", "fields": map[string]any{"Manufacturer Names": name}}
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseID  string
		table   string
		opts    []airtable.Option
		wantErr bool
		wantURL string
	}{
		{name: "defaults", baseID: "appX", table: "tblY", wantURL: "https://api.airtable.com/v0/appX/tblY"},
		{name: "custom base", baseID: "appX", table: "tblY", opts: []airtable.Option{airtable.WithBaseURL("http://proxy:8080/")}, wantURL: "http://proxy:8080/v0/appX/tblY"},
		{name: "missing base", table: "tblY", wantErr: true},
		{name: "missing table", baseID: "appX", table: "  ", wantErr: true},
		{name: "bad scheme", baseID: "appX", table: "tblY", opts: []airtable.Option{airtable.WithBaseURL("ftp://x")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := airtable.New(tt.baseID, tt.table, tt.opts...)
			if tt.wantErr {
				if !errors.Is(err, airtable.ErrConfig) {
					t.Fatalf("New() error = %v, want ErrConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if c.Endpoint() != tt.wantURL {
				t.Errorf("Endpoint() = %q, want %q", c.Endpoint(), tt.wantURL)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// ListRecords
// ---------------------------------------------------------------------------

func TestListRecords_FollowsOffsets(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := pagedServer(t, map[string]map[string]any{
		"":     {"records": []any{record("rec1", "Acme"), record("rec2", "Beta")}, "offset": "itr2"},
		"itr2": {"records": []any{record("rec3", "Zylo")}},
	}, &hits)

	got, err := newClient(t, srv).ListRecords(context.Background(), "pat-123")
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	if diff := cmp.Diff([]string{"rec1", "rec2", "rec3"}, ids); diff != "" {
		t.Errorf("record IDs mismatch (-want +got):\n%s", diff)
	}
	if got[2].Fields["Manufacturer Names"] != "Zylo" {
		t.Errorf("fields not decoded: %+v", got[2].Fields)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}
}

func TestListRecords_SendsPageSize(t *testing.T) {
	t.Parallel()

	var gotSize, gotOffset atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSize.Store(r.URL.Query().Get("pageSize"))
		gotOffset.Store(r.URL.Query().Has("offset"))
		_, _ = w.Write([]byte(`{"records":[]}`))
	}))
	t.Cleanup(srv.Close)

	if _, err := newClient(t, srv, airtable.WithPageSize(25)).ListRecords(context.Background(), "tok"); err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if gotSize.Load() != "25" {
		t.Errorf("pageSize = %v, want 25", gotSize.Load())
	}
	if gotOffset.Load() != false {
		t.Error("first request carried an offset parameter")
	}
}

func TestListRecords_MissingToken(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := pagedServer(t, nil, &hits)

	for _, token := range []string{"", "   "} {
		_, err := newClient(t, srv).ListRecords(context.Background(), token)
		if !errors.Is(err, airtable.ErrMissingToken) {
			t.Errorf("ListRecords(%q) error = %v, want ErrMissingToken", token, err)
		}
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("requests = %d, want 0 before any network call", n)
	}
}

func TestListRecords_StatusError(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", airtable.MaxErrorBody*2)
	tests := []struct {
		name     string
		status   int
		body     string
		wantBody int
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"AUTHENTICATION_REQUIRED"}`},
		{name: "rate limited", status: http.StatusTooManyRequests, body: "slow down"},
		{name: "server error truncated", status: http.StatusInternalServerError, body: long, wantBody: airtable.MaxErrorBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			_, err := newClient(t, srv).ListRecords(context.Background(), "tok")
			if !errors.Is(err, airtable.ErrStatus) {
				t.Fatalf("error = %v, want ErrStatus", err)
			}
			var se *airtable.StatusError
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not *StatusError", err)
			}
			if se.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", se.StatusCode, tt.status)
			}
			if tt.wantBody > 0 && len(se.Body) != tt.wantBody {
				t.Errorf("len(Body) = %d, want %d", len(se.Body), tt.wantBody)
			}
			if tt.wantBody == 0 && se.Body != tt.body {
				t.Errorf("Body = %q, want %q", se.Body, tt.body)
			}
		})
	}
}

func TestListRecords_StatusErrorOnSecondPage(t *testing.T) {
	t.Parallel()

	srv := pagedServer(t, map[string]map[string]any{
		"": {"records": []any{record("rec1", "Acme")}, "offset": "gone"},
	}, nil)

	got, err := newClient(t, srv).ListRecords(context.Background(), "pat-123")
	if got != nil {
		t.Errorf("partial records returned: %v", got)
	}
	var se *airtable.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("error = %v, want 422 StatusError", err)
	}
}

func TestListRecords_InvalidJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"records": [`))
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(t, srv).ListRecords(context.Background(), "tok")
	if !errors.Is(err, airtable.ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
}

func TestListRecords_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	_, err := newClient(t, srv, airtable.WithTimeout(50*time.Millisecond)).ListRecords(context.Background(), "tok")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestListRecords_RateLimitHonorsContext(t *testing.T) {
	t.Parallel()

	srv := pagedServer(t, map[string]map[string]any{
		"":  {"records": []any{}, "offset": "a"},
		"a": {"records": []any{}},
	}, nil)

	// One request every ten seconds: the second page must wait.
	c := newClient(t, srv, airtable.WithRateLimit(0.1))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, err := c.ListRecords(ctx, "pat-123"); err == nil {
		t.Fatal("ListRecords() = nil error, want rate limiter to give up on the deadline")
	}
}

func TestEachPage_CallbackErrorStops(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := pagedServer(t, map[string]map[string]any{
		"":  {"records": []any{record("rec1", "Acme")}, "offset": "b"},
		"b": {"records": []any{record("rec2", "Beta")}},
	}, &hits)

	stop := errors.New("stop")
	err := newClient(t, srv).EachPage(context.Background(), "pat-123", func([]airtable.Record) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("EachPage() error = %v, want callback error", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}
