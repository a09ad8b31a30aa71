package sonarqube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nao1215/sonarreport/internal/loader"
)

// fakeServer serves total issues in pages and records the requests it saw.
type fakeServer struct {
	total    int
	requests atomic.Int32
	lastAuth atomic.Value
	lastPath atomic.Value
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	f.lastPath.Store(r.URL.Path)
	user, pass, ok := r.BasicAuth()
	f.lastAuth.Store(fmt.Sprintf("%v:%s:%s", ok, user, pass))

	q := r.URL.Query()
	if q.Get("resolved") != "false" || q.Get("componentKeys") == "" {
		http.Error(w, "bad query", http.StatusBadRequest)
		return
	}
	ps, _ := strconv.Atoi(q.Get("ps"))
	p, _ := strconv.Atoi(q.Get("p"))

	issues := make([]Issue, 0, ps)
	for i := (p - 1) * ps; i < min(p*ps, f.total); i++ {
		line := i + 1
		issues = append(issues, Issue{
			Key:       "k" + strconv.Itoa(i),
			Type:      "BUG",
			Severity:  "MAJOR",
			Message:   "issue " + strconv.Itoa(i),
			Component: q.Get("componentKeys") + ":main.go",
			Line:      &line,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(searchResponse{
		Issues: issues,
		Paging: paging{PageIndex: p, PageSize: ps, Total: f.total},
	})
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()

	opts = append([]Option{WithHTTPClient(srv.Client()), WithRateLimit(0)}, opts...)
	c, err := NewClient(srv.URL, "squ_token", opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"http", "http://localhost:9000", false},
		{"https with path", "https://sonar.example.com/sonar/", false},
		{"no scheme", "localhost:9000", true},
		{"ftp", "ftp://example.com", true},
		{"no host", "http://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewClient(tt.url, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewClient(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidURL) {
				t.Errorf("error = %v, want ErrInvalidURL", err)
			}
		})
	}
}

func TestWithPageSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want int
	}{
		{0, 1},
		{-3, 1},
		{100, 100},
		{9999, DefaultPageSize},
	}

	for _, tt := range tests {
		c, err := NewClient("http://localhost", "", WithPageSize(tt.in))
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		if c.pageSize != tt.want {
			t.Errorf("WithPageSize(%d) = %d, want %d", tt.in, c.pageSize, tt.want)
		}
	}
}

func TestClient_FetchIssues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		total        int
		pageSize     int
		wantIssues   int
		wantRequests int32
	}{
		{name: "empty project", total: 0, pageSize: 500, wantIssues: 0, wantRequests: 1},
		{name: "single page", total: 3, pageSize: 500, wantIssues: 3, wantRequests: 1},
		{name: "exact pages", total: 10, pageSize: 5, wantIssues: 10, wantRequests: 2},
		{name: "partial last page", total: 11, pageSize: 5, wantIssues: 11, wantRequests: 3},
		{name: "result window cap", total: 10500, pageSize: 500, wantIssues: MaxResults, wantRequests: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := &fakeServer{total: tt.total}
			srv := httptest.NewServer(fake)
			defer srv.Close()

			c := newTestClient(t, srv, WithPageSize(tt.pageSize))
			issues, err := c.FetchIssues(t.Context(), "proj")
			if err != nil {
				t.Fatalf("FetchIssues() error = %v", err)
			}
			if len(issues) != tt.wantIssues {
				t.Errorf("FetchIssues() returned %d issues, want %d", len(issues), tt.wantIssues)
			}
			if got := fake.requests.Load(); got != tt.wantRequests {
				t.Errorf("server saw %d requests, want %d", got, tt.wantRequests)
			}
			for i, issue := range issues {
				if want := "issue " + strconv.Itoa(i); issue.Message != want {
					t.Fatalf("issue %d message = %q, want %q", i, issue.Message, want)
				}
			}
		})
	}
}

func TestClient_FetchIssuesAuth(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{total: 1}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := newTestClient(t, srv)
	if _, err := c.FetchIssues(t.Context(), "proj"); err != nil {
		t.Fatalf("FetchIssues() error = %v", err)
	}
	if got := fake.lastAuth.Load(); got != "true:squ_token:" {
		t.Errorf("basic auth = %v, want token as user with empty password", got)
	}
	if got := fake.lastPath.Load(); got != issuesPath {
		t.Errorf("path = %v, want %s", got, issuesPath)
	}
}

func TestClient_FetchIssuesBasePath(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{total: 1}
	mux := http.NewServeMux()
	mux.Handle("/sonar"+issuesPath, fake)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewClient(srv.URL+"/sonar/", "", WithHTTPClient(srv.Client()), WithRateLimit(0))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	issues, err := c.FetchIssues(t.Context(), "proj")
	if err != nil {
		t.Fatalf("FetchIssues() error = %v", err)
	}
	if len(issues) != 1 {
		t.Errorf("FetchIssues() returned %d issues, want 1", len(issues))
	}
}

func TestClient_FetchIssuesErrors(t *testing.T) {
	t.Parallel()

	t.Run("non-2xx status", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"errors":[{"msg":"Insufficient privileges"}]}`, http.StatusForbidden)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv).FetchIssues(t.Context(), "proj")
		if !errors.Is(err, ErrRequestFailed) {
			t.Fatalf("error = %v, want ErrRequestFailed", err)
		}
		for _, want := range []string{"403", "Insufficient privileges"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q does not mention %q", err, want)
			}
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>login</html>"))
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv).FetchIssues(t.Context(), "proj")
		if !errors.Is(err, ErrInvalidResponse) {
			t.Errorf("error = %v, want ErrInvalidResponse", err)
		}
	})

	t.Run("empty component key", func(t *testing.T) {
		t.Parallel()

		c, err := NewClient("http://localhost:9000", "")
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		if _, err := c.FetchIssues(t.Context(), ""); err == nil {
			t.Error("FetchIssues(\"\") should fail")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(&fakeServer{total: 1})
		defer srv.Close()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		if _, err := newTestClient(t, srv).FetchIssues(ctx, "proj"); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestWriteIssuesFile(t *testing.T) {
	t.Parallel()

	t.Run("round trip through loader", func(t *testing.T) {
		t.Parallel()

		line := 12
		issues := []Issue{
			{Key: "a", Type: "BUG", Severity: "MAJOR", Message: "a<b", Component: "x.py", Line: &line},
			{Key: "b", Type: "CODE_SMELL", Severity: "INFO", Message: "file level", Component: "y.py"},
		}

		path := filepath.Join(t.TempDir(), "out", "p_sonar_issues_report.json")
		if err := WriteIssuesFile(path, issues); err != nil {
			t.Fatalf("WriteIssuesFile() error = %v", err)
		}

		loaded, err := loader.NewFileSource(path).Load(t.Context())
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(loaded) != 2 {
			t.Fatalf("loaded %d issues, want 2", len(loaded))
		}
		if loaded[0].Message != "a<b" || loaded[0].LineText() != "12" {
			t.Errorf("first issue = %+v", loaded[0])
		}
		if loaded[1].Line != nil {
			t.Errorf("second issue line = %v, want nil", *loaded[1].Line)
		}
	})

	t.Run("nil list writes empty array", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "empty.json")
		if err := WriteIssuesFile(path, nil); err != nil {
			t.Fatalf("WriteIssuesFile() error = %v", err)
		}
		loaded, err := loader.NewFileSource(path).Load(t.Context())
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(loaded) != 0 {
			t.Errorf("loaded %d issues, want 0", len(loaded))
		}
	})
}
