package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) result {
	t.Helper()
	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return body
}

func ok(_ context.Context) error { return nil }

func TestHealthz(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	New().Healthz(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := decode(t, rec); body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checkers   []Checker
		wantStatus int
		wantBody   string
		wantChecks map[string]string
	}{
		{
			name:       "no checkers",
			wantStatus: http.StatusOK,
			wantBody:   "ok",
			wantChecks: map[string]string{},
		},
		{
			name: "all pass",
			checkers: []Checker{
				{Name: "graph", Check: ok},
				{Name: "store", Check: ok},
			},
			wantStatus: http.StatusOK,
			wantBody:   "ok",
			wantChecks: map[string]string{"graph": "ok", "store": "ok"},
		},
		{
			name: "one fails",
			checkers: []Checker{
				{Name: "store", Check: func(context.Context) error { return errors.New("connection refused") }},
				{Name: "graph", Check: ok},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "fail",
			wantChecks: map[string]string{"store": "fail: connection refused", "graph": "ok"},
		},
		{
			name: "empty graph",
			checkers: []Checker{
				GraphChecker("graph", func() int { return 0 }),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "fail",
			wantChecks: map[string]string{"graph": "fail: " + ErrEmptyGraph.Error()},
		},
		{
			name: "loaded graph",
			checkers: []Checker{
				GraphChecker("graph", func() int { return 12 }),
			},
			wantStatus: http.StatusOK,
			wantBody:   "ok",
			wantChecks: map[string]string{"graph": "ok"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			New(tc.checkers...).Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			body := decode(t, rec)
			if body.Status != tc.wantBody {
				t.Errorf("body status = %q, want %q", body.Status, tc.wantBody)
			}
			if len(body.Checks) != len(tc.wantChecks) {
				t.Errorf("checks = %v, want %v", body.Checks, tc.wantChecks)
			}
			for k, want := range tc.wantChecks {
				if got := body.Checks[k]; got != want {
					t.Errorf("check %q = %q, want %q", k, got, want)
				}
			}
		})
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestPingChecker(t *testing.T) {
	t.Parallel()
	if err := PingChecker("db", stubPinger{}).Check(context.Background()); err != nil {
		t.Errorf("healthy ping: %v", err)
	}
	want := errors.New("down")
	c := PingChecker("db", stubPinger{err: want})
	if c.Name != "db" {
		t.Errorf("Name = %q", c.Name)
	}
	if err := c.Check(context.Background()); !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestRegister_RoutesWork(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	New(Checker{Name: "test", Check: ok}).Register(mux)

	for _, path := range []string{"/healthz", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
			}
		})
	}
}

func TestReadyz_RespectsContextCancellation(t *testing.T) {
	t.Parallel()
	h := New(Checker{Name: "slow", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil).WithContext(ctx))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
