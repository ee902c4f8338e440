package restreamer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoginReturnsToken(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode login body: %v", err)
		}
		if req.Username != "u" || req.Password != "p" {
			t.Errorf("unexpected credentials %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "T"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	token, err := c.Login(context.Background(), "u", "p")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "T" {
		t.Fatalf("token = %q, want T", token)
	}
}

func TestLoginMissingToken(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "admin"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Login(context.Background(), "u", "p"); !errors.Is(err, ErrNoToken) {
		t.Fatalf("err = %v, want ErrNoToken", err)
	}
}

func TestLoginFailureModes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", http.StatusInternalServerError)
			},
		},
		{
			name: "bad credentials",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "forbidden", http.StatusForbidden)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL)
			if _, err := c.Login(context.Background(), "u", "p"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoginNetworkError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL)
	if _, err := c.Login(context.Background(), "u", "p"); err == nil {
		t.Fatal("expected error for refused connection")
	}
}

func TestSendCommand(t *testing.T) {
	t.Parallel()
	var gotPath, gotAuth, gotMethod string
	var gotBody struct {
		Command string `json:"command"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"state": "ok"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.SendCommand(context.Background(), "42", "tok", CommandStart, false); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("method = %s, want PUT", gotMethod)
	}
	if gotPath != "/api/v3/process/restreamer-ui%3Aingest%3A42/command" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotBody.Command != "start" {
		t.Fatalf("command = %q, want start", gotBody.Command)
	}
}

func TestSendCommandSnapshotTarget(t *testing.T) {
	t.Parallel()
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.SendCommand(context.Background(), "42", "tok", CommandStop, true); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if gotPath != "/api/v3/process/restreamer-ui%3Aingest%3A42_snapshot/command" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestSendCommandServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.SendCommand(context.Background(), "42", "tok", CommandStart, false)
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestProcessRef(t *testing.T) {
	t.Parallel()
	if got := ProcessRef("42", false); got != "restreamer-ui:ingest:42" {
		t.Fatalf("ProcessRef = %q", got)
	}
	if got := ProcessRef("42", true); got != "restreamer-ui:ingest:42_snapshot" {
		t.Fatalf("ProcessRef snapshot = %q", got)
	}
}

func TestBaseURLTrailingSlash(t *testing.T) {
	t.Parallel()
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "T"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	if _, err := c.Login(context.Background(), "u", "p"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if gotPath != "/api/login" {
		t.Fatalf("path = %q, want /api/login", gotPath)
	}
}
