package session

import "testing"

func TestSession(t *testing.T) {
	t.Parallel()
	s := New()
	if s.Authenticated() {
		t.Fatal("new session should not be authenticated")
	}
	if s.Token() != "" {
		t.Fatalf("token = %q, want empty", s.Token())
	}

	s.Set("abc")
	if !s.Authenticated() {
		t.Fatal("session should be authenticated after Set")
	}
	if s.Token() != "abc" {
		t.Fatalf("token = %q, want abc", s.Token())
	}

	s.Set("def")
	if s.Token() != "def" {
		t.Fatalf("token = %q, want def (latest wins)", s.Token())
	}
}
