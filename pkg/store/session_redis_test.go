package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisSessionRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisSessionStore(mr.Addr(), "", time.Hour)

	token, err := s.NewSession("user:u1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	subject, ok, err := s.SubjectFromToken(token)
	if err != nil {
		t.Fatalf("subject from token: %v", err)
	}
	if !ok || subject != "user:u1" {
		t.Fatalf("expected user:u1, got %q ok=%v", subject, ok)
	}

	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := s.SubjectFromToken(token); ok {
		t.Fatal("deleted session still resolves")
	}
}

func TestRedisSessionExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisSessionStore(mr.Addr(), "", time.Minute)

	token, err := s.NewSession("org:o1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := s.SubjectFromToken(token); ok {
		t.Fatal("expired session still resolves")
	}
}
