package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestJWTSessionRoundTrip(t *testing.T) {
	s := NewJWTSessionStore("test-secret", time.Hour, nil)
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
}

func TestJWTSessionRejectsTamperedToken(t *testing.T) {
	s := NewJWTSessionStore("test-secret", time.Hour, nil)
	other := NewJWTSessionStore("other-secret", time.Hour, nil)
	token, err := other.NewSession("user:u1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, _ := s.SubjectFromToken(token); ok {
		t.Fatal("token signed with another secret accepted")
	}
	if _, ok, _ := s.SubjectFromToken("not-a-jwt"); ok {
		t.Fatal("garbage token accepted")
	}
}

func TestJWTSessionDeleteRevokesToken(t *testing.T) {
	s := NewJWTSessionStore("test-secret", time.Hour, NewMemoryTokenRevoker())
	token, err := s.NewSession("org:o1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := s.SubjectFromToken(token); ok {
		t.Fatal("revoked token still resolves")
	}
}

func TestJWTSessionRedisRevoker(t *testing.T) {
	mr := miniredis.RunT(t)
	revoker := NewRedisTokenRevoker(mr.Addr(), "")
	s := NewJWTSessionStore("test-secret", time.Hour, revoker)

	token, err := s.NewSession("user:u1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, _ := s.SubjectFromToken(token); !ok {
		t.Fatal("fresh token rejected")
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := s.SubjectFromToken(token); ok {
		t.Fatal("revoked token still resolves")
	}
}
