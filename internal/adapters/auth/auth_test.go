package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSessionStoreCreateAndGet(t *testing.T) {
	ss := NewSessionStore()

	token, err := ss.Create("acc-1", "mem-1", "dana@example.org", "member")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if token == "" {
		t.Fatal("Create() returned empty token")
	}

	session, ok := ss.Get(token)
	if !ok {
		t.Fatal("Get() session not found")
	}
	if session.AccountID != "acc-1" || session.MemberID != "mem-1" {
		t.Errorf("session = %+v, want acc-1/mem-1", session)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	ss := NewSessionStore()
	token, err := ss.Create("acc-1", "mem-1", "dana@example.org", "member")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ss.mu.Lock()
	s := ss.sessions[token]
	s.CreatedAt = time.Now().Add(-SessionTTL - time.Minute)
	ss.sessions[token] = s
	ss.mu.Unlock()

	if _, ok := ss.Get(token); ok {
		t.Error("Get() returned expired session")
	}
	ss.mu.RLock()
	_, still := ss.sessions[token]
	ss.mu.RUnlock()
	if still {
		t.Error("expired session was not removed")
	}
}

func TestSessionStoreDelete(t *testing.T) {
	ss := NewSessionStore()
	token, _ := ss.Create("acc-1", "", "admin@example.org", "admin")
	ss.Delete(token)
	if _, ok := ss.Get(token); ok {
		t.Error("Get() returned deleted session")
	}
}

func TestEditTokenRoundTrip(t *testing.T) {
	svc, err := NewEditTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewEditTokenService() error = %v", err)
	}

	token, err := svc.Issue("mem-7")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	got, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != "mem-7" {
		t.Errorf("Verify() = %q, want %q", got, "mem-7")
	}
}

func TestEditTokenExpired(t *testing.T) {
	svc, err := NewEditTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewEditTokenService() error = %v", err)
	}

	issued := time.Now()
	svc.now = func() time.Time { return issued }
	token, err := svc.Issue("mem-7")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	svc.now = func() time.Time { return issued.Add(TokenTTL + time.Minute) }
	if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() after expiry error = %v, want ErrInvalidToken", err)
	}
}

func TestEditTokenWrongSecret(t *testing.T) {
	issuer, _ := NewEditTokenService("secret-a")
	verifier, _ := NewEditTokenService("secret-b")

	token, err := issuer.Issue("mem-7")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() with wrong secret error = %v, want ErrInvalidToken", err)
	}
}

func TestEditTokenEmptyMember(t *testing.T) {
	svc, _ := NewEditTokenService("test-secret")
	if _, err := svc.Issue(""); err == nil {
		t.Error("Issue() with empty member id succeeded")
	}
}

func TestNewEditTokenServiceEmptySecret(t *testing.T) {
	if _, err := NewEditTokenService(""); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("error = %v, want ErrEmptySecret", err)
	}
}
