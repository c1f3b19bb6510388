package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"atelier/internal/domain/bilingual"
	"atelier/internal/domain/member"
)

type captureSender struct {
	requests []SendRequest
	err      error
}

func (s *captureSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return SendResult{}, s.err
	}
	return SendResult{MessageID: "msg-1", SentAt: time.Now()}, nil
}

func testMember() member.Member {
	return member.Member{
		ID:   "mem-1",
		Name: bilingual.Text{He: "דנה", En: "Dana"},
		Role: bilingual.Text{He: "מורה", En: "Teacher"},
	}
}

func TestProfileCommittedSends(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(sender, []string{"admin@atelier.example"})

	n.ProfileCommitted(context.Background(), testMember())

	if len(sender.requests) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sender.requests))
	}
	req := sender.requests[0]
	if req.To[0] != "admin@atelier.example" {
		t.Errorf("To = %v", req.To)
	}
	if !strings.Contains(req.Subject, "Dana") {
		t.Errorf("Subject = %q, want member name", req.Subject)
	}
	if !strings.Contains(req.HTML, "mem-1") {
		t.Errorf("HTML = %q, want member id", req.HTML)
	}
}

func TestProfileCommittedNoRecipients(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(sender, nil)

	n.ProfileCommitted(context.Background(), testMember())

	if len(sender.requests) != 0 {
		t.Errorf("sent %d emails, want 0", len(sender.requests))
	}
}

func TestProfileCommittedSwallowsSendFailure(t *testing.T) {
	sender := &captureSender{err: errors.New("provider down")}
	n := NewNotifier(sender, []string{"admin@atelier.example"})

	// Must not panic or propagate the failure.
	n.ProfileCommitted(context.Background(), testMember())
}

func TestNoopSender(t *testing.T) {
	result, err := NewNoopSender().Send(context.Background(), SendRequest{
		To:      []string{"someone@example.org"},
		Subject: "hello",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if result.MessageID == "" {
		t.Error("MessageID is empty")
	}
}
