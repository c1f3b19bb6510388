package email

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"atelier/internal/domain/bilingual"
	"atelier/internal/domain/member"
)

// Notifier emails the site admins when a member commits profile changes.
// Delivery failures are logged and never surfaced to the member.
type Notifier struct {
	sender Sender
	to     []string
}

// NewNotifier creates a notifier delivering to the given admin addresses.
// An empty recipient list disables notification entirely.
func NewNotifier(sender Sender, to []string) *Notifier {
	return &Notifier{sender: sender, to: to}
}

// ProfileCommitted sends the admin notification for a committed profile.
// POST: Never returns an error; failures are logged
func (n *Notifier) ProfileCommitted(ctx context.Context, m member.Member) {
	if n == nil || n.sender == nil || len(n.to) == 0 {
		return
	}

	name := bilingual.Resolve(&m.Name, bilingual.LangEnglish)
	if name == "" {
		name = m.ID
	}

	body := fmt.Sprintf(
		"<p>%s updated their profile.</p><p>Member id: %s</p><p>Name: %s / %s</p><p>Role: %s / %s</p>",
		html.EscapeString(name),
		html.EscapeString(m.ID),
		html.EscapeString(m.Name.He), html.EscapeString(m.Name.En),
		html.EscapeString(m.Role.He), html.EscapeString(m.Role.En),
	)

	_, err := n.sender.Send(ctx, SendRequest{
		To:      n.to,
		Subject: fmt.Sprintf("Profile updated: %s", name),
		HTML:    body,
	})
	if err != nil {
		slog.Error("profile_notify_failed", "member_id", m.ID, "error", err)
	}
}
