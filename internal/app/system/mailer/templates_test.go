package mailer

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestBuildVerificationEmail(t *testing.T) {
	e := BuildVerificationEmail(VerificationEmailData{SiteName: "StudyHub", Code: "123456", ExpiresIn: "10 minutes"})

	if !strings.Contains(e.Subject, "StudyHub") {
		t.Errorf("subject = %q", e.Subject)
	}
	for _, body := range []string{e.TextBody, e.HTMLBody} {
		if !strings.Contains(body, "123456") || !strings.Contains(body, "10 minutes") {
			t.Errorf("body missing code or expiry: %q", body)
		}
	}
	if e.To != "" {
		t.Errorf("To = %q, want it left to the caller", e.To)
	}
}

func TestBuildInvitationEmail_EscapesHTML(t *testing.T) {
	e := BuildInvitationEmail(InvitationEmailData{
		SiteName:       "StudyHub",
		StudyGroupName: "<script>alert(1)</script>",
		InviterName:    "Ada",
		Role:           "member",
		JoinLink:       "https://studyhub.example/join/65a1b2c3d4e5f60718293a4b",
	})

	if strings.Contains(e.HTMLBody, "<script>") {
		t.Error("study group name was not escaped in HTML body")
	}
	if !strings.Contains(e.HTMLBody, "https://studyhub.example/join/65a1b2c3d4e5f60718293a4b") {
		t.Error("join link missing from HTML body")
	}
	if !strings.Contains(e.TextBody, "Ada has invited you") {
		t.Errorf("text body = %q", e.TextBody)
	}
}

func TestNew_RequiresHost(t *testing.T) {
	if _, err := New(Config{From: "noreply@example.com"}, zap.NewNop()); err == nil {
		t.Error("expected error without host")
	}
}

func TestLogSender(t *testing.T) {
	var s Sender = LogSender{Log: zap.NewNop()}
	if err := s.Send(context.Background(), Email{To: "a@example.com", Subject: "hi"}); err != nil {
		t.Errorf("Send: %v", err)
	}
}
