package smtp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"outreach_server/core/port/out"

	"github.com/rs/zerolog"
)

func newTestSender() *Sender {
	return NewSender(&Config{
		Host: "smtp.example",
		Port: 587,
		From: "outreach@ours.example",
	}, zerolog.Nop())
}

func TestConfigComplete(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"complete", Config{Host: "h", Port: 587, From: "f@x"}, true},
		{"missing host", Config{Port: 587, From: "f@x"}, false},
		{"missing port", Config{Host: "h", From: "f@x"}, false},
		{"missing from", Config{Host: "h", Port: 587}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Complete(); got != tt.want {
				t.Errorf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildMessagePlainText(t *testing.T) {
	s := newTestSender()
	msg, err := s.buildMessage(&out.SendRequest{
		Subject: "Partnership Opportunity",
		Body:    "Dear Dr. Jones,",
		To:      "dr.jones@clinic.example",
	})
	if err != nil {
		t.Fatal(err)
	}

	text := string(msg)
	for _, want := range []string{
		"From: outreach@ours.example\r\n",
		"To: dr.jones@clinic.example\r\n",
		"Content-Type: text/plain; charset=UTF-8\r\n",
		"Dear Dr. Jones,",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestBuildMessageHTMLDetection(t *testing.T) {
	s := newTestSender()
	msg, err := s.buildMessage(&out.SendRequest{
		Subject: "Subject",
		Body:    "<html><body>Hi</body></html>",
		To:      "dr.jones@clinic.example",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(msg), "Content-Type: text/html; charset=UTF-8") {
		t.Error("html body not detected")
	}
}

func TestBuildMessageCcHeader(t *testing.T) {
	s := newTestSender()
	msg, err := s.buildMessage(&out.SendRequest{
		Subject: "Subject",
		Body:    "body",
		To:      "a@x.example",
		Cc:      []string{"b@x.example", "c@x.example"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(msg), "Cc: b@x.example, c@x.example\r\n") {
		t.Error("cc header missing")
	}
	// Bcc never appears as a header, only as envelope recipients.
	if strings.Contains(string(msg), "Bcc:") {
		t.Error("bcc header must not be written")
	}
}

func TestBuildMessageWithAttachment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rates.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := newTestSender()
	msg, err := s.buildMessage(&out.SendRequest{
		Subject:         "Subject",
		Body:            "See attached.",
		To:              "dr.jones@clinic.example",
		AttachmentPaths: []string{path},
	})
	if err != nil {
		t.Fatal(err)
	}

	text := string(msg)
	for _, want := range []string{
		"multipart/mixed; boundary=",
		`Content-Disposition: attachment; filename="rates.pdf"`,
		"Content-Transfer-Encoding: base64",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestBuildMessageSkipsMissingAttachment(t *testing.T) {
	s := newTestSender()
	msg, err := s.buildMessage(&out.SendRequest{
		Subject:         "Subject",
		Body:            "body",
		To:              "dr.jones@clinic.example",
		AttachmentPaths: []string{"/nonexistent/file.pdf"},
	})
	if err != nil {
		t.Fatalf("missing attachment must not fail the build: %v", err)
	}
	// With every attachment skipped the message stays single-part.
	if strings.Contains(string(msg), "multipart/mixed") {
		t.Error("expected single-part message when all attachments are missing")
	}
}

func TestRecipientsIncludeCcAndBcc(t *testing.T) {
	s := newTestSender()
	got := s.recipients(&out.SendRequest{
		To:  "a@x.example",
		Cc:  []string{"b@x.example"},
		Bcc: []string{"c@x.example"},
	})
	want := []string{"a@x.example", "b@x.example", "c@x.example"}
	if len(got) != len(want) {
		t.Fatalf("recipients = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("recipients[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
