package domain

import (
	"strings"
	"testing"
	"time"
)

func TestNewOutreachRecordDefaults(t *testing.T) {
	rec := NewOutreachRecord("prov-1", "cont-1", MethodEmail, OutreachCold, "first touch")

	if rec.ID == "" {
		t.Error("expected generated id")
	}
	if rec.Status != OutreachPending {
		t.Errorf("status = %s, want %s", rec.Status, OutreachPending)
	}
	if rec.ReplyStatus != ReplyNone {
		t.Errorf("reply status = %s, want %s", rec.ReplyStatus, ReplyNone)
	}
	if rec.ReplyCount != 0 || rec.ReplyReceived {
		t.Error("new record must have no replies")
	}
	if rec.CreatedAt.Location() != time.UTC {
		t.Error("created_at must be UTC")
	}
}

func TestEligibleForReplyCheck(t *testing.T) {
	tests := []struct {
		name           string
		method         OutreachMethod
		conversationID string
		want           bool
	}{
		{"tracked email", MethodEmail, "conv-1", true},
		{"untracked email", MethodEmail, "", false},
		{"phone outreach", MethodPhone, "", false},
		{"phone with stray conversation id", MethodPhone, "conv-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewOutreachRecord("p", "c", tt.method, OutreachCold, "")
			rec.ConversationID = tt.conversationID
			if got := rec.EligibleForReplyCheck(); got != tt.want {
				t.Errorf("EligibleForReplyCheck() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarkReplyReceived(t *testing.T) {
	rec := NewOutreachRecord("p", "c", MethodEmail, OutreachCold, "")
	replyAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	rec.MarkReplyReceived("dr.smith@clinic.example", "Happy to discuss rates", replyAt)

	if !rec.ReplyReceived {
		t.Error("ReplyReceived not set")
	}
	if rec.ReplyCount != 1 {
		t.Errorf("ReplyCount = %d, want 1", rec.ReplyCount)
	}
	if rec.ReplyStatus != ReplyUnread {
		t.Errorf("ReplyStatus = %s, want %s", rec.ReplyStatus, ReplyUnread)
	}
	if !rec.LastReplyDate.Equal(replyAt) {
		t.Errorf("LastReplyDate = %v, want %v", rec.LastReplyDate, replyAt)
	}
	if rec.ReplySenderEmail != "dr.smith@clinic.example" {
		t.Errorf("sender = %s", rec.ReplySenderEmail)
	}
}

func TestMarkReplyReceivedKeepsNewerCheckpoint(t *testing.T) {
	rec := NewOutreachRecord("p", "c", MethodEmail, OutreachCold, "")
	newer := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	older := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	rec.MarkReplyReceived("a@x.example", "first", newer)
	rec.MarkReplyReceived("b@x.example", "late arrival", older)

	if !rec.LastReplyDate.Equal(newer) {
		t.Errorf("LastReplyDate regressed to %v, want %v", rec.LastReplyDate, newer)
	}
	if rec.ReplyCount != 2 {
		t.Errorf("ReplyCount = %d, want 2", rec.ReplyCount)
	}
}

func TestReplyStateMachine(t *testing.T) {
	t.Run("read requires unread", func(t *testing.T) {
		rec := NewOutreachRecord("p", "c", MethodEmail, OutreachCold, "")
		if err := rec.MarkRead(); err != ErrInvalidTransition {
			t.Errorf("MarkRead on none = %v, want ErrInvalidTransition", err)
		}

		rec.MarkReplyReceived("a@x.example", "hi", time.Now().UTC())
		if err := rec.MarkRead(); err != nil {
			t.Fatalf("MarkRead on unread: %v", err)
		}
		if rec.ReplyStatus != ReplyRead {
			t.Errorf("status = %s, want %s", rec.ReplyStatus, ReplyRead)
		}

		// read -> read is rejected
		if err := rec.MarkRead(); err != ErrInvalidTransition {
			t.Errorf("MarkRead on read = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("responded requires a reply", func(t *testing.T) {
		rec := NewOutreachRecord("p", "c", MethodEmail, OutreachCold, "")
		if err := rec.MarkResponded(); err != ErrInvalidTransition {
			t.Errorf("MarkResponded without reply = %v, want ErrInvalidTransition", err)
		}

		rec.MarkReplyReceived("a@x.example", "hi", time.Now().UTC())
		if err := rec.MarkResponded(); err != nil {
			t.Fatalf("MarkResponded: %v", err)
		}
		// idempotent on responded
		if err := rec.MarkResponded(); err != nil {
			t.Errorf("second MarkResponded = %v, want nil", err)
		}
	})

	t.Run("new reply after responded re-enters unread", func(t *testing.T) {
		rec := NewOutreachRecord("p", "c", MethodEmail, OutreachCold, "")
		rec.MarkReplyReceived("a@x.example", "hi", time.Now().UTC())
		if err := rec.MarkResponded(); err != nil {
			t.Fatal(err)
		}

		rec.MarkReplyReceived("a@x.example", "one more thing", time.Now().UTC())
		if rec.ReplyStatus != ReplyUnread {
			t.Errorf("status = %s, want %s after fresh reply", rec.ReplyStatus, ReplyUnread)
		}
		if rec.ReplyCount != 2 {
			t.Errorf("ReplyCount = %d, want 2", rec.ReplyCount)
		}
	})
}

func TestAddReplyCount(t *testing.T) {
	rec := NewOutreachRecord("p", "c", MethodEmail, OutreachCold, "")
	rec.AddReplyCount(3)
	rec.AddReplyCount(0)
	rec.AddReplyCount(-5)
	if rec.ReplyCount != 3 {
		t.Errorf("ReplyCount = %d, want 3", rec.ReplyCount)
	}
}

func TestTruncatePreview(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short stays", "hello", "hello"},
		{"exact limit stays", strings.Repeat("a", ReplyPreviewMaxLen), strings.Repeat("a", ReplyPreviewMaxLen)},
		{"over limit truncated", strings.Repeat("a", ReplyPreviewMaxLen+50), strings.Repeat("a", ReplyPreviewMaxLen) + "..."},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncatePreview(tt.in); got != tt.want {
				t.Errorf("TruncatePreview() length %d, want length %d", len(got), len(tt.want))
			}
		})
	}

	t.Run("counts runes not bytes", func(t *testing.T) {
		in := strings.Repeat("한", ReplyPreviewMaxLen+1)
		got := TruncatePreview(in)
		if wantRunes := ReplyPreviewMaxLen + 3; len([]rune(got)) != wantRunes {
			t.Errorf("rune length = %d, want %d", len([]rune(got)), wantRunes)
		}
		if !strings.HasSuffix(got, "...") {
			t.Error("missing ellipsis")
		}
	})
}
