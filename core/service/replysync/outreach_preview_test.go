package replysync

import (
	"context"
	"strings"
	"testing"

	"outreach_server/core/port/out"

	"github.com/rs/zerolog"
)

func newExtractor(bodies map[string]*out.MessageBody) *PreviewExtractor {
	return NewPreviewExtractor(&fakeSource{
		mailbox: "outreach@ours.example",
		bodies:  bodies,
	}, zerolog.Nop())
}

func TestExtractPreview(t *testing.T) {
	tests := []struct {
		name string
		body *out.MessageBody
		want string
	}{
		{
			name: "plain text passthrough",
			body: &out.MessageBody{ContentType: "text", Content: "Thanks, let's set up a call."},
			want: "Thanks, let's set up a call.",
		},
		{
			name: "html stripped",
			body: &out.MessageBody{ContentType: "html", Content: "<div><p>Sounds <b>good</b> to us.</p></div>"},
			want: "Sounds good to us.",
		},
		{
			name: "entities unescaped",
			body: &out.MessageBody{ContentType: "html", Content: "<p>Rates &amp; terms look fine</p>"},
			want: "Rates & terms look fine",
		},
		{
			name: "whitespace collapsed",
			body: &out.MessageBody{ContentType: "text", Content: "Line one\r\n\r\n   Line two"},
			want: "Line one Line two",
		},
		{
			name: "mobile signature cut",
			body: &out.MessageBody{ContentType: "text", Content: "Works for us. Sent from my iPhone"},
			want: "Works for us.",
		},
		{
			name: "quoted thread cut at wrote header",
			body: &out.MessageBody{ContentType: "text", Content: "Yes, Tuesday works. On Mon, Jun 2, 2025 at 9:00 AM Provider Relations wrote: We are reaching out"},
			want: "Yes, Tuesday works.",
		},
		{
			name: "original message marker cut",
			body: &out.MessageBody{ContentType: "text", Content: "Confirmed. -----Original Message----- From: us"},
			want: "Confirmed.",
		},
		{
			name: "provider preview as backstop",
			body: &out.MessageBody{ContentType: "html", Content: "<style>p{}</style>", Preview: "Short provider preview"},
			want: "Short provider preview",
		},
		{
			name: "empty everything falls back",
			body: &out.MessageBody{ContentType: "text", Content: ""},
			want: PreviewFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExtractor(map[string]*out.MessageBody{"m1": tt.body})
			if got := e.Extract(context.Background(), "m1"); got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractFetchFailureFallsBack(t *testing.T) {
	e := newExtractor(nil) // no bodies: every fetch is not-found
	if got := e.Extract(context.Background(), "missing"); got != PreviewFallback {
		t.Errorf("Extract() = %q, want fallback", got)
	}
}

func TestExtractCapsLength(t *testing.T) {
	long := strings.Repeat("word ", 200)
	e := newExtractor(map[string]*out.MessageBody{"m1": {ContentType: "text", Content: long}})

	got := e.Extract(context.Background(), "m1")
	if len([]rune(got)) > PreviewMaxLen {
		t.Errorf("preview length = %d, want <= %d", len([]rune(got)), PreviewMaxLen)
	}
}
