package replysync

import (
	"context"
	"html"
	"regexp"
	"strings"

	"outreach_server/core/port/out"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

const (
	// PreviewMaxLen caps the extracted preview before it is stored.
	PreviewMaxLen = 300

	// PreviewFallback is returned whenever retrieval or parsing fails; the
	// extractor never fails its caller.
	PreviewFallback = "Preview not available"
)

// quoteMarkers cut the preview before mobile signatures and quoted-thread
// headers so it holds the reply itself, not the whole thread.
var quoteMarkers = []string{
	"sent from",
	"get outlook",
	"-----original message-----",
	"________________________________",
}

var (
	wroteHeaderRe = regexp.MustCompile(`(?i)\bon .{0,120}? wrote:`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// PreviewExtractor produces a short plain-text preview of a reply body.
type PreviewExtractor struct {
	source   out.ConversationSource
	sanitize *bluemonday.Policy
	log      zerolog.Logger
}

func NewPreviewExtractor(source out.ConversationSource, log zerolog.Logger) *PreviewExtractor {
	return &PreviewExtractor{
		source:   source,
		sanitize: bluemonday.StrictPolicy(),
		log:      log.With().Str("component", "preview_extractor").Logger(),
	}
}

// Extract fetches the message body and reduces it to a short plain-text
// preview. Any error yields PreviewFallback.
func (e *PreviewExtractor) Extract(ctx context.Context, messageID string) string {
	body, err := e.source.GetMessageBody(ctx, messageID)
	if err != nil {
		e.log.Warn().Err(err).Str("message_id", messageID).Msg("failed to fetch message body")
		return PreviewFallback
	}

	var preview string
	if strings.EqualFold(body.ContentType, "html") {
		preview = e.fromHTML(body.Content)
	} else {
		preview = collapse(body.Content)
	}

	// The provider's own short preview is the backstop when extraction
	// yields nothing.
	if preview == "" && body.Preview != "" {
		preview = collapse(body.Preview)
	}
	if preview == "" {
		return PreviewFallback
	}

	return capLen(cutAtMarker(preview), PreviewMaxLen)
}

func (e *PreviewExtractor) fromHTML(content string) string {
	stripped := e.sanitize.Sanitize(content)
	return collapse(html.UnescapeString(stripped))
}

func cutAtMarker(s string) string {
	cut := len(s)
	lower := strings.ToLower(s)
	for _, marker := range quoteMarkers {
		if idx := strings.Index(lower, marker); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	if loc := wroteHeaderRe.FindStringIndex(s); loc != nil && loc[0] < cut {
		cut = loc[0]
	}
	return strings.TrimSpace(s[:cut])
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func capLen(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max]))
}
