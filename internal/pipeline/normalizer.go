package pipeline

import (
	"context"
	"regexp"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docsift/docsift/internal/model"
)

var (
	blankLineRun     = regexp.MustCompile(`\n\s*\n`)
	spaceRun         = regexp.MustCompile(` {2,}`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	hardBreakMarkers = map[rune]struct{}{
		'.': {}, '-': {}, '•': {}, ':': {}, '!': {}, '?': {},
	}
)

// Normalize cleans extracted text with a strategy picked by source type.
// Narrative sources get paragraph reflow; structured sources get flat
// whitespace collapsing. Unknown types fall back to narrative.
func Normalize(ctx context.Context, text string, sourceType model.SourceType) string {
	if text == "" {
		return ""
	}
	switch sourceType.Class() {
	case model.ClassStructured:
		return normalizeStructured(text)
	case model.ClassNarrative:
		return normalizeNarrative(text)
	default:
		logutil.GetLogger(ctx).Warn("unknown source type, using narrative cleaning",
			zap.String("source_type", string(sourceType)))
		return normalizeNarrative(text)
	}
}

// normalizeNarrative reflows prose: blank-line runs become one newline,
// line breaks inside a sentence become spaces while breaks after
// sentence-ending or list punctuation survive, space runs collapse.
func normalizeNarrative(text string) string {
	text = blankLineRun.ReplaceAllString(text, "\n")
	text = joinSoftBreaks(text)
	text = spaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// normalizeStructured flattens everything to single spaces. Row boundaries
// are lost; a deliberate, lossy simplification for tabular sources.
func normalizeStructured(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// joinSoftBreaks replaces a newline with a space unless the preceding rune
// marks a sentence end or list item. Go's regexp has no lookbehind, so this
// is a manual scan.
func joinSoftBreaks(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	var prev rune
	hasPrev := false
	for _, r := range text {
		if r == '\n' {
			if _, hard := hardBreakMarkers[prev]; hard && hasPrev {
				b.WriteRune(r)
			} else {
				b.WriteRune(' ')
			}
		} else {
			b.WriteRune(r)
		}
		prev = r
		hasPrev = true
	}
	return b.String()
}
