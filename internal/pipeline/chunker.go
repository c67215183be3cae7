package pipeline

import (
	"strings"
	"unicode"
)

// Chunker splits normalized text into retrievable spans. The sentence
// chunker is the canonical strategy for the processing pipeline; the
// character chunker is the alternate budget-based strategy.
type Chunker interface {
	Chunk(text string) []string
}

const DefaultSentencesPerChunk = 5

// SentenceChunker groups consecutive sentences into fixed-size,
// overlap-free windows. The final window may be shorter.
type SentenceChunker struct {
	sentencesPerChunk int
}

func NewSentenceChunker(sentencesPerChunk int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = DefaultSentencesPerChunk
	}
	return &SentenceChunker{sentencesPerChunk: sentencesPerChunk}
}

func (c *SentenceChunker) Chunk(text string) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}
	var chunks []string
	for i := 0; i < len(sentences); i += c.sentencesPerChunk {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, strings.Join(sentences[i:end], " "))
	}
	return chunks
}

// SplitSentences cuts text at whitespace that immediately follows one of
// `.`, `!`, `?`. It knows nothing about abbreviations and may over- or
// under-split; acceptable for retrieval chunking.
func SplitSentences(text string) []string {
	if text == "" {
		return nil
	}
	var sentences []string
	var cur strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		cur.WriteRune(r)
		if isSentenceEnd(r) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			sentences = appendSentence(sentences, cur.String())
			cur.Reset()
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
			}
		}
	}
	return appendSentence(sentences, cur.String())
}

func appendSentence(sentences []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return sentences
	}
	return append(sentences, s)
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// CharacterChunker splits on the first separator in priority order that
// keeps every piece under the byte budget, then re-merges each piece with
// its one preceding piece as overlap, truncating from the front when the
// merge overflows the budget.
type CharacterChunker struct {
	chunkSize int
}

var characterSeparators = []string{"\n\n", "\n", ". ", " "}

const DefaultChunkSize = 1000

func NewCharacterChunker(chunkSize int) *CharacterChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &CharacterChunker{chunkSize: chunkSize}
}

func (c *CharacterChunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := c.split(text)
	var out []string
	for i := range pieces {
		start := i - 1
		if start < 0 {
			start = 0
		}
		merged := strings.Join(pieces[start:i+1], " ")
		if len(merged) > c.chunkSize {
			merged = tailRunes(merged, c.chunkSize)
		}
		merged = strings.TrimSpace(merged)
		if merged != "" {
			out = append(out, merged)
		}
	}
	return out
}

func (c *CharacterChunker) split(text string) []string {
	var pieces []string
	for _, sep := range characterSeparators {
		if !strings.Contains(text, sep) {
			continue
		}
		parts := strings.Split(text, sep)
		pieces = pieces[:0]
		var cur strings.Builder
		for _, part := range parts {
			if cur.Len()+len(part)+len(sep) <= c.chunkSize {
				cur.WriteString(part)
				cur.WriteString(sep)
				continue
			}
			if trimmed := strings.TrimSpace(cur.String()); trimmed != "" {
				pieces = append(pieces, trimmed)
			}
			cur.Reset()
			cur.WriteString(part)
			cur.WriteString(sep)
		}
		if trimmed := strings.TrimSpace(cur.String()); trimmed != "" {
			pieces = append(pieces, trimmed)
		}
		if allWithinBudget(pieces, c.chunkSize) {
			return pieces
		}
	}
	if len(pieces) == 0 {
		// No separator present at all; one oversized piece beats losing text.
		return []string{strings.TrimSpace(text)}
	}
	return pieces
}

func allWithinBudget(pieces []string, budget int) bool {
	for _, p := range pieces {
		if len(p) > budget {
			return false
		}
	}
	return true
}

func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
