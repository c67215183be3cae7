package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("One. Two! Three? Four")
	require.Equal(t, []string{"One.", "Two!", "Three?", "Four"}, got)
}

func TestSplitSentences_NoTerminator(t *testing.T) {
	got := SplitSentences("just one fragment without a period")
	require.Equal(t, []string{"just one fragment without a period"}, got)
}

func TestSplitSentences_Empty(t *testing.T) {
	require.Nil(t, SplitSentences(""))
	require.Nil(t, SplitSentences("   "))
}

func TestSentenceChunker_Windows(t *testing.T) {
	c := NewSentenceChunker(2)
	got := c.Chunk("Sentence one. Sentence two. Sentence three.")
	require.Equal(t, []string{"Sentence one. Sentence two.", "Sentence three."}, got)
}

func TestSentenceChunker_SingleWindow(t *testing.T) {
	c := NewSentenceChunker(5)
	got := c.Chunk("Only. Three. Sentences.")
	require.Equal(t, []string{"Only. Three. Sentences."}, got)
}

func TestSentenceChunker_Empty(t *testing.T) {
	c := NewSentenceChunker(3)
	require.Nil(t, c.Chunk(""))
}

func TestSentenceChunker_CoversAllSentences(t *testing.T) {
	text := "A one. B two. C three. D four. E five. F six. G seven."
	c := NewSentenceChunker(3)
	chunks := c.Chunk(text)
	for _, s := range SplitSentences(text) {
		found := false
		for _, chunk := range chunks {
			if strings.Contains(chunk, s) {
				found = true
				break
			}
		}
		require.True(t, found, "sentence %q missing from chunks", s)
	}
}

func TestSentenceChunker_SizeBound(t *testing.T) {
	text := "A one. B two. C three. D four. E five. F six. G seven."
	c := NewSentenceChunker(3)
	chunks := c.Chunk(text)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		n := len(SplitSentences(chunk))
		if i < len(chunks)-1 {
			require.Equal(t, 3, n)
		} else {
			require.LessOrEqual(t, n, 3)
			require.GreaterOrEqual(t, n, 1)
		}
	}
}

func TestCharacterChunker_RespectsBudget(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta. ", 40)
	c := NewCharacterChunker(100)
	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		require.LessOrEqual(t, len([]rune(chunk)), 100)
	}
}

func TestCharacterChunker_PrefersParagraphBreaks(t *testing.T) {
	text := "first paragraph here\n\nsecond paragraph here\n\nthird paragraph here"
	c := NewCharacterChunker(45)
	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)
	require.Contains(t, chunks[0], "first paragraph")
}

func TestCharacterChunker_OverlapCarriesPriorPiece(t *testing.T) {
	text := "aaaa bbbb\n\ncccc dddd\n\neeee ffff"
	c := NewCharacterChunker(25)
	chunks := c.Chunk(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	// The second chunk starts with (a suffix of) the first piece.
	require.Contains(t, chunks[1], "cccc")
	require.True(t, strings.Contains(chunks[1], "bbbb") || strings.Contains(chunks[1], "aaaa"))
}

func TestCharacterChunker_NoSeparator(t *testing.T) {
	text := strings.Repeat("x", 50)
	c := NewCharacterChunker(10)
	chunks := c.Chunk(text)
	require.Len(t, chunks, 1)
}

func TestCharacterChunker_Empty(t *testing.T) {
	c := NewCharacterChunker(100)
	require.Nil(t, c.Chunk("  \n "))
}
