package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docsift/docsift/internal/model"
)

func TestNormalizeNarrative_JoinsSoftBreaks(t *testing.T) {
	in := "This is a line\nthat was wrapped mid sentence.\nNext sentence."
	out := Normalize(context.Background(), in, model.SourcePDF)
	require.Equal(t, "This is a line that was wrapped mid sentence.\nNext sentence.", out)
}

func TestNormalizeNarrative_CollapsesBlankLines(t *testing.T) {
	in := "First paragraph.\n\n\nSecond paragraph."
	out := Normalize(context.Background(), in, model.SourceTXT)
	require.Equal(t, "First paragraph.\nSecond paragraph.", out)
}

func TestNormalizeNarrative_KeepsListBreaks(t *testing.T) {
	in := "Items:\nfirst item\nsecond item"
	out := Normalize(context.Background(), in, model.SourceDOCX)
	require.Equal(t, "Items:\nfirst item second item", out)
}

func TestNormalizeStructured_FlattensWhitespace(t *testing.T) {
	in := "a,b\n\n\nc , d"
	out := Normalize(context.Background(), in, model.SourceCSV)
	require.Equal(t, "a,b c , d", out)
}

func TestNormalize_UnknownTypeUsesNarrative(t *testing.T) {
	in := "some text\nwrapped line"
	narrative := Normalize(context.Background(), in, model.SourcePDF)
	unknown := Normalize(context.Background(), in, model.SourceType("weird"))
	require.Equal(t, narrative, unknown)
}

func TestNormalize_Empty(t *testing.T) {
	require.Equal(t, "", Normalize(context.Background(), "", model.SourcePDF))
	require.Equal(t, "", Normalize(context.Background(), "   \n\n  ", model.SourceCSV))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []struct {
		text       string
		sourceType model.SourceType
	}{
		{"Line one\nline two.\n\nLine three.", model.SourcePDF},
		{"col1,col2\nv1 , v2\n\nv3,v4", model.SourceCSV},
		{"Header:\nitem a\nitem b.", model.SourceTXT},
	}
	for _, tc := range inputs {
		once := Normalize(context.Background(), tc.text, tc.sourceType)
		twice := Normalize(context.Background(), once, tc.sourceType)
		require.Equal(t, once, twice, "input %q", tc.text)
	}
}
