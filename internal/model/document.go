package model

import "fmt"

// SourceType tags a raw document with the extractor that produced its text.
// It is a closed set: anything outside it falls back to the narrative
// cleaning strategy.
type SourceType string

const (
	SourcePDF   SourceType = "pdf"
	SourceTXT   SourceType = "txt"
	SourceDOCX  SourceType = "docx"
	SourceCSV   SourceType = "csv"
	SourceImage SourceType = "image"
	SourceExcel SourceType = "excel"
)

// SourceClass groups source types by the cleaning strategy they need.
type SourceClass int

const (
	ClassNarrative SourceClass = iota
	ClassStructured
	ClassUnknown
)

func (s SourceType) Class() SourceClass {
	switch s {
	case SourcePDF, SourceTXT, SourceDOCX, SourceImage:
		return ClassNarrative
	case SourceCSV, SourceExcel:
		return ClassStructured
	default:
		return ClassUnknown
	}
}

// RawDocument is the unit handed over by an ingestor: extracted text plus
// whatever metadata the extractor collected. Immutable once created.
type RawDocument struct {
	DocID    string                 `json:"doc_id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

// SourceType reads the source_type metadata hint. Missing or non-string
// values yield an empty type, which classifies as unknown.
func (d RawDocument) SourceType() SourceType {
	if d.Metadata == nil {
		return ""
	}
	v, ok := d.Metadata["source_type"].(string)
	if !ok {
		return ""
	}
	return SourceType(v)
}

// TextChunk is the atomic stored unit: a bounded span of one document's
// text together with its embedding. Chunk ids are derived from the parent
// document so that deleting by doc id cascades to every chunk.
type TextChunk struct {
	ChunkID   string                 `json:"chunk_id"`
	DocID     string                 `json:"doc_id"`
	Text      string                 `json:"text"`
	Embedding []float32              `json:"embedding"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// ChunkID derives the stored id for the n-th chunk of a document.
func ChunkID(docID string, n int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, n)
}
