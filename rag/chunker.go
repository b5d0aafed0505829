package rag

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultChunkSize is the number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the number of characters shared by consecutive chunks.
const DefaultChunkOverlap = 200

// Chunk is one overlapping segment of a document's extracted text. Ordinal is
// assigned at split time, before embedding, so rank-of-origin survives the trip
// through the index.
type Chunk struct {
	Text    string
	Ordinal int
}

// ExtractText pulls plain text out of an uploaded file. The extension decides
// the loader; only .pdf and .txt are supported. Splitting afterwards is format
// agnostic.
func ExtractText(filename string, data []byte) (text string, fileType string, err error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "pdf":
		text, err = extractPDF(data)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return text, "pdf", nil
	case "txt":
		return string(data), "txt", nil
	default:
		return "", "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ChunkText splits text into fixed-size chunks with overlap. Byte offsets only,
// so identical input always yields identical boundaries.
func ChunkText(text string, size, overlap int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	if text == "" {
		return nil
	}

	chunks := make([]Chunk, 0, len(text)/(size-overlap)+1)
	ordinal := 0
	for start := 0; start < len(text); start += size - overlap {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, Chunk{Text: text[start:end], Ordinal: ordinal})
		ordinal++
		if end == len(text) {
			break
		}
	}
	return chunks
}

// BuildPreview joins the first previewLen characters of each chunk, which is
// what the Document row stores as content.
func BuildPreview(chunks []Chunk, previewLen int) string {
	parts := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		text := ch.Text
		if previewLen > 0 && len(text) > previewLen {
			text = text[:previewLen]
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}
