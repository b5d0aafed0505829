package rag

import (
	"context"
	"fmt"
	"strings"
)

// DefaultTopK is how many chunks a query retrieves when no count is given.
const DefaultTopK = 4

// NoInformationAnswer is returned without calling the model when retrieval
// comes back empty.
const NoInformationAnswer = "No relevant information found in documents."

const answerInstructions = "You are a helpful assistant. Use the following document context to answer the question accurately. Answer using only the supplied context."

// Embedder converts text into a vector via the external embedding service.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer generates text from a prompt via the external language model.
type Completer interface {
	Complete(ctx context.Context, instructions, input string) (string, error)
}

// Index is the external similarity-search collection.
type Index interface {
	Upsert(ctx context.Context, ref string, chunks []Chunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error)
	DeleteByDocument(ctx context.Context, ref string) error
}

// SearchResult is one retrieved chunk, scored by the index.
type SearchResult struct {
	DocumentRef string
	Ordinal     int
	Text        string
	Score       float32
}

// Service runs the upload and query pipelines. All clients are injected; the
// lifecycle belongs to main.
type Service struct {
	embedder  Embedder
	completer Completer
	index     Index
}

func NewService(embedder Embedder, completer Completer, index Index) *Service {
	return &Service{embedder: embedder, completer: completer, index: index}
}

// StoreDocument chunks the text, embeds every chunk and upserts the lot under
// ref. Returns the chunks so the caller can build the metadata row after the
// index write succeeded.
func (s *Service) StoreDocument(ctx context.Context, ref string, text string) ([]Chunk, error) {
	chunks := ChunkText(text, DefaultChunkSize, DefaultChunkOverlap)
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := s.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
		}
		vectors = append(vectors, vector)
	}

	if err := s.index.Upsert(ctx, ref, chunks, vectors); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return chunks, nil
}

// ReplaceDocument drops the document's existing points and indexes the new
// text under the same ref.
func (s *Service) ReplaceDocument(ctx context.Context, ref string, text string) ([]Chunk, error) {
	if err := s.index.DeleteByDocument(ctx, ref); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return s.StoreDocument(ctx, ref, text)
}

// RemoveDocument retracts the document's points from the index.
func (s *Service) RemoveDocument(ctx context.Context, ref string) error {
	if err := s.index.DeleteByDocument(ctx, ref); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// Retrieve embeds the query and returns the top k chunks. An empty index gives
// an empty slice, not an error.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	results, err := s.index.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return results, nil
}

// Answer builds the prompt from the retrieved chunks (in rank order) and asks
// the model. Empty context short-circuits to the fixed response so the model
// never answers without grounding.
func (s *Service) Answer(ctx context.Context, question string, results []SearchResult) (string, error) {
	if len(results) == 0 {
		return NoInformationAnswer, nil
	}

	answer, err := s.completer.Complete(ctx, answerInstructions, BuildPrompt(question, results))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesisUnavailable, err)
	}
	return strings.TrimSpace(answer), nil
}

// Query runs retrieval and synthesis end to end.
func (s *Service) Query(ctx context.Context, question string, k int) (string, error) {
	results, err := s.Retrieve(ctx, question, k)
	if err != nil {
		return "", err
	}
	return s.Answer(ctx, question, results)
}

// BuildPrompt lays out the retrieved chunks under a Context section followed
// by the literal question.
func BuildPrompt(question string, results []SearchResult) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	for _, r := range results {
		sb.WriteString(r.Text)
		sb.WriteString("\n")
	}
	sb.WriteString("\nQuestion:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer:\n")
	return sb.String()
}
