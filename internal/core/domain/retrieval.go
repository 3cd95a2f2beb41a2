package domain

// ScoredChunk pairs a retrieved chunk with its similarity score.
type ScoredChunk struct {
	// Chunk is the retrieved chunk, metadata and content included.
	Chunk Chunk

	// Score is the cosine similarity to the question embedding.
	Score float64
}

// RetrievalResult is the ordered outcome of one retrieval pass. It is
// produced per question and never persisted.
type RetrievalResult struct {
	// Chunks are the retrieved chunks in descending similarity order.
	Chunks []ScoredChunk

	// Context is the assembled textual context for answer generation.
	Context string
}

// Empty reports whether retrieval produced no supporting chunks.
func (r *RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}

// Answer is the response to one question.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Retrieval is the context set the answer was grounded on.
	Retrieval RetrievalResult
}
