package result

import "github.com/kailas-cloud/hybridrag/internal/domain/chunk"

// Hit is one candidate from a single signal, before fusion.
// Lexical hits carry raw BM25 scores; vector hits carry cosine similarity in [-1,1].
type Hit struct {
	ID      string
	Content string
	Score   float64
}

// Scored is a chunk with its normalized lexical, vector and combined scores.
// Derived per request and never persisted.
type Scored struct {
	chunk    chunk.Chunk
	lexical  float64
	vector   float64
	combined float64
}

// New creates a scored result.
func New(c chunk.Chunk, lexical, vector, combined float64) Scored {
	return Scored{chunk: c, lexical: lexical, vector: vector, combined: combined}
}

// Chunk returns the scored chunk.
func (s *Scored) Chunk() chunk.Chunk { return s.chunk }

// ID returns the chunk identifier.
func (s *Scored) ID() string { return s.chunk.ID() }

// Content returns the chunk text.
func (s *Scored) Content() string { return s.chunk.Content() }

// LexicalScore returns the min-max normalized BM25 score.
func (s *Scored) LexicalScore() float64 { return s.lexical }

// VectorScore returns the min-max normalized cosine score.
func (s *Scored) VectorScore() float64 { return s.vector }

// CombinedScore returns the weighted sum of both signals.
func (s *Scored) CombinedScore() float64 { return s.combined }

// Contents returns the chunk texts in ranked order.
func Contents(results []Scored) []string {
	out := make([]string, len(results))
	for i := range results {
		out[i] = results[i].Content()
	}
	return out
}
