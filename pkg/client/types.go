package client

// Chunk is one passage to ingest. An empty ID lets the server assign a UUID.
type Chunk struct {
	ID      string `json:"id,omitempty"`
	Content string `json:"content"`
}

// AddResult is the outcome of AddChunks.
type AddResult struct {
	Message         string
	EmbeddingTokens int
}

// Result is one ranked chunk with its normalized scores.
type Result struct {
	ID            string  `json:"id"`
	Content       string  `json:"content"`
	LexicalScore  float64 `json:"lexical_score"`
	VectorScore   float64 `json:"vector_score"`
	CombinedScore float64 `json:"combined_score"`
}

// SearchResult is the outcome of Search.
type SearchResult struct {
	Results         []Result
	EmbeddingTokens int
}

// Answer is a grounded LLM answer and the chunk contents it was built from.
type Answer struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// HealthStatus represents the aggregated service health.
type HealthStatus struct {
	Status string            `json:"status"` // "healthy" or "degraded"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}

// Healthy reports whether every dependency check passed.
func (h HealthStatus) Healthy() bool { return h.Status == "healthy" }

type addChunksRequest struct {
	Chunks []Chunk `json:"chunks"`
}

type addChunksResponse struct {
	Message string `json:"message"`
}

type searchRequest struct {
	Q            string   `json:"q"`
	Count        *int     `json:"count,omitempty"`
	TextWeight   *float64 `json:"text_weight,omitempty"`
	VectorWeight *float64 `json:"vector_weight,omitempty"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
