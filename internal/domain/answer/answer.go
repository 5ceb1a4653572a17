package answer

// NoInformation is returned when retrieval produced no context.
const NoInformation = "No relevant information found."

// Answer is a grounded LLM answer with the contexts it was given.
type Answer struct {
	query   string
	text    string
	sources []string
}

// New creates an Answer. Sources are the chunk contents in the order they were passed as context.
func New(query, text string, sources []string) Answer {
	if sources == nil {
		sources = []string{}
	}
	return Answer{query: query, text: text, sources: sources}
}

// Empty returns the fixed answer for a query with no context.
func Empty(query string) Answer { return New(query, NoInformation, nil) }

// Query returns the question that was answered.
func (a *Answer) Query() string { return a.query }

// Text returns the generated answer.
func (a *Answer) Text() string { return a.text }

// Sources returns the contexts used, in ranked order.
func (a *Answer) Sources() []string { return a.sources }
