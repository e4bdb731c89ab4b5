package core

import (
	"context"
)

// ChatMessage is one turn in a chat-completion request.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatRequest describes one chat-completion call. Streaming is never used.
type ChatRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float32
	// JSONObject forces the json_object response format.
	JSONObject bool
	// NoTools sets tool_choice to none.
	NoTools bool
	// WebSearch attaches the backend's browser_search tool.
	WebSearch bool
}

// ChatResponse carries the first choice of a completion.
type ChatResponse struct {
	Content string
}

// ChatClient is the language-model backend boundary. An empty apiKey falls
// back to the client's configured key. Network and non-2xx failures surface
// as errors.
type ChatClient interface {
	Complete(ctx context.Context, apiKey string, req ChatRequest) (*ChatResponse, error)
}

// AcademicInfo is the result of an academic-domain lookup.
type AcademicInfo struct {
	Academic    bool
	Institution string
}

// AcademicLookup resolves whether an email's domain belongs to a recognized
// academic institution. Implementations must degrade to "not academic" on
// partial data; callers treat a returned error as no match.
type AcademicLookup interface {
	Lookup(ctx context.Context, email string) (AcademicInfo, error)
}

// CacheRepository stores finished pipeline results keyed by email.
type CacheRepository interface {
	// Get retrieves a live entry, or an error when absent or expired.
	Get(ctx context.Context, email string) (*CacheEntry, error)

	// Set stores an entry.
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes an entry.
	Delete(ctx context.Context, email string) error

	// Cleanup removes expired entries.
	Cleanup(ctx context.Context) error
}
