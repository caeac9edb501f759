package openai

import "time"

// Config holds everything one chat/completions client needs. Both OpenAI and
// Groq expose this API shape, so BaseURL selects the provider.
type Config struct {
	BaseURL      string
	Model        string
	APIKey       string
	Temperature  float32
	Timeout      time.Duration
	MaxTextChars int
}
