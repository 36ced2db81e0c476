package models

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is an OpenAI-compatible chat completion request.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

// ChatCompletionResponse is an OpenAI-compatible chat completion response.
// Search-backed providers also return the URLs the answer was grounded on.
type ChatCompletionResponse struct {
	ID        string   `json:"id"`
	Model     string   `json:"model"`
	Choices   []Choice `json:"choices"`
	Citations []string `json:"citations,omitempty"`
	Usage     *Usage   `json:"usage,omitempty"`
}

// Choice represents a single completion choice.
type Choice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// Usage represents token usage from an LLM response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ContentResponse is what a content provider returns for one search query.
type ContentResponse struct {
	Content   string   `json:"content"`
	Citations []string `json:"citations,omitempty"`
}

// PlaceDetails is what a places provider returns for one lookup.
type PlaceDetails struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Hours     []string `json:"hours,omitempty"`
	PriceTier string   `json:"price_tier,omitempty"`
	Rating    float64  `json:"rating,omitempty"`
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	MapsURL   string   `json:"maps_url,omitempty"`
}
