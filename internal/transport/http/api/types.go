package apihttp

// GenerateRequest is the JSON body of POST /api/generate.
type GenerateRequest struct {
	Prompt    string `json:"prompt"`
	System    string `json:"system,omitempty"`
	Provider  string `json:"provider,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// GenerateResponse is the JSON body returned by all generation routes.
type GenerateResponse struct {
	RequestID string `json:"request_id"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Text      string `json:"text"`
	ElapsedMS int64  `json:"elapsed_ms"`
}
