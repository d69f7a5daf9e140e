package ollama

// ChatMessage is the backend's message shape
type ChatMessage struct {
	Role     string   `json:"role"`
	Content  string   `json:"content"`
	Images   []string `json:"images,omitempty"`
	Thinking string   `json:"thinking,omitempty"`
}

// chatRequest is the body of a streaming /api/chat call
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// chatResponse is one newline-delimited record of the chat stream. The
// duration/count fields are only populated on the terminal done=true record.
type chatResponse struct {
	Model           string       `json:"model"`
	CreatedAt       string       `json:"created_at"`
	Message         *ChatMessage `json:"message"`
	Done            bool         `json:"done"`
	TotalDuration   int64        `json:"total_duration"`
	LoadDuration    int64        `json:"load_duration"`
	PromptEvalCount int64        `json:"prompt_eval_count"`
	EvalCount       int64        `json:"eval_count"`
	EvalDuration    int64        `json:"eval_duration"`
}

// Metrics is the performance bundle reported by the terminal stream record.
// Durations are nanoseconds, as reported by the backend.
type Metrics struct {
	TotalDuration   int64
	LoadDuration    int64
	PromptEvalCount int64
	EvalCount       int64
	EvalDuration    int64
	TokensPerSecond float64
}

type modelListResponse struct {
	Models []modelInfo `json:"models"`
}

type modelInfo struct {
	Name string `json:"name"`
}
