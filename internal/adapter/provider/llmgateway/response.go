package llmgateway

import "github.com/heartmarshall/contentflow-backend/internal/provider"

type gatewayRequest struct {
	Provider     string             `json:"provider"`
	Model        string             `json:"model,omitempty"`
	Messages     []provider.Message `json:"messages"`
	SystemPrompt string             `json:"system_prompt,omitempty"`
	Temperature  *float64           `json:"temperature,omitempty"`
	MaxTokens    int                `json:"max_tokens,omitempty"`
}

type gatewayResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type gatewayError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e gatewayError) describe() string {
	switch {
	case e.Error != "" && e.Message != "":
		return e.Error + ": " + e.Message
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	}
	return "no error body"
}
