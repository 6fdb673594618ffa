// Package openai provides the wire types and HTTP client for the OpenAI
// chat-completions API.
package openai

import (
	"encoding/json"
	"fmt"

	"github.com/tjfontaine/receptionist-gateway/internal/domain"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatCompletionRequest represents an OpenAI chat completion request.
type ChatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []ChatCompletionMessage `json:"messages"`
	Temperature *float32                `json:"temperature,omitempty"`
	MaxTokens   int                     `json:"max_tokens,omitempty"`
	User        string                  `json:"user,omitempty"`
}

// ChatCompletionMessage represents a message in the chat completion request.
// Content is always sent, even when empty.
type ChatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseMessage is the message of a returned choice. Content is nil when
// the field was absent or null.
type ResponseMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
	Refusal string  `json:"refusal,omitempty"`
}

// ChatCompletionResponse represents an OpenAI chat completion response.
type ChatCompletionResponse struct {
	ID                string   `json:"id"`
	Object            string   `json:"object"`
	Created           int64    `json:"created"`
	Model             string   `json:"model"`
	SystemFingerprint string   `json:"system_fingerprint,omitempty"`
	Choices           []Choice `json:"choices"`
	Usage             Usage    `json:"usage,omitempty"`
}

// Choice represents a completion choice.
type Choice struct {
	Index        int              `json:"index"`
	Message      *ResponseMessage `json:"message"`
	FinishReason string           `json:"finish_reason"`
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorResponse represents an OpenAI API error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError contains error details.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// StatusError is returned for any non-2xx response. APIError is set when the
// body carried an OpenAI error envelope.
type StatusError struct {
	StatusCode int
	APIError   *APIError
	Body       string
}

func (e *StatusError) Error() string {
	if e.APIError != nil {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.APIError.Error())
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// ToCanonical converts the failed response to a canonical upstream error.
func (e *StatusError) ToCanonical() *domain.APIError {
	msg := fmt.Sprintf("completion API returned status %d", e.StatusCode)
	if e.APIError != nil && e.APIError.Message != "" {
		msg = e.APIError.Message
	}
	return domain.ErrUpstream(msg).
		WithCode(domain.ErrorCodeUpstreamStatus).
		WithUpstreamStatus(e.StatusCode).
		WithCause(e)
}

// DecodeError is returned when a 2xx body is not a chat completion.
type DecodeError struct {
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to unmarshal response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ParseErrorResponse attempts to parse an error response from JSON.
func ParseErrorResponse(data []byte) (*APIError, error) {
	var errResp ErrorResponse
	if err := json.Unmarshal(data, &errResp); err != nil {
		return nil, err
	}
	if errResp.Error == nil {
		return nil, nil
	}
	return errResp.Error, nil
}
