// Package completion forwards a composed prompt to the chat-completions API
// and maps every failure onto the canonical error taxonomy.
package completion

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/receptionist-gateway/internal/api/openai"
	"github.com/tjfontaine/receptionist-gateway/internal/config"
	"github.com/tjfontaine/receptionist-gateway/internal/domain"
	"github.com/tjfontaine/receptionist-gateway/internal/tokens"
)

const (
	DefaultModel       = "gpt-5"
	DefaultTemperature = 0.5
	DefaultTimeout     = 30 * time.Second
)

// Result is a successful completion.
type Result struct {
	Reply        string
	Model        string
	FinishReason string
	Usage        openai.Usage

	// PromptTokens is the local tiktoken count of the outgoing prompt.
	PromptTokens int
}

// Option configures the Forwarder.
type Option func(*Forwarder)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(f *Forwarder) {
		f.httpClient = httpClient
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Forwarder) {
		f.logger = logger
	}
}

// WithCounter sets the token counter used for prompt estimates.
func WithCounter(counter *tokens.Counter) Option {
	return func(f *Forwarder) {
		f.counter = counter
	}
}

// Forwarder sends one system+user conversation per call. The HTTP client is
// shared for the life of the process; each call gets its own deadline.
type Forwarder struct {
	client      *openai.Client
	httpClient  *http.Client
	apiKey      string
	model       string
	temperature float32
	timeout     time.Duration
	counter     *tokens.Counter
	logger      *slog.Logger
}

// New creates a Forwarder from cfg. Zero-valued settings take the package
// defaults; a missing API key is reported per call, not here.
func New(cfg config.CompletionConfig, opts ...Option) *Forwarder {
	f := &Forwarder{
		httpClient:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		timeout:     cfg.Timeout,
		counter:     tokens.NewCounter(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.model == "" {
		f.model = DefaultModel
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.temperature == 0 {
		f.temperature = DefaultTemperature
	}

	f.client = openai.NewClient(f.apiKey,
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithHTTPClient(f.httpClient),
	)
	return f
}

// Model returns the model requested on every call.
func (f *Forwarder) Model() string {
	return f.model
}

// Forward sends systemPrompt and userMessage as a two-message conversation
// and returns the first choice. It makes at most one upstream request.
func (f *Forwarder) Forward(ctx context.Context, systemPrompt, userMessage string) (*Result, error) {
	if f.apiKey == "" {
		return nil, domain.ErrInfrastructure("completion API key is not configured").
			WithCode(domain.ErrorCodeNotConfigured)
	}

	req := &openai.ChatCompletionRequest{
		Model: f.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.RoleSystem, Content: systemPrompt},
			{Role: openai.RoleUser, Content: userMessage},
		},
		Temperature: &f.temperature,
	}

	promptTokens, estimated := f.counter.CountMessages(f.model, []tokens.Message{
		{Role: openai.RoleSystem, Content: systemPrompt},
		{Role: openai.RoleUser, Content: userMessage},
	})

	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	resp, err := f.client.CreateChatCompletion(callCtx, req)
	if err != nil {
		apiErr := f.mapError(callCtx, err)
		f.logger.WarnContext(ctx, "completion request failed",
			slog.String("model", f.model),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return nil, apiErr
	}

	if len(resp.Choices) == 0 {
		return nil, domain.ErrUpstream("completion API returned no choices").
			WithCode(domain.ErrorCodeParseError)
	}

	choice := resp.Choices[0]
	if choice.Message == nil || choice.Message.Content == nil {
		return nil, domain.ErrUpstream("completion API returned a choice without message content").
			WithCode(domain.ErrorCodeParseError)
	}
	reply := *choice.Message.Content

	attrs := []any{
		slog.String("model", resp.Model),
		slog.String("finish_reason", choice.FinishReason),
		slog.Int("prompt_tokens_estimate", promptTokens),
		slog.Bool("prompt_tokens_estimated", estimated),
		slog.Int("usage_total_tokens", resp.Usage.TotalTokens),
		slog.Duration("duration", time.Since(start)),
	}
	if resp.Usage.CompletionTokens == 0 {
		if n, err := f.counter.CountText(f.model, reply); err == nil {
			attrs = append(attrs, slog.Int("completion_tokens_estimate", n))
		}
	}
	f.logger.DebugContext(ctx, "completion received", attrs...)

	return &Result{
		Reply:        reply,
		Model:        resp.Model,
		FinishReason: choice.FinishReason,
		Usage:        resp.Usage,
		PromptTokens: promptTokens,
	}, nil
}

func (f *Forwarder) mapError(callCtx context.Context, err error) *domain.APIError {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return domain.ErrTimeout("completion API did not respond in time").WithCause(err)
	}

	var statusErr *openai.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.ToCanonical()
	}

	var decodeErr *openai.DecodeError
	if errors.As(err, &decodeErr) {
		return domain.ErrUpstream("completion API returned a malformed response").
			WithCode(domain.ErrorCodeParseError).
			WithCause(err)
	}

	return domain.ErrUpstream("completion API request failed").WithCause(err)
}
