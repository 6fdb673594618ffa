// Package chat runs one receptionist exchange: resolve the tenant, compose
// its prompt, forward the message and pair the reply with the tenant record.
package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tjfontaine/receptionist-gateway/internal/completion"
	"github.com/tjfontaine/receptionist-gateway/internal/domain"
	"github.com/tjfontaine/receptionist-gateway/internal/prompt"
	"github.com/tjfontaine/receptionist-gateway/internal/server"
)

// TenantResolver maps a tenant id to exactly one tenant.
type TenantResolver interface {
	Resolve(ctx context.Context, id string) (*domain.Tenant, error)
}

// Completer sends a system prompt and user message upstream.
type Completer interface {
	Forward(ctx context.Context, systemPrompt, userMessage string) (*completion.Result, error)
}

type Service struct {
	resolver  TenantResolver
	completer Completer
	logger    *slog.Logger
}

func NewService(resolver TenantResolver, completer Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resolver:  resolver,
		completer: completer,
		logger:    logger,
	}
}

// Reply runs the exchange. Steps are strictly sequential: a failed lookup
// or prompt never reaches the completion API. Every error is an
// *domain.APIError.
func (s *Service) Reply(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	server.AddLogField(ctx, "tenant_id", req.TenantID)

	t, err := s.resolver.Resolve(ctx, req.TenantID)
	if err != nil {
		return nil, domain.ToAPIError(err)
	}

	systemPrompt, err := prompt.Compose(t)
	if err != nil {
		if errors.Is(err, prompt.ErrMissingName) {
			s.logger.ErrorContext(ctx, "tenant record has no name", slog.String("tenant_id", t.ID))
			return nil, domain.ErrConfiguration("Company record is missing a name").
				WithCode(domain.ErrorCodeMissingName).
				WithCause(err)
		}
		return nil, domain.ToAPIError(err)
	}

	result, err := s.completer.Forward(ctx, systemPrompt, req.Message)
	if err != nil {
		return nil, domain.ToAPIError(err)
	}

	server.AddLogField(ctx, "model", result.Model)
	server.AddLogInt(ctx, "prompt_tokens_estimate", result.PromptTokens)
	server.AddLogInt(ctx, "usage_total_tokens", result.Usage.TotalTokens)

	return &domain.ChatResponse{
		Reply:   result.Reply,
		Company: t,
	}, nil
}
