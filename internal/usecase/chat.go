// Package usecase wires the chat loop: render context, compose the prompt,
// call the model, interpret the reply, and apply the surviving actions.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"orgpilot/internal/action"
	"orgpilot/internal/agent"
	"orgpilot/internal/domain"
	"orgpilot/internal/infra/tracer"
)

// fallbackMessage is returned to the user when the model call fails. The
// turn itself still succeeds; the failure is logged and traced.
const fallbackMessage = "Sorry, I encountered an error processing your request. Please try again."

// ChatConfig tunes one ChatService instance.
type ChatConfig struct {
	// Model is passed through to the LLM provider.
	Model string
	// MaxPromptTokens rejects oversized prompts before the provider is
	// called. Zero disables the ceiling.
	MaxPromptTokens int
	// HistoryPageSize caps how many messages ChatHistory returns.
	HistoryPageSize int
	// LenientActions tolerates unknown data fields in action blocks.
	LenientActions bool
}

// ChatService runs complete chat turns against one LLM provider and one
// storage port.
type ChatService struct {
	provider domain.LLMProvider
	store    domain.Store
	interp   *action.Interpreter
	applier  *Applier
	logger   *slog.Logger
	cfg      ChatConfig
}

// NewChatService builds a ChatService. The interpreter and applier are
// constructed here so callers only wire ports.
func NewChatService(provider domain.LLMProvider, store domain.Store, logger *slog.Logger, cfg ChatConfig) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HistoryPageSize <= 0 {
		cfg.HistoryPageSize = 50
	}
	return &ChatService{
		provider: provider,
		store:    store,
		interp: action.NewInterpreter(
			action.WithLogger(logger),
			action.WithLenient(cfg.LenientActions),
		),
		applier: NewApplier(store, logger),
		logger:  logger,
		cfg:     cfg,
	}
}

// Send runs one full chat turn: build the context snapshot, compose the
// prompt, call the model, interpret the reply, apply the actions in order,
// and persist both halves of the exchange. A model failure does not fail
// the turn; the result carries the fallback message instead.
func (s *ChatService) Send(ctx context.Context, actx domain.AgentContext, message string) (*domain.ChatResult, error) {
	ctx, span := tracer.StartSpan(ctx, "chat.turn")
	defer span.End()
	span.SetAttributes(
		tracer.StringAttr("agent.type", string(actx.Type)),
		tracer.StringAttr("agent.area_id", actx.AreaID),
	)

	if message == "" {
		err := domain.NewDomainError("ChatService.Send", domain.ErrInvalidInput, "empty message")
		tracer.RecordError(span, err)
		return nil, err
	}
	if !actx.Type.Valid() {
		err := domain.NewDomainError("ChatService.Send", domain.ErrConfiguration,
			"unknown agent type "+string(actx.Type))
		tracer.RecordError(span, err)
		return nil, err
	}

	contextInfo, err := BuildContextInfo(ctx, s.store, actx)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	prompt, err := agent.Compose(actx.Type, contextInfo, message)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	if tokens, terr := EstimateTokens(prompt); terr == nil {
		s.logger.Debug("composed prompt", "tokens", tokens, "agent", string(actx.Type))
		span.SetAttributes(tracer.IntAttr("prompt.tokens", tokens))
		if s.cfg.MaxPromptTokens > 0 && tokens > s.cfg.MaxPromptTokens {
			err := domain.NewDomainError("ChatService.Send", domain.ErrInvalidInput,
				"prompt exceeds the configured token ceiling")
			tracer.RecordError(span, err)
			return nil, err
		}
	} else {
		s.logger.Warn("token estimate unavailable", "error", terr)
	}

	page := s.historyPage(actx)
	s.appendHistory(ctx, page, domain.RoleUser, message)

	resp, err := s.provider.Chat(ctx, domain.ChatRequest{
		Model: s.cfg.Model,
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: prompt, Timestamp: time.Now().UTC()},
		},
	})
	if err != nil {
		s.logger.Error("model call failed",
			"error", err,
			"code", string(domain.ErrorCodeOf(err)))
		tracer.RecordError(span, err)
		result := &domain.ChatResult{Message: fallbackMessage}
		s.appendHistory(ctx, page, domain.RoleAssistant, result.Message)
		return result, nil
	}

	interpreted := s.interp.Interpret(resp.Message.Content)

	applied, err := s.applier.Apply(ctx, actx, interpreted.Actions)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	s.appendHistory(ctx, page, domain.RoleAssistant, interpreted.Message)

	tracer.SetOK(span)
	span.SetAttributes(tracer.IntAttr("actions.applied", len(applied)))

	return &domain.ChatResult{
		Message:     interpreted.Message,
		Actions:     interpreted.Actions,
		Diagnostics: interpreted.Diagnostics,
		Applied:     applied,
		Usage:       resp.Usage,
	}, nil
}

// History returns the most recent messages for the context's page.
func (s *ChatService) History(ctx context.Context, actx domain.AgentContext) ([]domain.ChatMessage, error) {
	return s.store.ChatHistory(ctx, s.historyPage(actx), s.cfg.HistoryPageSize)
}

// ClearHistory wipes the conversation for the context's page.
func (s *ChatService) ClearHistory(ctx context.Context, actx domain.AgentContext) error {
	return s.store.ClearChatHistory(ctx, s.historyPage(actx))
}

// historyPage keys the conversation: the caller's page when set, otherwise
// one conversation per agent type.
func (s *ChatService) historyPage(actx domain.AgentContext) string {
	if actx.CurrentPage != "" {
		return actx.CurrentPage
	}
	return string(actx.Type)
}

// appendHistory persists one message half. History failures are logged and
// swallowed: losing a transcript line must not fail the turn.
func (s *ChatService) appendHistory(ctx context.Context, page, role, content string) {
	msg := domain.ChatMessage{
		ID:        ulid.Make().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.AppendChatMessage(ctx, page, msg); err != nil {
		s.logger.Warn("append chat history failed", "page", page, "error", err)
	}
}
