package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/practice/console/pkg/wire"
)

var (
	ErrReloadAfterSwitch    = errors.New("responder switched but the conversation list could not be reloaded")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrTemplateRecipient    = errors.New("public_id or phone_number is required")
)

type Service struct {
	repo     Repository
	inbox    *Inbox
	handoffs HandoffMessages
	logger   zerolog.Logger
}

func NewService(repo Repository, handoffs HandoffMessages, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		inbox:    NewInbox(),
		handoffs: handoffs,
		logger:   logger.With().Str("component", "messaging").Logger(),
	}
}

func (s *Service) Inbox() *Inbox {
	return s.inbox
}

// Reload fetches the conversation list. A response that arrives after a
// newer reload has been applied is dropped.
func (s *Service) Reload(ctx context.Context) error {
	seq := s.inbox.Begin()
	list, err := s.repo.ListConversations(ctx)
	if err != nil {
		return err
	}
	if !s.inbox.Replace(list, seq) {
		s.logger.Debug().Uint64("seq", seq).Msg("stale conversation reload dropped")
	}
	return nil
}

func (s *Service) Conversation(ctx context.Context, publicID string) (*Conversation, error) {
	return s.repo.GetConversation(ctx, publicID)
}

func (s *Service) currentResponder(ctx context.Context, publicID string) (Responder, error) {
	if c, ok := s.inbox.Find(publicID); ok {
		return c.Responder, nil
	}
	c, err := s.repo.GetConversation(ctx, publicID)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrConversationNotFound, publicID, err)
	}
	return c.Responder, nil
}

// SwitchResponder hands the conversation to target. The local state is not
// changed optimistically; it comes from the reload after the switch.
func (s *Service) SwitchResponder(ctx context.Context, publicID string, target Responder, providerID wire.FlexID, message string) (*Conversation, error) {
	current, err := s.currentResponder(ctx, publicID)
	if err != nil {
		return nil, err
	}
	t, err := NextResponder(current, target)
	if err != nil {
		return nil, err
	}
	req, err := BuildSwitchRequest(t, providerID, message, s.handoffs)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SwitchResponder(ctx, publicID, req); err != nil {
		s.logger.Error().Err(err).Str("public_id", publicID).Str("action", string(t.Action)).Msg("switch responder")
		return nil, err
	}
	s.logger.Info().Str("public_id", publicID).Str("from", string(t.From)).Str("to", string(t.To)).Msg("responder switched")

	if err := s.Reload(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReloadAfterSwitch, err)
	}
	c, ok := s.inbox.Find(publicID)
	if !ok {
		return nil, fmt.Errorf("%w: %s is no longer listed after the switch", ErrConversationNotFound, publicID)
	}
	return &c, nil
}

// TakeOver switches an assistant-handled conversation to the provider.
func (s *Service) TakeOver(ctx context.Context, publicID string, providerID wire.FlexID, message string) (*Conversation, error) {
	return s.SwitchResponder(ctx, publicID, ResponderDoctor, providerID, message)
}

// Delegate hands a conversation back to the assistant.
func (s *Service) Delegate(ctx context.Context, publicID string, message string) (*Conversation, error) {
	return s.SwitchResponder(ctx, publicID, ResponderAssistant, "", message)
}

// Send posts the composed message and reloads the list. An empty composer is
// a no-op and returns (nil, nil).
func (s *Service) Send(ctx context.Context, publicID string, c Composer) (*SendResult, error) {
	if c.Empty() {
		return nil, nil
	}
	res, err := s.repo.SendMessage(ctx, c.request(publicID))
	if err != nil {
		s.logger.Error().Err(err).Str("public_id", publicID).Msg("send message")
		return nil, err
	}
	if err := s.Reload(ctx); err != nil {
		s.logger.Warn().Err(err).Str("public_id", publicID).Msg("reload after send")
	}
	return res, nil
}

// UploadMedia uploads an attachment. The server decides its media type.
func (s *Service) UploadMedia(ctx context.Context, filename, contentType string, r io.Reader) (*Media, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, errors.New("filename is required")
	}
	return s.repo.UploadFile(ctx, filename, contentType, r)
}

func (s *Service) SendTemplate(ctx context.Context, req *TemplateRequest) (*SendResult, error) {
	if req.PublicID == "" && req.PhoneNumber == "" {
		return nil, ErrTemplateRecipient
	}
	res, err := s.repo.SendTemplate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.Reload(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("reload after template send")
	}
	return res, nil
}

func (s *Service) PreviewTemplate(ctx context.Context, req *TemplateRequest) (*TemplatePreview, error) {
	return s.repo.PreviewTemplate(ctx, req)
}
