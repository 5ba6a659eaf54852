package messaging

import (
	"context"
	"io"
)

// Repository is the remote messaging API.
type Repository interface {
	ListConversations(ctx context.Context) ([]Conversation, error)
	GetConversation(ctx context.Context, publicID string) (*Conversation, error)
	SendMessage(ctx context.Context, req *SendRequest) (*SendResult, error)
	SwitchResponder(ctx context.Context, publicID string, req *SwitchRequest) error
	UploadFile(ctx context.Context, filename, contentType string, r io.Reader) (*Media, error)
	SendTemplate(ctx context.Context, req *TemplateRequest) (*SendResult, error)
	PreviewTemplate(ctx context.Context, req *TemplateRequest) (*TemplatePreview, error)
}
