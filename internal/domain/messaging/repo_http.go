package messaging

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/practice/console/internal/platform/apiclient"
	"github.com/practice/console/pkg/wire"
)

const (
	pathMessages        = "/providermessages/"
	pathSendMessage     = "/providermessages/send-message/"
	pathSendTemplate    = "/providermessages/send-template-message/"
	pathPreviewTemplate = "/providermessages/preview-template-message/"
	pathUploadFile      = "/ai-processing/upload-file/"
)

type repoHTTP struct{ client *apiclient.Client }

func NewRepoHTTP(client *apiclient.Client) Repository {
	return &repoHTTP{client: client}
}

func (r *repoHTTP) ListConversations(ctx context.Context) ([]Conversation, error) {
	var raw json.RawMessage
	if err := r.client.Get(ctx, pathMessages, nil, &raw); err != nil {
		return nil, err
	}
	var out []Conversation
	if err := wire.DecodeList(raw, &out, "conversations", "threads"); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}
	return out, nil
}

func (r *repoHTTP) GetConversation(ctx context.Context, publicID string) (*Conversation, error) {
	var out Conversation
	if err := r.client.Get(ctx, pathMessages+url.PathEscape(publicID)+"/", nil, &out); err != nil {
		return nil, err
	}
	if out.PublicID == "" {
		out.PublicID = publicID
	}
	return &out, nil
}

func (r *repoHTTP) SendMessage(ctx context.Context, req *SendRequest) (*SendResult, error) {
	var out SendResult
	if err := r.client.Post(ctx, pathSendMessage, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *repoHTTP) SwitchResponder(ctx context.Context, publicID string, req *SwitchRequest) error {
	return r.client.Post(ctx, "/gptthreads/"+url.PathEscape(publicID)+"/switch-responder/", req, nil)
}

func (r *repoHTTP) UploadFile(ctx context.Context, filename, contentType string, rd io.Reader) (*Media, error) {
	var out Media
	err := r.client.Upload(ctx, pathUploadFile, apiclient.File{
		FieldName:   "file",
		FileName:    filename,
		ContentType: contentType,
		Content:     rd,
	}, nil, &out)
	if err != nil {
		return nil, err
	}
	if out.MediaFilename == "" {
		out.MediaFilename = filename
	}
	if out.MediaMimeType == "" {
		out.MediaMimeType = contentType
	}
	return &out, nil
}

func (r *repoHTTP) SendTemplate(ctx context.Context, req *TemplateRequest) (*SendResult, error) {
	var out SendResult
	if err := r.client.Post(ctx, pathSendTemplate, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *repoHTTP) PreviewTemplate(ctx context.Context, req *TemplateRequest) (*TemplatePreview, error) {
	var out TemplatePreview
	if err := r.client.Post(ctx, pathPreviewTemplate, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
