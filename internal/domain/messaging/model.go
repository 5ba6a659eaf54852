package messaging

import (
	"github.com/practice/console/pkg/wire"
)

// Responder is who currently answers the patient in a conversation.
type Responder string

const (
	ResponderAssistant Responder = "assistant"
	ResponderDoctor    Responder = "doctor"
)

func (r Responder) Valid() bool {
	return r == ResponderAssistant || r == ResponderDoctor
}

// Role is the author of a single message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleDoctor    Role = "doctor"
)

// MediaType is assigned by the upload endpoint, never inferred locally.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaAudio    MediaType = "audio"
	MediaDocument MediaType = "document"
)

type Message struct {
	MessageID     wire.FlexID `json:"message_id"`
	Role          Role        `json:"role"`
	MessageValue  string      `json:"message_value"`
	MediaURL      string      `json:"media_url,omitempty"`
	MediaType     MediaType   `json:"media_type,omitempty"`
	MediaFilename string      `json:"media_filename,omitempty"`
	MediaMimeType string      `json:"media_mime_type,omitempty"`
	Created       string      `json:"created"`
}

func (m Message) HasMedia() bool {
	return m.MediaURL != ""
}

type Conversation struct {
	PublicID          string    `json:"public_id"`
	InterlocutorName  string    `json:"interlocutor_name"`
	InterlocutorPhone string    `json:"interlocutor_phone"`
	Responder         Responder `json:"responder"`
	Messages          []Message `json:"messages"`
	Updated           string    `json:"updated,omitempty"`
}

// LastMessage returns the newest message, if any.
func (c Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// Media is an uploaded attachment ready to be sent with a message.
type Media struct {
	MediaURL      string    `json:"media_url"`
	MediaType     MediaType `json:"media_type"`
	MediaFilename string    `json:"media_filename,omitempty"`
	MediaMimeType string    `json:"media_mime_type,omitempty"`
}

// SwitchRequest is the body of the switch-responder call.
type SwitchRequest struct {
	Responder          Responder   `json:"responder"`
	ProviderID         wire.FlexID `json:"provider_id,omitempty"`
	SendHandoffMessage bool        `json:"send_handoff_message"`
	HandoffMessage     string      `json:"handoff_message"`
}

// SendRequest is the body of the send-message call.
type SendRequest struct {
	PublicID      string    `json:"public_id"`
	Message       string    `json:"message,omitempty"`
	MediaURL      string    `json:"media_url,omitempty"`
	MediaType     MediaType `json:"media_type,omitempty"`
	MediaFilename string    `json:"media_filename,omitempty"`
	MediaMimeType string    `json:"media_mime_type,omitempty"`
}

type SendResult struct {
	Status  string   `json:"status,omitempty"`
	Message *Message `json:"message,omitempty"`
}

// TemplateRequest sends or previews a pre-approved message template.
type TemplateRequest struct {
	PublicID     string            `json:"public_id,omitempty"`
	PhoneNumber  string            `json:"phone_number,omitempty" validate:"omitempty,phone_number"`
	TemplateName string            `json:"template_name" validate:"required"`
	Parameters   map[string]string `json:"parameters,omitempty"`
}

type TemplatePreview struct {
	Preview string `json:"preview"`
}
