package messaging

import "strings"

// Composer is the message being written: text, one attachment, or both.
type Composer struct {
	Text  string `json:"text"`
	Media *Media `json:"media,omitempty"`
}

// Empty reports whether there is nothing to send.
func (c Composer) Empty() bool {
	return strings.TrimSpace(c.Text) == "" && (c.Media == nil || c.Media.MediaURL == "")
}

func (c Composer) request(publicID string) *SendRequest {
	req := &SendRequest{PublicID: publicID, Message: strings.TrimSpace(c.Text)}
	if c.Media != nil && c.Media.MediaURL != "" {
		req.MediaURL = c.Media.MediaURL
		req.MediaType = c.Media.MediaType
		req.MediaFilename = c.Media.MediaFilename
		req.MediaMimeType = c.Media.MediaMimeType
	}
	return req
}
