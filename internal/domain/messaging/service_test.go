package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// -- Mock Repository --

type mockRepo struct {
	mu            sync.Mutex
	conversations map[string]*Conversation
	order         []string
	listErr       error
	switchErr     error
	dropOnSwitch  bool
	listCalls     int
	sent          []*SendRequest
	switches      []*SwitchRequest
	templates     []*TemplateRequest
}

func newMockRepo(convs ...Conversation) *mockRepo {
	m := &mockRepo{conversations: make(map[string]*Conversation)}
	for i := range convs {
		c := convs[i]
		m.conversations[c.PublicID] = &c
		m.order = append(m.order, c.PublicID)
	}
	return m
}

func (m *mockRepo) ListConversations(_ context.Context) ([]Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []Conversation
	for _, id := range m.order {
		out = append(out, *m.conversations[id])
	}
	return out, nil
}

func (m *mockRepo) GetConversation(_ context.Context, publicID string) (*Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[publicID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) SendMessage(_ context.Context, req *SendRequest) (*SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, req)
	msg := Message{MessageID: "m1", Role: RoleDoctor, MessageValue: req.Message, MediaURL: req.MediaURL}
	if c, ok := m.conversations[req.PublicID]; ok {
		c.Messages = append(c.Messages, msg)
	}
	return &SendResult{Status: "sent", Message: &msg}, nil
}

func (m *mockRepo) SwitchResponder(_ context.Context, publicID string, req *SwitchRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.switchErr != nil {
		return m.switchErr
	}
	m.switches = append(m.switches, req)
	c, ok := m.conversations[publicID]
	if !ok {
		return fmt.Errorf("not found")
	}
	c.Responder = req.Responder
	if m.dropOnSwitch {
		for i, id := range m.order {
			if id == publicID {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (m *mockRepo) UploadFile(_ context.Context, filename, contentType string, r io.Reader) (*Media, error) {
	data, _ := io.ReadAll(r)
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}
	return &Media{MediaURL: "https://cdn.example/" + filename, MediaType: MediaImage, MediaFilename: filename, MediaMimeType: contentType}, nil
}

func (m *mockRepo) SendTemplate(_ context.Context, req *TemplateRequest) (*SendResult, error) {
	m.templates = append(m.templates, req)
	return &SendResult{Status: "queued"}, nil
}

func (m *mockRepo) PreviewTemplate(_ context.Context, req *TemplateRequest) (*TemplatePreview, error) {
	return &TemplatePreview{Preview: "Hello " + req.Parameters["name"]}, nil
}

func newTestService(convs ...Conversation) (*Service, *mockRepo) {
	repo := newMockRepo(convs...)
	return NewService(repo, testHandoffs, zerolog.Nop()), repo
}

func TestService_Reload(t *testing.T) {
	svc, _ := newTestService(Conversation{PublicID: "c1"}, Conversation{PublicID: "c2"})
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(svc.Inbox().Conversations()); n != 2 {
		t.Errorf("expected 2 conversations, got %d", n)
	}
}

func TestService_ResponderRoundTrip(t *testing.T) {
	svc, repo := newTestService(Conversation{PublicID: "c1", Responder: ResponderAssistant})
	ctx := context.Background()
	svc.Reload(ctx)

	conv, err := svc.TakeOver(ctx, "c1", "42", "")
	if err != nil {
		t.Fatalf("take over: %v", err)
	}
	if conv.Responder != ResponderDoctor {
		t.Errorf("expected doctor after take over, got %s", conv.Responder)
	}
	conv, err = svc.Delegate(ctx, "c1", "")
	if err != nil {
		t.Fatalf("delegate: %v", err)
	}
	if conv.Responder != ResponderAssistant {
		t.Errorf("expected original responder after round trip, got %s", conv.Responder)
	}

	if len(repo.switches) != 2 {
		t.Fatalf("expected 2 switch calls, got %d", len(repo.switches))
	}
	if repo.switches[0].ProviderID != "42" || !repo.switches[1].ProviderID.IsZero() {
		t.Errorf("unexpected provider ids %+v %+v", repo.switches[0], repo.switches[1])
	}
	if repo.switches[0].HandoffMessage != testHandoffs.TakeOver || repo.switches[1].HandoffMessage != testHandoffs.Delegate {
		t.Error("expected default hand-off messages")
	}
}

func TestService_SwitchResponder_NoOptimisticUpdate(t *testing.T) {
	svc, repo := newTestService(Conversation{PublicID: "c1", Responder: ResponderAssistant})
	ctx := context.Background()
	svc.Reload(ctx)
	repo.switchErr = errors.New("server down")

	if _, err := svc.TakeOver(ctx, "c1", "42", ""); err == nil {
		t.Fatal("expected error")
	}
	c, _ := svc.Inbox().Find("c1")
	if c.Responder != ResponderAssistant {
		t.Errorf("expected local state unchanged after failure, got %s", c.Responder)
	}
}

func TestService_SwitchResponder_IllegalNeverCallsServer(t *testing.T) {
	svc, repo := newTestService(Conversation{PublicID: "c1", Responder: ResponderDoctor})
	svc.Reload(context.Background())

	_, err := svc.TakeOver(context.Background(), "c1", "42", "")
	if !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("expected ErrIllegalTransition, got %v", err)
	}
	if len(repo.switches) != 0 {
		t.Error("expected no switch call")
	}
}

func TestService_SwitchResponder_FetchesUnknownConversation(t *testing.T) {
	svc, _ := newTestService(Conversation{PublicID: "c1", Responder: ResponderAssistant})
	conv, err := svc.TakeOver(context.Background(), "c1", "42", "On it")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.Responder != ResponderDoctor {
		t.Errorf("expected doctor, got %s", conv.Responder)
	}

	if _, err := svc.TakeOver(context.Background(), "zz", "42", ""); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestService_SwitchResponder_ReloadFailure(t *testing.T) {
	svc, repo := newTestService(Conversation{PublicID: "c1", Responder: ResponderAssistant})
	svc.Reload(context.Background())
	repo.listErr = errors.New("timeout")

	_, err := svc.TakeOver(context.Background(), "c1", "42", "")
	if !errors.Is(err, ErrReloadAfterSwitch) {
		t.Fatalf("expected ErrReloadAfterSwitch, got %v", err)
	}
	if len(repo.switches) != 1 {
		t.Error("expected the switch to have been sent")
	}
}

func TestService_SwitchResponder_GoneAfterReload(t *testing.T) {
	svc, repo := newTestService(Conversation{PublicID: "c1", Responder: ResponderAssistant})
	svc.Reload(context.Background())
	repo.dropOnSwitch = true

	conv, err := svc.TakeOver(context.Background(), "c1", "42", "")
	if !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
	if conv != nil {
		t.Errorf("expected no conversation, got %+v", conv)
	}
	if len(repo.switches) != 1 {
		t.Error("expected the switch to have been sent")
	}
}

func TestService_Send_EmptyIsNoop(t *testing.T) {
	svc, repo := newTestService(Conversation{PublicID: "c1"})
	res, err := svc.Send(context.Background(), "c1", Composer{Text: "", Media: nil})
	if res != nil || err != nil {
		t.Errorf("expected (nil, nil), got %v %v", res, err)
	}
	if _, err := svc.Send(context.Background(), "c1", Composer{Text: "   ", Media: &Media{}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(repo.sent) != 0 || repo.listCalls != 0 {
		t.Errorf("expected no API calls, got %d sends %d reloads", len(repo.sent), repo.listCalls)
	}
}

func TestService_Send(t *testing.T) {
	svc, repo := newTestService(Conversation{PublicID: "c1"})
	ctx := context.Background()
	media, err := svc.UploadMedia(ctx, "scan.png", "image/png", strings.NewReader("PNG"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	res, err := svc.Send(ctx, "c1", Composer{Text: " Please see attached ", Media: media})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.Status != "sent" {
		t.Errorf("unexpected result %+v", res)
	}
	req := repo.sent[0]
	if req.Message != "Please see attached" || req.MediaType != MediaImage || req.MediaURL == "" {
		t.Errorf("unexpected send request %+v", req)
	}
	if repo.listCalls != 1 {
		t.Errorf("expected a reload after send, got %d", repo.listCalls)
	}
	c, _ := svc.Inbox().Find("c1")
	if len(c.Messages) != 1 {
		t.Errorf("expected reloaded conversation to include the message")
	}
}

func TestService_Templates(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	if _, err := svc.SendTemplate(ctx, &TemplateRequest{TemplateName: "followup"}); !errors.Is(err, ErrTemplateRecipient) {
		t.Errorf("expected ErrTemplateRecipient, got %v", err)
	}
	if _, err := svc.SendTemplate(ctx, &TemplateRequest{PhoneNumber: "+2348030001111", TemplateName: "followup"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.templates) != 1 {
		t.Error("expected template to be sent")
	}
	p, err := svc.PreviewTemplate(ctx, &TemplateRequest{TemplateName: "followup", Parameters: map[string]string{"name": "Ada"}})
	if err != nil || p.Preview != "Hello Ada" {
		t.Errorf("unexpected preview %+v %v", p, err)
	}
}
