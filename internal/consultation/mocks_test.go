package consultation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"medmarket-ai/internal/registry"
)

// Compile-time checks that the mocks satisfy the interfaces they stand for.
var (
	_ Repository      = (*memoryRepository)(nil)
	_ ReportService   = (*mockReportService)(nil)
	_ registry.Client = (*mockRegistryClient)(nil)
)

// memoryRepository is an in-memory Repository good enough to observe
// ordering and persistence behaviour.
type memoryRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	messages []ChatMessage
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{sessions: make(map[uuid.UUID]*Session)}
}

func (r *memoryRepository) CreateSession(ctx context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	copied := *s
	r.sessions[s.ID] = &copied
	return nil
}

func (r *memoryRepository) GetSessionByToken(ctx context.Context, token string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.SessionToken == token {
			copied := *s
			return &copied, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (r *memoryRepository) AppendMessage(ctx context.Context, m *ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.messages = append(r.messages, *m)
	return nil
}

func (r *memoryRepository) ListMessages(ctx context.Context, consultationID uuid.UUID) ([]ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ChatMessage
	for _, m := range r.messages {
		if m.ConsultationID == consultationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRepository) allMessages() []ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChatMessage, len(r.messages))
	copy(out, r.messages)
	return out
}

// mockInferenceClient returns a scripted response or error.
type mockInferenceClient struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (m *mockInferenceClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "", fmt.Errorf("GenerateFunc not set in mock")
}

type mockRegistryClient struct {
	SearchFunc func(ctx context.Context, name string) ([]registry.Entry, error)
}

func (m *mockRegistryClient) Search(ctx context.Context, name string) ([]registry.Entry, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, name)
	}
	return nil, nil
}

// mockReportService signals on a channel so tests can wait for the
// background alert goroutine.
type mockReportService struct {
	alerts chan ConsultResult
}

func newMockReportService() *mockReportService {
	return &mockReportService{alerts: make(chan ConsultResult, 4)}
}

func (m *mockReportService) SendSeverityAlert(ctx context.Context, s Session, result ConsultResult) error {
	m.alerts <- result
	return nil
}
