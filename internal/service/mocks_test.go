package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MayankVir/alonie-backend/internal/llm"
	"github.com/MayankVir/alonie-backend/internal/models"
)

// =============================================================================
// Mock UserRepository
// =============================================================================

type mockUserRepository struct {
	createFunc           func(ctx context.Context, user *models.User) error
	findByIDFunc         func(ctx context.Context, id uuid.UUID) (*models.User, error)
	findByEmailFunc      func(ctx context.Context, email string) (*models.User, error)
	findByExternalIDFunc func(ctx context.Context, externalID string) (*models.User, error)
	updateFunc           func(ctx context.Context, user *models.User) error
	listFunc             func(ctx context.Context) ([]models.User, error)
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return errors.New("not implemented")
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserRepository) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	if m.findByExternalIDFunc != nil {
		return m.findByExternalIDFunc(ctx, externalID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserRepository) Update(ctx context.Context, user *models.User) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, user)
	}
	return errors.New("not implemented")
}

func (m *mockUserRepository) List(ctx context.Context) ([]models.User, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

// =============================================================================
// In-memory CompanionRepository
// =============================================================================

// memCompanionRepo is a small in-memory implementation; most companion and
// seeder tests want real insert/lookup behavior rather than canned answers.
type memCompanionRepo struct {
	mu         sync.Mutex
	companions map[uuid.UUID]*models.Companion
}

func newMemCompanionRepo() *memCompanionRepo {
	return &memCompanionRepo{companions: make(map[uuid.UUID]*models.Companion)}
}

func (r *memCompanionRepo) Create(ctx context.Context, companion *models.Companion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if companion.ID == uuid.Nil {
		companion.ID = uuid.New()
	}
	companion.CreatedAt = time.Now()
	clone := *companion
	r.companions[companion.ID] = &clone
	return nil
}

func (r *memCompanionRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Companion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	companion, ok := r.companions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *companion
	return &clone, nil
}

func (r *memCompanionRepo) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.Companion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Companion
	for _, companion := range r.companions {
		if companion.UserID == userID && companion.IsActive {
			out = append(out, *companion)
		}
	}
	return out, nil
}

func (r *memCompanionRepo) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	list, _ := r.ListActiveByUser(ctx, userID)
	return int64(len(list)), nil
}

func (r *memCompanionRepo) ActiveNameExists(ctx context.Context, userID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, companion := range r.companions {
		if companion.UserID == userID && companion.Name == name && companion.IsActive && companion.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memCompanionRepo) Update(ctx context.Context, companion *models.Companion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *companion
	r.companions[companion.ID] = &clone
	return nil
}

// =============================================================================
// Mock ConversationRepository
// =============================================================================

type mockConversationRepository struct {
	createFunc                 func(ctx context.Context, conversation *models.Conversation) error
	findByIDFunc               func(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	findByUserAndCompanionFunc func(ctx context.Context, userID, companionID uuid.UUID) (*models.Conversation, error)
	listActiveByUserFunc       func(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Conversation, error)
	countActiveByUserFunc      func(ctx context.Context, userID uuid.UUID) (int64, error)
	touchFunc                  func(ctx context.Context, id uuid.UUID, at time.Time) error
}

func (m *mockConversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, conversation)
	}
	return errors.New("not implemented")
}

func (m *mockConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockConversationRepository) FindByUserAndCompanion(ctx context.Context, userID, companionID uuid.UUID) (*models.Conversation, error) {
	if m.findByUserAndCompanionFunc != nil {
		return m.findByUserAndCompanionFunc(ctx, userID, companionID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockConversationRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Conversation, error) {
	if m.listActiveByUserFunc != nil {
		return m.listActiveByUserFunc(ctx, userID, offset, limit)
	}
	return nil, errors.New("not implemented")
}

func (m *mockConversationRepository) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	if m.countActiveByUserFunc != nil {
		return m.countActiveByUserFunc(ctx, userID)
	}
	return 0, errors.New("not implemented")
}

func (m *mockConversationRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.touchFunc != nil {
		return m.touchFunc(ctx, id, at)
	}
	return errors.New("not implemented")
}

// =============================================================================
// Mock MessageRepository
// =============================================================================

type mockMessageRepository struct {
	mu      sync.Mutex
	created []*models.Message

	createFunc              func(ctx context.Context, message *models.Message) error
	listByConversationFunc  func(ctx context.Context, conversationID uuid.UUID, offset, limit int) ([]models.Message, error)
	countByConversationFunc func(ctx context.Context, conversationID uuid.UUID) (int64, error)
	lastByConversationFunc  func(ctx context.Context, conversationID uuid.UUID) (*models.Message, error)
}

// Create records every persisted message so tests can assert exactly what
// was written; an optional createFunc can inject failures.
func (m *mockMessageRepository) Create(ctx context.Context, message *models.Message) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, message); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = time.Now()
	m.created = append(m.created, message)
	return nil
}

func (m *mockMessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, offset, limit int) ([]models.Message, error) {
	if m.listByConversationFunc != nil {
		return m.listByConversationFunc(ctx, conversationID, offset, limit)
	}
	return nil, errors.New("not implemented")
}

func (m *mockMessageRepository) CountByConversation(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	if m.countByConversationFunc != nil {
		return m.countByConversationFunc(ctx, conversationID)
	}
	return 0, errors.New("not implemented")
}

func (m *mockMessageRepository) LastByConversation(ctx context.Context, conversationID uuid.UUID) (*models.Message, error) {
	if m.lastByConversationFunc != nil {
		return m.lastByConversationFunc(ctx, conversationID)
	}
	return nil, errors.New("not implemented")
}

// =============================================================================
// Fake llm.Provider
// =============================================================================

type fakeProvider struct {
	name     string
	reply    *llm.Reply
	err      error
	lastMsgs []llm.Message
	calls    int
}

func (p *fakeProvider) Name() string {
	if p.name != "" {
		return p.name
	}
	return llm.ProviderOpenAI
}

func (p *fakeProvider) GenerateReply(ctx context.Context, messages []llm.Message) (*llm.Reply, error) {
	p.calls++
	p.lastMsgs = messages
	if p.err != nil {
		return nil, p.err
	}
	return p.reply, nil
}

// =============================================================================
// Mock Seeder
// =============================================================================

type mockSeeder struct {
	calls []uuid.UUID
	err   error
}

func (s *mockSeeder) SeedDefaults(ctx context.Context, userID uuid.UUID) error {
	s.calls = append(s.calls, userID)
	return s.err
}
