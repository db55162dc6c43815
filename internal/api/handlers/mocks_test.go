package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MayankVir/alonie-backend/internal/httputil"
	"github.com/MayankVir/alonie-backend/internal/identity"
	"github.com/MayankVir/alonie-backend/internal/models"
	"github.com/MayankVir/alonie-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockAuthService struct {
	registerFunc func(ctx context.Context, input service.RegisterInput) (*service.AuthResult, error)
	loginFunc    func(ctx context.Context, email, password string) (*service.AuthResult, error)
}

func (m *mockAuthService) Register(ctx context.Context, input service.RegisterInput) (*service.AuthResult, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, input)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, email, password)
	}
	return nil, errors.New("not implemented")
}

type mockUserService struct {
	getFunc           func(ctx context.Context, id uuid.UUID) (*models.User, error)
	updateProfileFunc func(ctx context.Context, id uuid.UUID, update service.ProfileUpdate) (*models.User, error)
	listFunc          func(ctx context.Context) ([]models.User, error)
	deactivateFunc    func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, update service.ProfileUpdate) (*models.User, error) {
	if m.updateProfileFunc != nil {
		return m.updateProfileFunc(ctx, id, update)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) List(ctx context.Context) ([]models.User, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if m.deactivateFunc != nil {
		return m.deactivateFunc(ctx, id)
	}
	return errors.New("not implemented")
}

type mockCompanionService struct {
	listFunc   func(ctx context.Context, userID uuid.UUID) ([]models.Companion, error)
	getFunc    func(ctx context.Context, userID, id uuid.UUID) (*models.Companion, error)
	createFunc func(ctx context.Context, userID uuid.UUID, input service.CompanionInput) (*models.Companion, error)
	updateFunc func(ctx context.Context, userID, id uuid.UUID, update service.CompanionUpdate) (*models.Companion, error)
	deleteFunc func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *mockCompanionService) List(ctx context.Context, userID uuid.UUID) ([]models.Companion, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCompanionService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Companion, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCompanionService) Create(ctx context.Context, userID uuid.UUID, input service.CompanionInput) (*models.Companion, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, userID, input)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCompanionService) Update(ctx context.Context, userID, id uuid.UUID, update service.CompanionUpdate) (*models.Companion, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, userID, id, update)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCompanionService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, userID, id)
	}
	return errors.New("not implemented")
}

type mockConversationService struct {
	listFunc     func(ctx context.Context, userID uuid.UUID, page, limit int) ([]service.ConversationSummary, int64, error)
	messagesFunc func(ctx context.Context, userID, companionID uuid.UUID, page, limit int) ([]models.Message, int64, error)
}

func (m *mockConversationService) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]service.ConversationSummary, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, page, limit)
	}
	return nil, 0, errors.New("not implemented")
}

func (m *mockConversationService) Messages(ctx context.Context, userID, companionID uuid.UUID, page, limit int) ([]models.Message, int64, error) {
	if m.messagesFunc != nil {
		return m.messagesFunc(ctx, userID, companionID, page, limit)
	}
	return nil, 0, errors.New("not implemented")
}

type mockChatService struct {
	exchangeFunc func(ctx context.Context, userID uuid.UUID, input service.ExchangeInput) (*service.ExchangeResult, error)
}

func (m *mockChatService) Exchange(ctx context.Context, userID uuid.UUID, input service.ExchangeInput) (*service.ExchangeResult, error) {
	if m.exchangeFunc != nil {
		return m.exchangeFunc(ctx, userID, input)
	}
	return nil, errors.New("not implemented")
}

type mockIdentityService struct {
	resolveFunc func(ctx context.Context, ident *identity.Identity) (*models.User, error)
	webhookFunc func(ctx context.Context, event *identity.WebhookEvent) error
}

func (m *mockIdentityService) ResolveExternal(ctx context.Context, ident *identity.Identity) (*models.User, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, ident)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIdentityService) HandleWebhook(ctx context.Context, event *identity.WebhookEvent) error {
	if m.webhookFunc != nil {
		return m.webhookFunc(ctx, event)
	}
	return errors.New("not implemented")
}

// handlerMocks bundles one mock per service so a test can override just the
// ones it exercises.
type handlerMocks struct {
	auth          *mockAuthService
	users         *mockUserService
	companions    *mockCompanionService
	conversations *mockConversationService
	chat          *mockChatService
	identity      *mockIdentityService
}

const testWebhookSecret = "whsec_test"

func newTestHandler() (*Handler, *handlerMocks) {
	mocks := &handlerMocks{
		auth:          &mockAuthService{},
		users:         &mockUserService{},
		companions:    &mockCompanionService{},
		conversations: &mockConversationService{},
		chat:          &mockChatService{},
		identity:      &mockIdentityService{},
	}
	h := NewHandler(mocks.auth, mocks.users, mocks.companions,
		mocks.conversations, mocks.chat, mocks.identity, testWebhookSecret, zap.NewNop())
	return h, mocks
}

// attachUser fakes the guard for routes that expect an authenticated caller.
func attachUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) httputil.Envelope {
	t.Helper()
	var env httputil.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v\n%s", err, w.Body.String())
	}
	return env
}
