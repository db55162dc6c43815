package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MayankVir/alonie-backend/internal/models"
	"github.com/MayankVir/alonie-backend/internal/repository"
)

func TestConversationList(t *testing.T) {
	userID := uuid.New()
	companions := newMemCompanionRepo()

	companion := newTestCompanion(userID)
	companion.Greeting = "Hey, it's so good to see you!"
	if err := companions.Create(context.Background(), companion); err != nil {
		t.Fatal(err)
	}

	withMessages := models.Conversation{
		ID: uuid.New(), UserID: userID, CompanionID: companion.ID,
		Title: "Chat with Luna", LastMessageAt: time.Now(), IsActive: true,
	}
	lastMessage := &models.Message{
		ID: uuid.New(), ConversationID: withMessages.ID,
		Content: "See you tomorrow!", Sender: models.SenderCompanion,
	}

	conversations := &mockConversationRepository{
		listActiveByUserFunc: func(ctx context.Context, uid uuid.UUID, offset, limit int) ([]models.Conversation, error) {
			return []models.Conversation{withMessages}, nil
		},
		countActiveByUserFunc: func(ctx context.Context, uid uuid.UUID) (int64, error) {
			return 1, nil
		},
	}
	messages := &mockMessageRepository{
		lastByConversationFunc: func(ctx context.Context, conversationID uuid.UUID) (*models.Message, error) {
			return lastMessage, nil
		},
	}

	svc := NewConversationService(conversations, companions, messages, repository.NewMessageCache(nil), zap.NewNop())
	summaries, total, err := svc.List(context.Background(), userID, 1, 20)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || len(summaries) != 1 {
		t.Fatalf("got %d summaries (total %d), want 1", len(summaries), total)
	}

	summary := summaries[0]
	if summary.Title != "Chat with Luna" {
		t.Errorf("Title = %q", summary.Title)
	}
	if summary.Companion.Name != "Luna" || summary.Companion.ID != companion.ID {
		t.Errorf("Companion = %+v", summary.Companion)
	}
	if summary.LastMessage != "See you tomorrow!" || summary.LastSender != models.SenderCompanion {
		t.Errorf("last message = (%q, %q)", summary.LastMessage, summary.LastSender)
	}
}

func TestConversationListGreetingFallback(t *testing.T) {
	userID := uuid.New()
	companions := newMemCompanionRepo()

	companion := newTestCompanion(userID)
	companion.Greeting = "Hello, friend!"
	if err := companions.Create(context.Background(), companion); err != nil {
		t.Fatal(err)
	}

	conversations := &mockConversationRepository{
		listActiveByUserFunc: func(ctx context.Context, uid uuid.UUID, offset, limit int) ([]models.Conversation, error) {
			return []models.Conversation{{ID: uuid.New(), UserID: userID, CompanionID: companion.ID, IsActive: true}}, nil
		},
		countActiveByUserFunc: func(ctx context.Context, uid uuid.UUID) (int64, error) {
			return 1, nil
		},
	}
	messages := &mockMessageRepository{
		lastByConversationFunc: func(ctx context.Context, conversationID uuid.UUID) (*models.Message, error) {
			return nil, nil
		},
	}

	svc := NewConversationService(conversations, companions, messages, repository.NewMessageCache(nil), zap.NewNop())
	summaries, _, err := svc.List(context.Background(), userID, 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if summaries[0].LastMessage != "Hello, friend!" {
		t.Errorf("LastMessage = %q, want the greeting fallback", summaries[0].LastMessage)
	}
	if summaries[0].LastSender != "" {
		t.Errorf("LastSender = %q, want empty for a greeting", summaries[0].LastSender)
	}
}

func TestConversationListSkipsOrphanedRows(t *testing.T) {
	userID := uuid.New()
	companions := newMemCompanionRepo()

	conversations := &mockConversationRepository{
		listActiveByUserFunc: func(ctx context.Context, uid uuid.UUID, offset, limit int) ([]models.Conversation, error) {
			// References a companion that no longer exists.
			return []models.Conversation{{ID: uuid.New(), UserID: userID, CompanionID: uuid.New(), IsActive: true}}, nil
		},
		countActiveByUserFunc: func(ctx context.Context, uid uuid.UUID) (int64, error) {
			return 1, nil
		},
	}

	svc := NewConversationService(conversations, companions, &mockMessageRepository{}, repository.NewMessageCache(nil), zap.NewNop())
	summaries, _, err := svc.List(context.Background(), userID, 1, 20)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("got %d summaries, want orphaned row skipped", len(summaries))
	}
}

func TestConversationMessages(t *testing.T) {
	userID := uuid.New()
	companionID := uuid.New()
	conversationID := uuid.New()

	conversations := &mockConversationRepository{
		findByUserAndCompanionFunc: func(ctx context.Context, uid, cid uuid.UUID) (*models.Conversation, error) {
			return &models.Conversation{ID: conversationID, UserID: userID, CompanionID: companionID, IsActive: true}, nil
		},
	}
	var gotOffset, gotLimit int
	messages := &mockMessageRepository{
		listByConversationFunc: func(ctx context.Context, cid uuid.UUID, offset, limit int) ([]models.Message, error) {
			gotOffset, gotLimit = offset, limit
			return []models.Message{{ID: uuid.New(), ConversationID: cid}}, nil
		},
		countByConversationFunc: func(ctx context.Context, cid uuid.UUID) (int64, error) {
			return 41, nil
		},
	}

	svc := NewConversationService(conversations, newMemCompanionRepo(), messages, repository.NewMessageCache(nil), zap.NewNop())
	list, total, err := svc.Messages(context.Background(), userID, companionID, 3, 20)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if total != 41 || len(list) != 1 {
		t.Errorf("got %d messages (total %d)", len(list), total)
	}
	if gotOffset != 40 || gotLimit != 20 {
		t.Errorf("pagination = (%d, %d), want (40, 20)", gotOffset, gotLimit)
	}
}

func newRedisCache(t *testing.T) *repository.MessageCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return repository.NewMessageCache(client)
}

func TestConversationMessagesServedFromCache(t *testing.T) {
	userID := uuid.New()
	companionID := uuid.New()
	conversationID := uuid.New()

	conversations := &mockConversationRepository{
		findByUserAndCompanionFunc: func(ctx context.Context, uid, cid uuid.UUID) (*models.Conversation, error) {
			return &models.Conversation{ID: conversationID, UserID: userID, CompanionID: companionID, IsActive: true}, nil
		},
	}

	cache := newRedisCache(t)
	history := make([]models.Message, 0, 3)
	for _, content := range []string{"Hi", "Hello!", "How are you?"} {
		msg := &models.Message{ID: uuid.New(), ConversationID: conversationID, Content: content, Sender: models.SenderUser}
		if err := cache.Append(context.Background(), msg); err != nil {
			t.Fatal(err)
		}
		history = append(history, *msg)
	}

	// The mock message repository errors on any call, so a hit must never
	// touch the database.
	svc := NewConversationService(conversations, newMemCompanionRepo(), &mockMessageRepository{}, cache, zap.NewNop())

	list, total, err := svc.Messages(context.Background(), userID, companionID, 1, 2)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(list) != 2 || list[0].Content != "Hi" || list[1].Content != "Hello!" {
		t.Errorf("page 1 = %+v, want the first two cached messages", list)
	}

	list, _, err = svc.Messages(context.Background(), userID, companionID, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Content != history[2].Content {
		t.Errorf("page 2 = %+v, want the last cached message", list)
	}
}

func TestConversationMessagesFillsCacheOnMiss(t *testing.T) {
	userID := uuid.New()
	companionID := uuid.New()
	conversationID := uuid.New()

	conversations := &mockConversationRepository{
		findByUserAndCompanionFunc: func(ctx context.Context, uid, cid uuid.UUID) (*models.Conversation, error) {
			return &models.Conversation{ID: conversationID, UserID: userID, CompanionID: companionID, IsActive: true}, nil
		},
	}
	dbReads := 0
	messages := &mockMessageRepository{
		listByConversationFunc: func(ctx context.Context, cid uuid.UUID, offset, limit int) ([]models.Message, error) {
			dbReads++
			return []models.Message{
				{ID: uuid.New(), ConversationID: cid, Content: "Hi", Sender: models.SenderUser},
				{ID: uuid.New(), ConversationID: cid, Content: "Hello!", Sender: models.SenderCompanion},
			}, nil
		},
		countByConversationFunc: func(ctx context.Context, cid uuid.UUID) (int64, error) {
			return 2, nil
		},
	}

	cache := newRedisCache(t)
	svc := NewConversationService(conversations, newMemCompanionRepo(), messages, cache, zap.NewNop())

	if _, _, err := svc.Messages(context.Background(), userID, companionID, 1, 20); err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if dbReads != 1 {
		t.Fatalf("dbReads = %d, want 1", dbReads)
	}

	// The full-history page backfilled the list; the re-read is a hit.
	list, total, err := svc.Messages(context.Background(), userID, companionID, 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if dbReads != 1 {
		t.Errorf("dbReads = %d after re-read, want the cache to serve it", dbReads)
	}
	if total != 2 || len(list) != 2 {
		t.Errorf("got %d messages (total %d), want 2", len(list), total)
	}
}

func TestConversationMessagesPartialPageDoesNotFill(t *testing.T) {
	userID := uuid.New()
	companionID := uuid.New()
	conversationID := uuid.New()

	conversations := &mockConversationRepository{
		findByUserAndCompanionFunc: func(ctx context.Context, uid, cid uuid.UUID) (*models.Conversation, error) {
			return &models.Conversation{ID: conversationID, UserID: userID, CompanionID: companionID, IsActive: true}, nil
		},
	}
	messages := &mockMessageRepository{
		listByConversationFunc: func(ctx context.Context, cid uuid.UUID, offset, limit int) ([]models.Message, error) {
			return []models.Message{{ID: uuid.New(), ConversationID: cid, Content: "Hi"}}, nil
		},
		countByConversationFunc: func(ctx context.Context, cid uuid.UUID) (int64, error) {
			// More history exists than the page returned.
			return 50, nil
		},
	}

	cache := newRedisCache(t)
	svc := NewConversationService(conversations, newMemCompanionRepo(), messages, cache, zap.NewNop())

	if _, _, err := svc.Messages(context.Background(), userID, companionID, 1, 1); err != nil {
		t.Fatal(err)
	}

	cached, err := cache.Get(context.Background(), conversationID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != 0 {
		t.Errorf("cache holds %d messages, want no fill from a partial page", len(cached))
	}
}

func TestConversationMessagesNoConversation(t *testing.T) {
	conversations := &mockConversationRepository{
		findByUserAndCompanionFunc: func(ctx context.Context, uid, cid uuid.UUID) (*models.Conversation, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := NewConversationService(conversations, newMemCompanionRepo(), &mockMessageRepository{}, repository.NewMessageCache(nil), zap.NewNop())
	list, total, err := svc.Messages(context.Background(), uuid.New(), uuid.New(), 1, 20)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if total != 0 || len(list) != 0 {
		t.Errorf("got %d messages (total %d), want an empty page", len(list), total)
	}
}
