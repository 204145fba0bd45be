package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bantuin/internal/domain/entity"
	"bantuin/internal/domain/repository"
	"bantuin/internal/infrastructure/notification"
	"bantuin/pkg/errors"
)

// In-memory fakes reproducing the storage contracts, including the
// optimistic guard check, so lifecycle races are testable without Firestore.

type fakeHelpRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*entity.HelpRequest
	logs     []*entity.RequestLog
	offers   map[string]*entity.HelpOffer
	seq      int
}

func newFakeHelpRequestRepo() *fakeHelpRequestRepo {
	return &fakeHelpRequestRepo{
		requests: make(map[string]*entity.HelpRequest),
		offers:   make(map[string]*entity.HelpOffer),
	}
}

func (f *fakeHelpRequestRepo) Create(ctx context.Context, request *entity.HelpRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	if request.ID == "" {
		request.ID = fmt.Sprintf("req-%d", f.seq)
	}
	now := time.Now()
	request.CreatedAt = now
	request.UpdatedAt = now

	stored := *request
	f.requests[request.ID] = &stored
	return nil
}

func (f *fakeHelpRequestRepo) GetByID(ctx context.Context, id string) (*entity.HelpRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.requests[id]
	if !ok {
		return nil, errors.NotFound("Help request", nil)
	}
	result := *stored
	return &result, nil
}

func (f *fakeHelpRequestRepo) UpdateWithGuard(ctx context.Context, id string, guard repository.StatusGuard, mutate func(*entity.HelpRequest) error) (*entity.HelpRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.requests[id]
	if !ok {
		return nil, errors.NotFound("Help request", nil)
	}
	if stored.Status != guard.Status {
		return nil, errors.Conflict("Help request status changed since last read", nil)
	}
	if guard.CheckHelper && stored.HelperID != guard.HelperID {
		return nil, errors.Conflict("Help request helper changed since last read", nil)
	}

	updated := *stored
	if err := mutate(&updated); err != nil {
		return nil, err
	}
	if updated.Status != guard.Status && !entity.CanTransition(guard.Status, updated.Status) {
		return nil, errors.Internal("Illegal status transition", nil)
	}
	updated.UpdatedAt = time.Now()

	f.requests[id] = &updated
	result := updated
	return &result, nil
}

func (f *fakeHelpRequestRepo) ListOpen(ctx context.Context, limit, offset int) ([]*entity.HelpRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var open []*entity.HelpRequest
	for _, request := range f.requests {
		if request.Status == entity.StatusOpen {
			result := *request
			open = append(open, &result)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].CreatedAt.After(open[j].CreatedAt) })

	total := int64(len(open))
	if offset >= len(open) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(open) {
		end = len(open)
	}
	return open[offset:end], total, nil
}

func (f *fakeHelpRequestRepo) ListExpiring(ctx context.Context, now time.Time, limit int) ([]*entity.HelpRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var overdue []*entity.HelpRequest
	for _, request := range f.requests {
		if request.Status != entity.StatusPending && request.Status != entity.StatusOngoing {
			continue
		}
		if request.ExpiresAt == nil || request.ExpiresAt.After(now) {
			continue
		}
		result := *request
		overdue = append(overdue, &result)
		if len(overdue) >= limit {
			break
		}
	}
	return overdue, nil
}

func (f *fakeHelpRequestRepo) CountCompletedByHelper(ctx context.Context, helperID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, request := range f.requests {
		if request.HelperID == helperID && request.Status == entity.StatusCompleted {
			count++
		}
	}
	return count, nil
}

func (f *fakeHelpRequestRepo) CreateLog(ctx context.Context, log *entity.RequestLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	log.ID = fmt.Sprintf("log-%d", f.seq)
	log.CreatedAt = time.Now()
	stored := *log
	f.logs = append(f.logs, &stored)
	return nil
}

func (f *fakeHelpRequestRepo) ListLogsByRequestID(ctx context.Context, requestID string) ([]*entity.RequestLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var logs []*entity.RequestLog
	for _, log := range f.logs {
		if log.RequestID == requestID {
			result := *log
			logs = append(logs, &result)
		}
	}
	return logs, nil
}

func (f *fakeHelpRequestRepo) CreateOffer(ctx context.Context, offer *entity.HelpOffer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := offer.RequestID + ":" + offer.HelperID
	offer.ID = key
	offer.CreatedAt = time.Now()
	stored := *offer
	f.offers[key] = &stored
	return nil
}

func (f *fakeHelpRequestRepo) GetOfferByRequestAndHelper(ctx context.Context, requestID, helperID string) (*entity.HelpOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.offers[requestID+":"+helperID]
	if !ok {
		return nil, errors.NotFound("Help offer", nil)
	}
	result := *stored
	return &result, nil
}

type fakeChatRepo struct {
	mu       sync.Mutex
	chats    map[string]*entity.Chat
	messages []*entity.Message
	seq      int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[string]*entity.Chat)}
}

func fakeChatKey(participantIDs []string, requestID string) string {
	ids := append([]string(nil), participantIDs...)
	sort.Strings(ids)
	return strings.Join(ids, ":") + "|" + requestID
}

func (f *fakeChatRepo) FindOrCreate(ctx context.Context, chat *entity.Chat) (*entity.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := fakeChatKey(chat.ParticipantIDs, chat.RequestID)
	if existing, ok := f.chats[key]; ok {
		result := *existing
		return &result, nil
	}

	chat.ID = key
	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	if chat.UnreadCount == nil {
		chat.UnreadCount = make(map[string]int)
	}

	stored := *chat
	f.chats[key] = &stored
	result := stored
	return &result, nil
}

func (f *fakeChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	result := *stored
	return &result, nil
}

func (f *fakeChatRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var chats []*entity.Chat
	for _, chat := range f.chats {
		for _, participantID := range chat.ParticipantIDs {
			if participantID == userID {
				result := *chat
				chats = append(chats, &result)
				break
			}
		}
	}

	total := int64(len(chats))
	if offset >= len(chats) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(chats) {
		end = len(chats)
	}
	return chats[offset:end], total, nil
}

func (f *fakeChatRepo) Update(ctx context.Context, chat *entity.Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.chats[chat.ID]; !ok {
		return errors.NotFound("Chat", nil)
	}
	chat.UpdatedAt = time.Now()
	stored := *chat
	f.chats[chat.ID] = &stored
	return nil
}

func (f *fakeChatRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	message.ID = fmt.Sprintf("msg-%d", f.seq)
	message.Timestamp = time.Now()
	stored := *message
	f.messages = append(f.messages, &stored)
	return nil
}

func (f *fakeChatRepo) GetMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var messages []*entity.Message
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].ChatID == chatID {
			result := *f.messages[i]
			messages = append(messages, &result)
		}
	}

	total := int64(len(messages))
	if offset >= len(messages) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(messages) {
		end = len(messages)
	}
	return messages[offset:end], total, nil
}

func (f *fakeChatRepo) MarkMessagesRead(ctx context.Context, chatID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, message := range f.messages {
		if message.ChatID == chatID && message.SenderID != userID {
			message.Read = true
		}
	}
	return nil
}

func (f *fakeChatRepo) messagesFor(chatID string) []*entity.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	var messages []*entity.Message
	for _, message := range f.messages {
		if message.ChatID == chatID {
			result := *message
			messages = append(messages, &result)
		}
	}
	return messages
}

type fakeReviewRepo struct {
	mu          sync.Mutex
	reviews     map[string]*entity.Review // keyed by requestID, mirrors deterministic doc IDs
	failCreates int                       // next N Create calls fail, simulating ledger outage
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[string]*entity.Review)}
}

func (f *fakeReviewRepo) Create(ctx context.Context, review *entity.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCreates > 0 {
		f.failCreates--
		return errors.Unavailable("Failed to create review", nil)
	}

	review.ID = "review:" + review.RequestID
	review.CreatedAt = time.Now()
	stored := *review
	f.reviews[review.RequestID] = &stored
	return nil
}

func (f *fakeReviewRepo) GetByRequestID(ctx context.Context, requestID string) (*entity.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.reviews[requestID]
	if !ok {
		return nil, errors.NotFound("Review", nil)
	}
	result := *stored
	return &result, nil
}

func (f *fakeReviewRepo) ListByReviewee(ctx context.Context, revieweeUID string) ([]*entity.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var reviews []*entity.Review
	for _, review := range f.reviews {
		if review.RevieweeUID == revieweeUID {
			result := *review
			reviews = append(reviews, &result)
		}
	}
	return reviews, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, user := range users {
		stored := *user
		repo.users[user.ID] = &stored
	}
	return repo
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	result := *stored
	return &result, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[user.ID]; !ok {
		return errors.NotFound("User", nil)
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) UpdateReputation(ctx context.Context, userID string, reputation entity.UserReputation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.users[userID]
	if !ok {
		return errors.NotFound("User", nil)
	}
	stored.Reputation = reputation
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []notification.Event
}

func (f *fakePublisher) Publish(ctx context.Context, event notification.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var types []string
	for _, event := range f.events {
		types = append(types, event.Type)
	}
	return types
}

func (f *fakePublisher) eventsOfType(eventType string) []notification.Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []notification.Event
	for _, event := range f.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}
