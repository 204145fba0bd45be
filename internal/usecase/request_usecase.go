package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bantuin/internal/domain/entity"
	"bantuin/internal/domain/repository"
	"bantuin/internal/infrastructure/notification"
	"bantuin/pkg/errors"
	"bantuin/pkg/logger"
)

const reputationRecomputeTimeout = 5 * time.Second

// RequestUseCase is the lifecycle engine. It owns the HelpRequest entity,
// enforces the transition table, and emits side effects (system messages,
// reputation updates, events) after each committed status write.
type RequestUseCase struct {
	requestRepo    repository.HelpRequestRepository
	reviewRepo     repository.ReviewRepository
	userRepo       repository.UserRepository
	chatUseCase    *ChatUseCase
	reputationUC   *ReputationUseCase
	eventPublisher notification.Publisher
}

func NewRequestUseCase(
	requestRepo repository.HelpRequestRepository,
	reviewRepo repository.ReviewRepository,
	userRepo repository.UserRepository,
	chatUseCase *ChatUseCase,
	reputationUC *ReputationUseCase,
	eventPublisher notification.Publisher,
) *RequestUseCase {
	return &RequestUseCase{
		requestRepo:    requestRepo,
		reviewRepo:     reviewRepo,
		userRepo:       userRepo,
		chatUseCase:    chatUseCase,
		reputationUC:   reputationUC,
		eventPublisher: eventPublisher,
	}
}

type CreateRequestInput struct {
	Title       string
	Description string
	Category    string
	Urgency     string
}

type CompleteRequestInput struct {
	Rating   int
	Feedback string
	Tags     []string
}

// CreateRequest posts a new feed request in the open state.
func (uc *RequestUseCase) CreateRequest(ctx context.Context, requesterID string, input CreateRequestInput) (*entity.HelpRequest, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.BadRequest("Title is required", nil)
	}
	switch input.Urgency {
	case entity.UrgencyLow, entity.UrgencyMedium, entity.UrgencyHigh:
	default:
		return nil, errors.BadRequest("Urgency must be low, medium or high", nil)
	}

	requester, err := uc.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	request := &entity.HelpRequest{
		Title:         input.Title,
		Description:   input.Description,
		Category:      input.Category,
		Urgency:       input.Urgency,
		RequesterID:   requesterID,
		RequesterName: requester.Username,
		Type:          entity.TypeFeedRequest,
		Status:        entity.StatusOpen,
	}

	if err := uc.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	uc.appendLog(ctx, request.ID, entity.StatusOpen, "Help request created", requesterID)

	return request, nil
}

type CreateOfficialRequestInput struct {
	Title         string
	Description   string
	Category      string
	Urgency       string
	HelperID      string
	DurationHours int
}

// CreateOfficialRequest creates an official chat request aimed at a specific
// helper. Create and propose are fused: the request is born pending, with the
// deadline already running.
func (uc *RequestUseCase) CreateOfficialRequest(ctx context.Context, requesterID string, input CreateOfficialRequestInput) (*entity.HelpRequest, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.BadRequest("Title is required", nil)
	}
	switch input.Urgency {
	case entity.UrgencyLow, entity.UrgencyMedium, entity.UrgencyHigh:
	default:
		return nil, errors.BadRequest("Urgency must be low, medium or high", nil)
	}
	if input.DurationHours <= 0 {
		return nil, errors.BadRequest("Duration must be greater than zero", nil)
	}
	if input.HelperID == "" {
		return nil, errors.BadRequest("Helper is required", nil)
	}
	if input.HelperID == requesterID {
		return nil, errors.BadRequest("You cannot send an official request to yourself", nil)
	}

	requester, err := uc.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	helper, err := uc.userRepo.GetByID(ctx, input.HelperID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(input.DurationHours) * time.Hour)

	request := &entity.HelpRequest{
		Title:             input.Title,
		Description:       input.Description,
		Category:          input.Category,
		Urgency:           input.Urgency,
		RequesterID:       requesterID,
		RequesterName:     requester.Username,
		HelperID:          input.HelperID,
		HelperName:        helper.Username,
		Type:              entity.TypeOfficialChatRequest,
		IsOfficialRequest: true,
		Status:            entity.StatusPending,
		RequestSentAt:     &now,
		ExpiresAt:         &expiresAt,
	}
	if err := uc.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	chat, err := uc.chatUseCase.FindOrCreateChat(ctx, requesterID, input.HelperID, request.ID)
	if err != nil {
		return nil, err
	}

	updated, err := uc.requestRepo.UpdateWithGuard(ctx, request.ID, repository.StatusGuard{Status: entity.StatusPending}, func(r *entity.HelpRequest) error {
		r.ChatID = chat.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := uc.chatUseCase.SendMessage(ctx, requesterID, SendMessageInput{
		ChatID:            chat.ID,
		Text:              fmt.Sprintf("Official help request: %s (respond within %d hours)", updated.Title, input.DurationHours),
		IsOfficialRequest: true,
	}); err != nil {
		logger.LogTransitionError(request.ID, "propose", err)
	}

	uc.appendLog(ctx, request.ID, entity.StatusPending, "Official request sent to "+helper.Username, requesterID)
	uc.publishEvent(ctx, notification.EventHelpProposed, updated, requesterID, nil)

	return updated, nil
}

// OfferHelp records a lightweight pending link from a helper to an open feed
// posting and opens (or reuses) the 1:1 conversation. Duplicate taps settle
// on the same offer and the same chat.
func (uc *RequestUseCase) OfferHelp(ctx context.Context, helperID, requestID, message string) (*entity.Chat, error) {
	request, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if request.RequesterID == helperID {
		return nil, errors.BadRequest("You cannot offer help on your own request", nil)
	}
	if request.Status != entity.StatusOpen {
		return nil, errors.Conflict("Help request is no longer open", nil)
	}

	if existing, err := uc.requestRepo.GetOfferByRequestAndHelper(ctx, requestID, helperID); err == nil && existing != nil {
		return uc.chatUseCase.FindOrCreateChat(ctx, helperID, request.RequesterID, requestID)
	}

	offer := &entity.HelpOffer{
		RequestID: requestID,
		HelperID:  helperID,
		Message:   message,
	}
	if err := uc.requestRepo.CreateOffer(ctx, offer); err != nil {
		return nil, err
	}

	// Display counter only; a lost race here is harmless.
	if _, err := uc.requestRepo.UpdateWithGuard(ctx, requestID, repository.StatusGuard{Status: entity.StatusOpen}, func(r *entity.HelpRequest) error {
		r.HelpOffers++
		return nil
	}); err != nil {
		logger.Debug("Skipped help offer counter bump for request %s: %v", requestID, err)
	}

	chat, err := uc.chatUseCase.FindOrCreateChat(ctx, helperID, request.RequesterID, requestID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(message) != "" {
		if _, err := uc.chatUseCase.SendMessage(ctx, helperID, SendMessageInput{
			ChatID: chat.ID,
			Text:   message,
		}); err != nil {
			logger.LogTransitionError(requestID, "offer", err)
		}
	}

	return chat, nil
}

// Propose fires open -> pending: the requester sends a time-boxed official
// proposal to a chosen helper inside their conversation.
func (uc *RequestUseCase) Propose(ctx context.Context, requesterID, requestID, helperID string, durationHours int) (*entity.HelpRequest, error) {
	if durationHours <= 0 {
		return nil, errors.BadRequest("Duration must be greater than zero", nil)
	}
	if helperID == "" {
		return nil, errors.BadRequest("Helper is required", nil)
	}
	if helperID == requesterID {
		return nil, errors.BadRequest("You cannot propose your own help request to yourself", nil)
	}

	request, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != requesterID {
		return nil, errors.Forbidden("Only the requester can send an official proposal", nil)
	}
	if request.Status != entity.StatusOpen || request.IsOfficialRequest {
		return nil, errors.Conflict("Help request is no longer open for proposals", nil)
	}

	helper, err := uc.userRepo.GetByID(ctx, helperID)
	if err != nil {
		return nil, err
	}

	chat, err := uc.chatUseCase.FindOrCreateChat(ctx, requesterID, helperID, requestID)
	if err != nil {
		return nil, err
	}
	if chat.IsCompleted {
		return nil, errors.Conflict("This conversation's engagement is already settled", nil)
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(durationHours) * time.Hour)

	updated, err := uc.requestRepo.UpdateWithGuard(ctx, requestID, repository.StatusGuard{Status: entity.StatusOpen}, func(r *entity.HelpRequest) error {
		if r.IsOfficialRequest {
			return errors.Conflict("Help request already has an official proposal", nil)
		}
		r.Status = entity.StatusPending
		r.HelperID = helperID
		r.HelperName = helper.Username
		r.IsOfficialRequest = true
		r.RequestSentAt = &now
		r.ExpiresAt = &expiresAt
		r.ChatID = chat.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Side effects follow the committed write; failures are retryable
	// annotations, never reasons to undo the status change.
	if _, err := uc.chatUseCase.SendMessage(ctx, requesterID, SendMessageInput{
		ChatID:            chat.ID,
		Text:              fmt.Sprintf("Official help request: %s (respond within %d hours)", updated.Title, durationHours),
		IsOfficialRequest: true,
	}); err != nil {
		logger.LogTransitionError(requestID, "propose", err)
	}

	uc.appendLog(ctx, requestID, entity.StatusPending, "Official proposal sent to "+helper.Username, requesterID)
	uc.publishEvent(ctx, notification.EventHelpProposed, updated, requesterID, nil)

	return updated, nil
}

// Accept fires pending -> ongoing. Only the proposed helper may accept, and
// only while the proposal is still pending.
func (uc *RequestUseCase) Accept(ctx context.Context, callerID, requestID string) (*entity.HelpRequest, error) {
	request, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != entity.StatusPending {
		return nil, errors.Conflict("Help request is no longer pending", nil)
	}
	if request.HelperID != callerID {
		return nil, errors.Forbidden("Only the proposed helper can accept this request", nil)
	}

	now := time.Now()

	updated, err := uc.requestRepo.UpdateWithGuard(ctx, requestID, repository.StatusGuard{
		Status:      entity.StatusPending,
		HelperID:    callerID,
		CheckHelper: true,
	}, func(r *entity.HelpRequest) error {
		r.Status = entity.StatusOngoing
		r.AcceptedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	if updated.ChatID != "" {
		if _, err := uc.chatUseCase.SendSystemMessage(ctx, updated.ChatID,
			fmt.Sprintf("%s accepted the help request \"%s\".", updated.HelperName, updated.Title)); err != nil {
			logger.LogTransitionError(requestID, "accept", err)
		}
	}

	uc.appendLog(ctx, requestID, entity.StatusOngoing, "Proposal accepted by helper", callerID)
	uc.publishEvent(ctx, notification.EventHelpAccepted, updated, callerID, nil)

	return updated, nil
}

// Reject fires pending -> rejected. A proposal that originated from a feed
// posting compensates by reverting that same posting to open with the helper
// cleared, so other helpers can still respond.
func (uc *RequestUseCase) Reject(ctx context.Context, callerID, requestID, reason string) (*entity.HelpRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.BadRequest("Rejection reason is required", nil)
	}

	request, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != entity.StatusPending {
		return nil, errors.Conflict("Help request is no longer pending", nil)
	}
	if request.HelperID != callerID {
		return nil, errors.Forbidden("Only the proposed helper can reject this request", nil)
	}

	now := time.Now()
	var chatID string

	updated, err := uc.requestRepo.UpdateWithGuard(ctx, requestID, repository.StatusGuard{
		Status:      entity.StatusPending,
		HelperID:    callerID,
		CheckHelper: true,
	}, func(r *entity.HelpRequest) error {
		chatID = r.ChatID

		if r.Type == entity.TypeFeedRequest {
			// Compensating reopen of the original posting; the rejection
			// itself survives in the request log and the system message.
			r.Status = entity.StatusOpen
			r.HelperID = ""
			r.HelperName = ""
			r.IsOfficialRequest = false
			r.RequestSentAt = nil
			r.ExpiresAt = nil
			r.ChatID = ""
			return nil
		}

		r.Status = entity.StatusRejected
		r.RejectedAt = &now
		r.RejectionReason = reason
		// Helper only stays on pending/ongoing/completed requests; who
		// declined survives in the request log and the system message.
		r.HelperID = ""
		r.HelperName = ""
		return nil
	})
	if err != nil {
		return nil, err
	}

	if chatID != "" {
		if err := uc.chatUseCase.CompleteChat(ctx, chatID); err != nil {
			logger.LogTransitionError(requestID, "reject", err)
		}
		if _, err := uc.chatUseCase.SendSystemMessage(ctx, chatID,
			fmt.Sprintf("The help request \"%s\" was declined: %s", request.Title, reason)); err != nil {
			logger.LogTransitionError(requestID, "reject", err)
		}
	}

	uc.appendLog(ctx, requestID, updated.Status, "Proposal rejected: "+reason, callerID)
	uc.publishEvent(ctx, notification.EventHelpRejected, updated, callerID, map[string]interface{}{
		"reason": reason,
	})

	return updated, nil
}

// Complete fires ongoing -> completed: stores the rating, appends exactly one
// review, settles the conversation and recomputes the helper's reputation.
func (uc *RequestUseCase) Complete(ctx context.Context, callerID, requestID string, input CompleteRequestInput) (*entity.HelpRequest, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, errors.BadRequest("Rating must be between 1 and 5", nil)
	}

	request, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != callerID {
		return nil, errors.Forbidden("Only the requester can complete this request", nil)
	}
	if request.Status != entity.StatusOngoing {
		return nil, errors.Conflict("Help request is not ongoing", nil)
	}

	now := time.Now()

	updated, err := uc.requestRepo.UpdateWithGuard(ctx, requestID, repository.StatusGuard{Status: entity.StatusOngoing}, func(r *entity.HelpRequest) error {
		r.Status = entity.StatusCompleted
		r.CompletedAt = &now
		r.Rating = input.Rating
		r.Feedback = input.Feedback
		r.RatingTags = input.Tags
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The guard above makes this the only completion for the request, so the
	// ledger sees at most one review per requestID. The request is terminal
	// now, so a failed ledger write cannot be replayed through Complete; it
	// goes out as a review.stale event carrying the full review, and the
	// deterministic review doc ID makes the replay land on the same document.
	review := &entity.Review{
		RequestID:   requestID,
		ReviewerUID: callerID,
		RevieweeUID: updated.HelperID,
		Rating:      input.Rating,
		Comment:     input.Feedback,
		Tags:        input.Tags,
	}
	if err := uc.reviewRepo.Create(ctx, review); err != nil {
		logger.Warn("Review write for request %s failed, queueing replay: %v", requestID, err)
		uc.publishEvent(ctx, notification.EventReviewStale, updated, callerID, map[string]interface{}{
			"reviewer_uid": callerID,
			"reviewee_uid": updated.HelperID,
			"rating":       input.Rating,
			"feedback":     input.Feedback,
			"tags":         input.Tags,
		})
	}

	if updated.ChatID != "" {
		if err := uc.chatUseCase.CompleteChat(ctx, updated.ChatID); err != nil {
			logger.LogTransitionError(requestID, "complete", err)
		}
		if _, err := uc.chatUseCase.SendSystemMessage(ctx, updated.ChatID,
			fmt.Sprintf("The help request \"%s\" was completed. Thanks for helping out!", updated.Title)); err != nil {
			logger.LogTransitionError(requestID, "complete", err)
		}
	}

	// Bounded recompute: a stuck scan must not hold the completion hostage.
	recomputeCtx, cancel := context.WithTimeout(ctx, reputationRecomputeTimeout)
	defer cancel()
	if _, err := uc.reputationUC.Recompute(recomputeCtx, updated.HelperID); err != nil {
		logger.Warn("Reputation recompute for %s left stale after completing %s: %v", updated.HelperID, requestID, err)
		uc.publishEvent(ctx, notification.EventReputationStale, updated, callerID, map[string]interface{}{
			"helper_id": updated.HelperID,
		})
	}

	uc.appendLog(ctx, requestID, entity.StatusCompleted, fmt.Sprintf("Completed with rating %d", input.Rating), callerID)
	uc.publishEvent(ctx, notification.EventHelpCompleted, updated, callerID, map[string]interface{}{
		"rating": input.Rating,
	})

	return updated, nil
}

// Expire fires {pending,ongoing} -> cancelled. Fired only by the sweeper;
// a lost race against a user action surfaces as CONFLICT, which the sweeper
// treats as "already settled, move on".
func (uc *RequestUseCase) Expire(ctx context.Context, request *entity.HelpRequest) (*entity.HelpRequest, error) {
	if request.Status != entity.StatusPending && request.Status != entity.StatusOngoing {
		return nil, errors.Conflict("Help request is not expirable", nil)
	}

	now := time.Now()
	var chatID string

	updated, err := uc.requestRepo.UpdateWithGuard(ctx, request.ID, repository.StatusGuard{Status: request.Status}, func(r *entity.HelpRequest) error {
		if r.ExpiresAt == nil || !now.After(*r.ExpiresAt) {
			return errors.Conflict("Help request deadline has not passed", nil)
		}
		chatID = r.ChatID
		r.Status = entity.StatusCancelled
		r.CancelledAt = &now
		r.HelperID = ""
		r.HelperName = ""
		return nil
	})
	if err != nil {
		return nil, err
	}

	if chatID != "" {
		if err := uc.chatUseCase.CompleteChat(ctx, chatID); err != nil {
			logger.LogTransitionError(request.ID, "expire", err)
		}
		if _, err := uc.chatUseCase.SendSystemMessage(ctx, chatID,
			fmt.Sprintf("The help request \"%s\" expired without being completed.", updated.Title)); err != nil {
			logger.LogTransitionError(request.ID, "expire", err)
		}
	}

	uc.appendLog(ctx, request.ID, entity.StatusCancelled, "Expired past its deadline", entity.SystemSenderID)
	uc.publishEvent(ctx, notification.EventHelpExpired, updated, entity.SystemSenderID, nil)

	return updated, nil
}

func (uc *RequestUseCase) GetRequest(ctx context.Context, requestID string) (*entity.HelpRequest, error) {
	return uc.requestRepo.GetByID(ctx, requestID)
}

func (uc *RequestUseCase) ListOpenRequests(ctx context.Context, limit, offset int) ([]*entity.HelpRequest, int64, error) {
	return uc.requestRepo.ListOpen(ctx, limit, offset)
}

func (uc *RequestUseCase) GetRequestLogs(ctx context.Context, callerID, requestID string) ([]*entity.RequestLog, error) {
	request, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != callerID && request.HelperID != callerID {
		return nil, errors.Forbidden("You don't have permission to view this request's history", nil)
	}

	return uc.requestRepo.ListLogsByRequestID(ctx, requestID)
}

func (uc *RequestUseCase) appendLog(ctx context.Context, requestID string, status entity.RequestStatus, notes, createdBy string) {
	log := &entity.RequestLog{
		RequestID: requestID,
		Status:    status,
		Notes:     notes,
		CreatedBy: createdBy,
	}
	if err := uc.requestRepo.CreateLog(ctx, log); err != nil {
		logger.LogTransitionError(requestID, "log", err)
	}
}

func (uc *RequestUseCase) publishEvent(ctx context.Context, eventType string, request *entity.HelpRequest, actorID string, payload map[string]interface{}) {
	if uc.eventPublisher == nil {
		return
	}

	event := notification.Event{
		Type:      eventType,
		RequestID: request.ID,
		ActorID:   actorID,
		Payload:   payload,
	}
	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish %s event for request %s: %v", eventType, request.ID, err)
	}
}
