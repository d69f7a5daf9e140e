package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lumen-chat/backend/internal/extract"
	"lumen-chat/backend/internal/models"
	"lumen-chat/backend/internal/ollama"
	"lumen-chat/backend/internal/repository"
	apperrors "lumen-chat/backend/pkg/errors"
	"lumen-chat/backend/pkg/logger"
	"lumen-chat/backend/pkg/observability"

	"gorm.io/gorm"
)

// Backend abstracts the inference backend for the orchestrator
type Backend interface {
	Chat(ctx context.Context, model string, messages []ollama.ChatMessage, onFragment func(string)) (string, *ollama.Metrics, error)
	ListModels(ctx context.Context) ([]string, error)
}

// EventSink receives generation events destined for the application shell
type EventSink interface {
	Fragment(threadID int64, content string)
	Done(threadID int64)
	StreamError(threadID int64, message string)
}

// Extractor resolves document bytes into text; a pure collaborator
type Extractor func(data []byte) (string, error)

// ChatService orchestrates generations: it assembles prompt context from the
// store, drives the streaming backend, and commits the assembled answer.
// A per-thread guard held for the whole cycle keeps two generations on the
// same thread from interleaving their reads and writes.
type ChatService struct {
	threads  repository.ThreadRepository
	messages repository.MessageRepository
	backend  Backend
	events   EventSink
	extract  Extractor
	logger   *logger.Logger
	metrics  *observability.Metrics

	// maxAttachmentBytes bounds a single decoded attachment; 0 means no limit
	maxAttachmentBytes int64

	mu       sync.Mutex
	inflight map[int64]context.CancelFunc
}

func NewChatService(
	threads repository.ThreadRepository,
	messages repository.MessageRepository,
	backend Backend,
	events EventSink,
	extractor Extractor,
	log *logger.Logger,
	metrics *observability.Metrics,
	maxAttachmentBytes int64,
) *ChatService {
	if extractor == nil {
		extractor = extract.Text
	}
	return &ChatService{
		threads:            threads,
		messages:           messages,
		backend:            backend,
		events:             events,
		extract:            extractor,
		logger:             log,
		metrics:            metrics,
		maxAttachmentBytes: maxAttachmentBytes,
		inflight:           make(map[int64]context.CancelFunc),
	}
}

// acquire claims the thread's generation guard and registers a cancelable
// context for the in-flight generation.
func (s *ChatService) acquire(ctx context.Context, threadID int64) (context.Context, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[threadID]; busy {
		return nil, nil, apperrors.NewGenerationInProgressError(threadID)
	}

	genCtx, cancel := context.WithCancel(ctx)
	s.inflight[threadID] = cancel

	release := func() {
		s.mu.Lock()
		delete(s.inflight, threadID)
		s.mu.Unlock()
		cancel()
	}
	return genCtx, release, nil
}

// CancelThread aborts an in-flight generation for the thread, if any.
// Aborted streams persist nothing.
func (s *ChatService) CancelThread(threadID int64) {
	s.mu.Lock()
	cancel := s.inflight[threadID]
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Generate runs one full generation cycle for the thread and returns the
// persisted assistant message.
func (s *ChatService) Generate(ctx context.Context, threadID int64, model string) (*models.Message, error) {
	genCtx, release, err := s.acquire(ctx, threadID)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.generate(genCtx, threadID, model)
}

// generate is the guarded three-phase cycle: lock-scoped context read,
// unlocked streaming exchange, lock-scoped persist. Callers must hold the
// thread's generation guard.
func (s *ChatService) generate(ctx context.Context, threadID int64, model string) (*models.Message, error) {
	start := time.Now()
	log := s.logger.WithThread(threadID)

	// Phase 1: gather context
	prompt, _, err := s.threads.GetSystemPrompt(threadID)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	history, err := s.messages.ListByThread(threadID)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	chatMessages := make([]ollama.ChatMessage, 0, len(history)+1)
	if prompt != nil && *prompt != "" {
		chatMessages = append(chatMessages, ollama.ChatMessage{
			Role:    models.RoleSystem,
			Content: *prompt,
		})
	}
	for _, m := range history {
		chatMessages = append(chatMessages, ollama.ChatMessage{
			Role:    m.Role,
			Content: m.Content,
			Images:  m.Images,
		})
	}

	// Phase 2: streaming exchange, no store access
	transcript, metrics, err := s.backend.Chat(ctx, model, chatMessages, func(fragment string) {
		if s.metrics != nil {
			s.metrics.FragmentsEmitted.Inc()
		}
		s.events.Fragment(threadID, fragment)
	})
	if err != nil {
		s.observeGeneration("error", start)
		s.events.StreamError(threadID, apperrors.FromError(err).Message)
		log.LogError(err, "generation failed", "model", model, "partial_len", len(transcript))
		return nil, err
	}

	// Phase 3: persist
	message, err := s.messages.Add(threadID, models.RoleAssistant, transcript, nil, &model, nil)
	if err != nil {
		s.observeGeneration("error", start)
		return nil, s.storageErr(threadID, err)
	}
	if metrics != nil {
		err = s.messages.SetMetrics(message.ID, models.MessageMetrics{
			TotalDuration:   metrics.TotalDuration,
			LoadDuration:    metrics.LoadDuration,
			PromptEvalCount: metrics.PromptEvalCount,
			EvalCount:       metrics.EvalCount,
			EvalDuration:    metrics.EvalDuration,
			TokensPerSecond: metrics.TokensPerSecond,
		})
		if err != nil {
			s.observeGeneration("error", start)
			return nil, apperrors.NewStorageError(err)
		}
	}

	s.events.Done(threadID)
	s.observeGeneration("ok", start)
	log.Info("generation completed",
		"model", model,
		"message_id", message.ID,
		"transcript_len", len(transcript),
	)
	return message, nil
}

// Send persists a user message, resolving document attachments into
// delimited text blocks, and generates the assistant reply.
func (s *ChatService) Send(ctx context.Context, threadID int64, content string, images []string, pdfs []string, model string, replyTo *int64) (*models.Message, error) {
	genCtx, release, err := s.acquire(ctx, threadID)
	if err != nil {
		return nil, err
	}
	defer release()

	content = s.appendAttachments(content, pdfs)

	if _, err := s.messages.Add(threadID, models.RoleUser, content, images, &model, replyTo); err != nil {
		return nil, s.storageErr(threadID, err)
	}

	return s.generate(genCtx, threadID, model)
}

// appendAttachments resolves each document and appends it as a delimited
// block. An attachment that cannot be decoded or extracted degrades to a
// visible error marker instead of failing the send.
func (s *ChatService) appendAttachments(content string, pdfs []string) string {
	for i, payload := range pdfs {
		data, err := extract.DecodeDataURI(payload)
		if err == nil && s.maxAttachmentBytes > 0 && int64(len(data)) > s.maxAttachmentBytes {
			err = fmt.Errorf("attachment exceeds %d bytes", s.maxAttachmentBytes)
		}
		var text string
		if err == nil {
			text, err = s.extract(data)
		}
		if err != nil {
			s.logger.LogError(err, "failed to extract attachment text", "attachment", i+1)
			content += fmt.Sprintf("\n\n[System Error: Failed to extract text from PDF Attachment %d]", i+1)
			continue
		}
		content += fmt.Sprintf("\n\n--- PDF Attachment %d Content ---\n%s\n-----------------------------------\n", i+1, text)
	}
	return content
}

// Edit overwrites the message content, truncates the conversation after it,
// and re-derives the assistant reply.
func (s *ChatService) Edit(ctx context.Context, threadID, messageID int64, newContent, model string) (*models.Message, error) {
	genCtx, release, err := s.acquire(ctx, threadID)
	if err != nil {
		return nil, err
	}
	defer release()

	target, err := s.messages.GetByID(messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewMessageNotFoundError(messageID)
	}
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	if target.ThreadID != threadID {
		return nil, apperrors.NewMessageNotFoundError(messageID)
	}

	if err := s.messages.UpdateContent(messageID, newContent); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	if err := s.messages.DeleteAfter(threadID, messageID); err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	return s.generate(genCtx, threadID, model)
}

// Regenerate replaces the trailing assistant turn: the most recent message
// is deleted only when it is an assistant message, then a new one is
// generated from the remaining context.
func (s *ChatService) Regenerate(ctx context.Context, threadID int64, model string) (*models.Message, error) {
	genCtx, release, err := s.acquire(ctx, threadID)
	if err != nil {
		return nil, err
	}
	defer release()

	latest, err := s.messages.Latest(threadID)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	if latest != nil && latest.Role == models.RoleAssistant {
		if err := s.messages.DeleteLast(threadID); err != nil {
			return nil, apperrors.NewStorageError(err)
		}
	}

	return s.generate(genCtx, threadID, model)
}

// RegenerateFrom discards the target message and everything after it, then
// generates from the remaining prefix.
func (s *ChatService) RegenerateFrom(ctx context.Context, threadID, messageID int64, model string) (*models.Message, error) {
	genCtx, release, err := s.acquire(ctx, threadID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.messages.DeleteFrom(threadID, messageID); err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	return s.generate(genCtx, threadID, model)
}

// DeleteMessagesFrom removes the message and the rest of the thread suffix
// without generating a replacement.
func (s *ChatService) DeleteMessagesFrom(threadID, messageID int64) error {
	if err := s.messages.DeleteFrom(threadID, messageID); err != nil {
		return apperrors.NewStorageError(err)
	}
	return nil
}

// ListModels returns the backend's available model names
func (s *ChatService) ListModels(ctx context.Context) ([]string, error) {
	return s.backend.ListModels(ctx)
}

func (s *ChatService) storageErr(threadID int64, err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return apperrors.NewThreadNotFoundError(threadID)
	}
	return apperrors.NewStorageError(err)
}

func (s *ChatService) observeGeneration(status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.GenerationsTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		s.metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	}
}
