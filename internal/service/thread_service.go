package service

import (
	"lumen-chat/backend/internal/models"
	"lumen-chat/backend/internal/repository"
	apperrors "lumen-chat/backend/pkg/errors"
	"lumen-chat/backend/pkg/logger"
)

// Canceller aborts an in-flight generation on a thread
type Canceller interface {
	CancelThread(threadID int64)
}

// ThreadService covers thread lifecycle and history reads
type ThreadService struct {
	threads   repository.ThreadRepository
	messages  repository.MessageRepository
	canceller Canceller
	logger    *logger.Logger
}

func NewThreadService(
	threads repository.ThreadRepository,
	messages repository.MessageRepository,
	canceller Canceller,
	log *logger.Logger,
) *ThreadService {
	return &ThreadService{
		threads:   threads,
		messages:  messages,
		canceller: canceller,
		logger:    log,
	}
}

func (s *ThreadService) Create(title string, systemPrompt *string) (*models.Thread, error) {
	thread, err := s.threads.Create(title, systemPrompt)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.logger.Info("thread created", "thread_id", thread.ID, "title", title)
	return thread, nil
}

// List returns active threads, most recently created first
func (s *ThreadService) List() ([]models.Thread, error) {
	threads, err := s.threads.List()
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return threads, nil
}

func (s *ThreadService) Rename(threadID int64, title string) error {
	return s.mutate(func() error { return s.threads.Rename(threadID, title) })
}

func (s *ThreadService) Archive(threadID int64) error {
	return s.mutate(func() error { return s.threads.Archive(threadID) })
}

// Delete removes the thread and its full history. Any generation still
// streaming on the thread is cancelled first so it cannot persist into a
// deleted thread.
func (s *ThreadService) Delete(threadID int64) error {
	if s.canceller != nil {
		s.canceller.CancelThread(threadID)
	}
	err := s.mutate(func() error { return s.threads.Delete(threadID) })
	if err == nil {
		s.logger.Info("thread deleted", "thread_id", threadID)
	}
	return err
}

// Messages returns the thread's history in conversation order
func (s *ThreadService) Messages(threadID int64) ([]models.Message, error) {
	exists, err := s.threads.Exists(threadID)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	if !exists {
		return nil, apperrors.NewThreadNotFoundError(threadID)
	}
	messages, err := s.messages.ListByThread(threadID)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return messages, nil
}

// mutate wraps a thread mutation; missing ids are no-ops at the store level
// so only real storage failures surface.
func (s *ThreadService) mutate(op func() error) error {
	if err := op(); err != nil {
		return apperrors.NewStorageError(err)
	}
	return nil
}
