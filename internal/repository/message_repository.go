package repository

import (
	"errors"

	"lumen-chat/backend/internal/models"

	"gorm.io/gorm"
)

// MessageRepository is the storage contract for messages
type MessageRepository interface {
	Add(threadID int64, role, content string, images []string, model *string, replyTo *int64) (*models.Message, error)
	ListByThread(threadID int64) ([]models.Message, error)
	GetByID(id int64) (*models.Message, error)
	// Latest returns the most recent message of a thread, nil when empty
	Latest(threadID int64) (*models.Message, error)
	UpdateContent(messageID int64, content string) error
	SetMetrics(messageID int64, metrics models.MessageMetrics) error
	DeleteFrom(threadID, messageID int64) error
	DeleteAfter(threadID, messageID int64) error
	DeleteLast(threadID int64) error
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Add appends a message with the current timestamp. A missing owning thread
// is a foreign-key failure rather than a silent insert.
func (r *GormMessageRepository) Add(threadID int64, role, content string, images []string, model *string, replyTo *int64) (*models.Message, error) {
	var count int64
	if err := r.db.Model(&models.Thread{}).Where("id = ?", threadID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, gorm.ErrForeignKeyViolated
	}

	message := &models.Message{
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		Images:    images,
		Model:     model,
		CreatedAt: models.NowTimestamp(),
		ReplyToID: replyTo,
	}
	if err := r.db.Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

func (r *GormMessageRepository) ListByThread(threadID int64) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("thread_id = ?", threadID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *GormMessageRepository) GetByID(id int64) (*models.Message, error) {
	var message models.Message
	if err := r.db.First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *GormMessageRepository) Latest(threadID int64) (*models.Message, error) {
	var message models.Message
	err := r.db.Where("thread_id = ?", threadID).
		Order("created_at DESC, id DESC").
		First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// UpdateContent overwrites the content field only; timestamp, role, and the
// metrics bundle are untouched.
func (r *GormMessageRepository) UpdateContent(messageID int64, content string) error {
	return r.db.Model(&models.Message{}).
		Where("id = ?", messageID).
		Update("content", content).Error
}

// SetMetrics backfills the assistant metrics bundle in one update
func (r *GormMessageRepository) SetMetrics(messageID int64, metrics models.MessageMetrics) error {
	return r.db.Model(&models.Message{}).
		Where("id = ?", messageID).
		Updates(map[string]interface{}{
			"total_duration":    metrics.TotalDuration,
			"load_duration":     metrics.LoadDuration,
			"prompt_eval_count": metrics.PromptEvalCount,
			"eval_count":        metrics.EvalCount,
			"eval_duration":     metrics.EvalDuration,
			"tokens_per_second": metrics.TokensPerSecond,
		}).Error
}

// DeleteFrom removes messageID and everything after it in the thread.
// Monotonic ids stand in for "at or after this point in the conversation".
func (r *GormMessageRepository) DeleteFrom(threadID, messageID int64) error {
	return r.db.Delete(&models.Message{}, "thread_id = ? AND id >= ?", threadID, messageID).Error
}

// DeleteAfter removes everything strictly after messageID, retaining it
func (r *GormMessageRepository) DeleteAfter(threadID, messageID int64) error {
	return r.db.Delete(&models.Message{}, "thread_id = ? AND id > ?", threadID, messageID).Error
}

// DeleteLast removes the single most recent message; no-op on empty threads
func (r *GormMessageRepository) DeleteLast(threadID int64) error {
	return r.db.Delete(&models.Message{},
		"id = (SELECT id FROM messages WHERE thread_id = ? ORDER BY created_at DESC, id DESC LIMIT 1)",
		threadID).Error
}
