package repository

import (
	"errors"

	"lumen-chat/backend/internal/models"

	"gorm.io/gorm"
)

// ThreadRepository is the storage contract for threads
type ThreadRepository interface {
	Create(title string, systemPrompt *string) (*models.Thread, error)
	List() ([]models.Thread, error)
	GetByID(id int64) (*models.Thread, error)
	// GetSystemPrompt returns a tagged result so that "thread absent" and
	// "prompt unset" stay distinguishable.
	GetSystemPrompt(id int64) (prompt *string, found bool, err error)
	Archive(id int64) error
	Rename(id int64, title string) error
	Delete(id int64) error
	Exists(id int64) (bool, error)
}

type GormThreadRepository struct {
	db *gorm.DB
}

func NewGormThreadRepository(db *gorm.DB) *GormThreadRepository {
	return &GormThreadRepository{db: db}
}

func (r *GormThreadRepository) Create(title string, systemPrompt *string) (*models.Thread, error) {
	thread := &models.Thread{
		Title:        title,
		CreatedAt:    models.NowTimestamp(),
		SystemPrompt: systemPrompt,
		IsArchived:   false,
	}
	if err := r.db.Create(thread).Error; err != nil {
		return nil, err
	}
	return thread, nil
}

func (r *GormThreadRepository) List() ([]models.Thread, error) {
	var threads []models.Thread
	err := r.db.Where("is_archived = ?", false).
		Order("created_at DESC, id DESC").
		Find(&threads).Error
	return threads, err
}

func (r *GormThreadRepository) GetByID(id int64) (*models.Thread, error) {
	var thread models.Thread
	if err := r.db.First(&thread, id).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *GormThreadRepository) GetSystemPrompt(id int64) (*string, bool, error) {
	var thread models.Thread
	err := r.db.Select("system_prompt").First(&thread, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return thread.SystemPrompt, true, nil
}

// Archive soft-deletes a thread; archived threads drop out of List but their
// messages stay addressable. No-op when the id does not exist.
func (r *GormThreadRepository) Archive(id int64) error {
	return r.db.Model(&models.Thread{}).
		Where("id = ?", id).
		Update("is_archived", true).Error
}

func (r *GormThreadRepository) Rename(id int64, title string) error {
	return r.db.Model(&models.Thread{}).
		Where("id = ?", id).
		Update("title", title).Error
}

// Delete removes the thread and all its messages atomically
func (r *GormThreadRepository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Message{}, "thread_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Thread{}, "id = ?", id).Error
	})
}

func (r *GormThreadRepository) Exists(id int64) (bool, error) {
	var count int64
	err := r.db.Model(&models.Thread{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
