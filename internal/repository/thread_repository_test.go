package repository

import (
	"testing"

	"lumen-chat/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestThreadCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormThreadRepository(db)

	prompt := "You are terse."
	created, err := repo.Create("Morning chat", &prompt)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.NotEmpty(t, created.CreatedAt)
	assert.False(t, created.IsArchived)

	got, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Morning chat", got.Title)
	require.NotNil(t, got.SystemPrompt)
	assert.Equal(t, prompt, *got.SystemPrompt)
}

func TestThreadListExcludesArchived(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormThreadRepository(db)

	first := seedThread(t, db, "first")
	second := seedThread(t, db, "second")
	third := seedThread(t, db, "third")

	require.NoError(t, repo.Archive(second.ID))

	threads, err := repo.List()
	require.NoError(t, err)
	require.Len(t, threads, 2)
	// newest first
	assert.Equal(t, third.ID, threads[0].ID)
	assert.Equal(t, first.ID, threads[1].ID)
}

func TestThreadArchiveKeepsMessages(t *testing.T) {
	db := setupTestDB(t)
	threads := NewGormThreadRepository(db)
	messages := NewGormMessageRepository(db)

	thread := seedThread(t, db, "keep me")
	_, err := messages.Add(thread.ID, models.RoleUser, "hello", nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, threads.Archive(thread.ID))

	history, err := messages.ListByThread(thread.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestThreadRename(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormThreadRepository(db)

	thread := seedThread(t, db, "old title")
	require.NoError(t, repo.Rename(thread.ID, "new title"))

	got, err := repo.GetByID(thread.ID)
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)
}

func TestThreadDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	threads := NewGormThreadRepository(db)
	messages := NewGormMessageRepository(db)

	doomed := seedThread(t, db, "doomed")
	survivor := seedThread(t, db, "survivor")

	for i := 0; i < 3; i++ {
		_, err := messages.Add(doomed.ID, models.RoleUser, "x", nil, nil, nil)
		require.NoError(t, err)
	}
	kept, err := messages.Add(survivor.ID, models.RoleUser, "still here", nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, threads.Delete(doomed.ID))

	_, err = threads.GetByID(doomed.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	orphans, err := messages.ListByThread(doomed.ID)
	require.NoError(t, err)
	assert.Empty(t, orphans)

	remaining, err := messages.ListByThread(survivor.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept.ID, remaining[0].ID)
}

func TestThreadGetSystemPrompt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormThreadRepository(db)

	prompt := "stay on topic"
	withPrompt, err := repo.Create("a", &prompt)
	require.NoError(t, err)
	withoutPrompt, err := repo.Create("b", nil)
	require.NoError(t, err)

	got, found, err := repo.GetSystemPrompt(withPrompt.ID)
	require.NoError(t, err)
	assert.True(t, found)
	require.NotNil(t, got)
	assert.Equal(t, prompt, *got)

	got, found, err = repo.GetSystemPrompt(withoutPrompt.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, got)

	got, found, err = repo.GetSystemPrompt(9999)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestThreadExists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormThreadRepository(db)

	thread := seedThread(t, db, "here")

	exists, err := repo.Exists(thread.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(4242)
	require.NoError(t, err)
	assert.False(t, exists)
}
