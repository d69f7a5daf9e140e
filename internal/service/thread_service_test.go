package service

import (
	"testing"

	"lumen-chat/backend/internal/models"
	apperrors "lumen-chat/backend/pkg/errors"
	"lumen-chat/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCanceller struct {
	cancelled []int64
}

func (c *recordingCanceller) CancelThread(threadID int64) {
	c.cancelled = append(c.cancelled, threadID)
}

func newThreadService(t *testing.T) (*ThreadService, *fixture, *recordingCanceller) {
	t.Helper()
	f := newFixture(t, &fakeBackend{})
	canceller := &recordingCanceller{}
	svc := NewThreadService(f.threads, f.messages, canceller, logger.New(logger.Config{Level: "error"}))
	return svc, f, canceller
}

func TestThreadServiceCreateAndList(t *testing.T) {
	svc, _, _ := newThreadService(t)

	prompt := "be helpful"
	created, err := svc.Create("notes", &prompt)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	threads, err := svc.List()
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "notes", threads[0].Title)
}

func TestThreadServiceDeleteCancelsInFlightGeneration(t *testing.T) {
	svc, f, canceller := newThreadService(t)

	threadID := f.newThread(t, nil)
	_, err := f.messages.Add(threadID, models.RoleUser, "u1", nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(threadID))

	assert.Equal(t, []int64{threadID}, canceller.cancelled)
	assert.Empty(t, f.contents(t, threadID))
}

func TestThreadServiceMessagesUnknownThread(t *testing.T) {
	svc, _, _ := newThreadService(t)

	_, err := svc.Messages(12345)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeThreadNotFound))
}

func TestThreadServiceMessagesOrdered(t *testing.T) {
	svc, f, _ := newThreadService(t)

	threadID := f.newThread(t, nil)
	_, err := f.messages.Add(threadID, models.RoleUser, "first", nil, nil, nil)
	require.NoError(t, err)
	_, err = f.messages.Add(threadID, models.RoleAssistant, "second", nil, nil, nil)
	require.NoError(t, err)

	history, err := svc.Messages(threadID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[1].Content)
}
