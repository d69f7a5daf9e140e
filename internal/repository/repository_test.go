package repository

import (
	"testing"

	"lumen-chat/backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Thread{}, &models.Message{}))
	return db
}

func seedThread(t *testing.T, db *gorm.DB, title string) *models.Thread {
	t.Helper()
	thread, err := NewGormThreadRepository(db).Create(title, nil)
	require.NoError(t, err)
	return thread
}
