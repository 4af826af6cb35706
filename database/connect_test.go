package database

import (
	"testing"

	"github.com/aljonleynes11/media-coding-exam-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open("sqlite://file:connect_test?mode=memory&cache=shared", logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Migrate(db))

	m := db.Migrator()
	assert.True(t, m.HasTable(&models.User{}))
	assert.True(t, m.HasTable(&models.Image{}))
	assert.True(t, m.HasTable("image_metadata"))
	assert.True(t, m.HasColumn(&models.ImageMetadata{}, "ai_processing_status"))
}

func TestDialectorSelection(t *testing.T) {
	assert.Equal(t, "sqlite", dialector("sqlite://file::memory:").Name())
	assert.Equal(t, "postgres", dialector("postgres://u:p@localhost/db").Name())
}

func TestCloseNil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
