package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Mkw68Mkw/fast-chat/internal/domain"
	"github.com/Mkw68Mkw/fast-chat/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.New(&database.Config{
		Driver:   "sqlite",
		FilePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)

	require.NoError(t, database.AutoMigrate(db,
		&domain.UserModel{},
		&domain.RoomModel{},
		&domain.MessageModel{},
	))
	return db
}

func TestUserRepoCreateAndGet(t *testing.T) {
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &domain.User{Username: "anna", PasswordHash: "x"}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "anna", byID.Username)

	byName, err := repo.GetByUsername(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
}

func TestUserRepoDuplicateUsername(t *testing.T) {
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{Username: "anna", PasswordHash: "x"}))

	err := repo.Create(ctx, &domain.User{Username: "anna", PasswordHash: "y"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserRepoNotFound(t *testing.T) {
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRoomRepoCreateListCount(t *testing.T) {
	repo := NewGormRoomRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Room{Name: "Allgemein"}))
	require.NoError(t, repo.Create(ctx, &domain.Room{Name: "Technik"}))

	err := repo.Create(ctx, &domain.Room{Name: "Technik"})
	assert.ErrorIs(t, err, ErrRoomExists)

	rooms, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestMessageRepoAppendAndList(t *testing.T) {
	repo := NewGormMessageRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, &domain.ChatMessage{
			RoomID:    "room-1",
			Username:  "anna",
			Content:   fmt.Sprintf("msg-%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Append(ctx, &domain.ChatMessage{
		RoomID:    "room-2",
		Username:  "max",
		Content:   "anderswo",
		Timestamp: base,
	}))

	messages, err := repo.ListByRoom(ctx, "room-1", 50)
	require.NoError(t, err)
	require.Len(t, messages, 5)
	assert.Equal(t, "msg-0", messages[0].Content)
	assert.Equal(t, "msg-4", messages[4].Content)
}

func TestMessageRepoLimitTrimsOldest(t *testing.T) {
	repo := NewGormMessageRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, &domain.ChatMessage{
			RoomID:    "room-1",
			Username:  "anna",
			Content:   fmt.Sprintf("msg-%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	messages, err := repo.ListByRoom(ctx, "room-1", 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	// The two newest, still ascending.
	assert.Equal(t, "msg-3", messages[0].Content)
	assert.Equal(t, "msg-4", messages[1].Content)
}

func TestMessageRepoEmptyRoom(t *testing.T) {
	repo := NewGormMessageRepository(newTestDB(t))

	messages, err := repo.ListByRoom(context.Background(), "empty", 50)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
