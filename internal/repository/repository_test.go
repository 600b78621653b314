package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	database "bookshelf/internal/db"
	"bookshelf/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gormDB, err := database.Open("sqlite", ":memory:", false, log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(gormDB, false, log))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}

func seedUser(t *testing.T, repo UserRepository, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@x.com",
		PasswordHash: "hash",
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
