package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/config"
	"bookshelf/internal/db"
	apperrors "bookshelf/internal/errors"
	"bookshelf/internal/model"
	"bookshelf/internal/repository"
	"bookshelf/internal/service"
)

func TestLoadBooks(t *testing.T) {
	const payload = `[{"title":"Dune","author":"Frank Herbert","isbn":"0441013597"}]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/books.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, payload)
	}))
	defer srv.Close()

	file := filepath.Join(t.TempDir(), "books.json")
	require.NoError(t, os.WriteFile(file, []byte(payload), 0o600))

	t.Run("built-in list", func(t *testing.T) {
		books, err := loadBooks("")
		require.NoError(t, err)
		assert.NotEmpty(t, books)
		for _, b := range books {
			assert.NotEmpty(t, b.Title)
			assert.NotNil(t, b.ISBN)
		}
	})

	t.Run("file", func(t *testing.T) {
		books, err := loadBooks(file)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "Dune", books[0].Title)
	})

	t.Run("url", func(t *testing.T) {
		books, err := loadBooks(srv.URL + "/books.json")
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "0441013597", *books[0].ISBN)
	})

	t.Run("url not found", func(t *testing.T) {
		_, err := loadBooks(srv.URL + "/missing.json")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadBooks(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})
}

func TestSeedIsRepeatable(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gormDB, err := db.Open("sqlite", ":memory:", false, log)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB, false, log))

	users := service.NewUserService(repository.NewUserRepository(gormDB), log)
	catalog := service.NewBookService(repository.NewBookRepository(gormDB), nil, log)
	books, err := loadBooks("")
	require.NoError(t, err)

	ctx := context.Background()
	in := service.RegisterInput{Username: "demo", Email: "demo@example.com", Password: "demo123"}

	owner, err := ensureUser(ctx, users, in)
	require.NoError(t, err)
	created, skipped, err := seedBooks(ctx, catalog, owner.ID, books)
	require.NoError(t, err)
	assert.Equal(t, len(books), created)
	assert.Zero(t, skipped)

	again, err := ensureUser(ctx, users, in)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, again.ID)
	created, skipped, err = seedBooks(ctx, catalog, owner.ID, books)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, len(books), skipped)

	// Entries without an ISBN are matched on title and author.
	extra := []SeedBook{{Title: "Untitled Notes", Author: "Anon"}}
	created, skipped, err = seedBooks(ctx, catalog, owner.ID, extra)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Zero(t, skipped)
	created, skipped, err = seedBooks(ctx, catalog, owner.ID, extra)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 1, skipped)

	in.Password = "other-password"
	_, err = ensureUser(ctx, users, in)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestRun_SeedsFileDatabaseTwice(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{DBDriver: "sqlite", DBDSN: filepath.Join(t.TempDir(), "seed.db")}
	opts := seedOptions{user: service.RegisterInput{Username: "demo", Email: "demo@example.com", Password: "demo123"}}

	require.NoError(t, run(context.Background(), cfg, opts, log))
	require.NoError(t, run(context.Background(), cfg, opts, log))

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN, false, log)
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	books, err := loadBooks("")
	require.NoError(t, err)
	var count int64
	require.NoError(t, gormDB.Model(&model.Book{}).Count(&count).Error)
	assert.Equal(t, int64(len(books)), count)
}
