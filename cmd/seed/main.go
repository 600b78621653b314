package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"bookshelf/internal/config"
	"bookshelf/internal/db"
	apperrors "bookshelf/internal/errors"
	"bookshelf/internal/logger"
	"bookshelf/internal/model"
	"bookshelf/internal/repository"
	"bookshelf/internal/service"
)

//go:embed books.json
var defaultBooks []byte

// SeedBook is one entry of the seed file.
type SeedBook struct {
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Description     string  `json:"description"`
	PublicationYear *int    `json:"publication_year"`
	ISBN            *string `json:"isbn"`
	ImageURL        *string `json:"image_url"`
}

// seedOptions are the command-line settings of one seed run.
type seedOptions struct {
	source string
	user   service.RegisterInput
}

func main() {
	var opts seedOptions
	flag.StringVar(&opts.source, "books", "", "path or http(s) URL of a JSON book list (default: built-in list)")
	flag.StringVar(&opts.user.Username, "user", "demo", "username that will own the seeded books")
	flag.StringVar(&opts.user.Email, "email", "demo@example.com", "email for the seed user")
	flag.StringVar(&opts.user.Password, "password", "demo123", "password for the seed user")
	flag.Parse()
	opts.user.FullName = "Demo User"

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	log := logger.New(os.Stdout, cfg.IsDevelopment(), cfg.LogLevel)

	if err := run(context.Background(), cfg, opts, log); err != nil {
		log.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts seedOptions, log *slog.Logger) error {
	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN, false, log)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	defer sqlDB.Close()

	if err := db.Migrate(gormDB, false, log); err != nil {
		return err
	}

	books, err := loadBooks(opts.source)
	if err != nil {
		return fmt.Errorf("load books: %w", err)
	}
	log.Info("loaded seed books", slog.Int("count", len(books)))

	users := service.NewUserService(repository.NewUserRepository(gormDB), log)
	catalog := service.NewBookService(repository.NewBookRepository(gormDB), nil, log)

	owner, err := ensureUser(ctx, users, opts.user)
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	created, skipped, err := seedBooks(ctx, catalog, owner.ID, books)
	if err != nil {
		return fmt.Errorf("seed books: %w", err)
	}
	log.Info("seed completed",
		slog.String("owner", owner.Username),
		slog.Int("created", created),
		slog.Int("skipped", skipped),
	)
	return nil
}

// loadBooks reads the book list from a file, an http(s) URL, or the built-in list when source is empty.
func loadBooks(source string) ([]SeedBook, error) {
	var data []byte
	switch {
	case source == "":
		data = defaultBooks
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		body, err := fetch(source)
		if err != nil {
			return nil, err
		}
		data = body
	default:
		body, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", source, err)
		}
		data = body
	}

	var books []SeedBook
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return books, nil
}

func fetch(url string) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status code: %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// ensureUser registers the seed user, or reuses it when the credentials already match.
func ensureUser(ctx context.Context, users service.UserService, in service.RegisterInput) (*model.User, error) {
	user, err := users.Register(ctx, in)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrDuplicateIdentity) {
		return nil, err
	}
	user, err = users.VerifyCredentials(ctx, in.Username, in.Password)
	if err != nil {
		return nil, fmt.Errorf("seed user %q exists with different credentials: %w", in.Username, err)
	}
	return user, nil
}

// seedBooks creates each book under ownerID. Books whose ISBN is already present are skipped,
// as are ISBN-less books the owner already has under the same title and author.
func seedBooks(ctx context.Context, catalog service.BookService, ownerID uint, books []SeedBook) (created, skipped int, err error) {
	for _, b := range books {
		if b.ISBN == nil {
			owned, err := alreadyOwned(ctx, catalog, ownerID, b)
			if err != nil {
				return created, skipped, fmt.Errorf("look up %q: %w", b.Title, err)
			}
			if owned {
				skipped++
				continue
			}
		}

		_, err := catalog.Create(ctx, ownerID, &model.Book{
			Title:           b.Title,
			Author:          b.Author,
			Description:     b.Description,
			PublicationYear: b.PublicationYear,
			ISBN:            b.ISBN,
			ImageURL:        b.ImageURL,
		})
		switch {
		case err == nil:
			created++
		case errors.Is(err, apperrors.ErrDuplicateISBN):
			skipped++
		default:
			return created, skipped, fmt.Errorf("create %q: %w", b.Title, err)
		}
	}
	return created, skipped, nil
}

func alreadyOwned(ctx context.Context, catalog service.BookService, ownerID uint, b SeedBook) (bool, error) {
	matches, err := catalog.Search(ctx, ownerID, b.Title, service.Page{Limit: service.MaxPageLimit})
	if err != nil {
		return false, err
	}
	for _, m := range matches {
		if m.Title == b.Title && m.Author == b.Author {
			return true, nil
		}
	}
	return false, nil
}
