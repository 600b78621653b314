package service

import (
	"context"
	"log/slog"

	apperrors "bookshelf/internal/errors"
	"bookshelf/internal/metrics"
	"bookshelf/internal/model"
	"bookshelf/internal/repository"
)

const (
	// DefaultPageLimit applies when a caller does not ask for a limit.
	DefaultPageLimit = 100
	// MaxPageLimit caps a single page.
	MaxPageLimit = 1000
)

// Page is an offset/limit window over an owner's books.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	return p
}

// BookService exposes owner-scoped book operations.
type BookService interface {
	Get(ctx context.Context, id, ownerID uint) (*model.Book, error)
	List(ctx context.Context, ownerID uint, page Page) ([]model.Book, error)
	Create(ctx context.Context, ownerID uint, book *model.Book) (*model.Book, error)
	Update(ctx context.Context, id, ownerID uint, patch model.BookPatch) (*model.Book, error)
	Delete(ctx context.Context, id, ownerID uint) error
	Search(ctx context.Context, ownerID uint, query string, page Page) ([]model.Book, error)
}

type bookService struct {
	repo    repository.BookRepository
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(repo repository.BookRepository, m *metrics.Metrics, log *slog.Logger) BookService {
	return &bookService{repo: repo, metrics: m, log: log}
}

func (s *bookService) Get(ctx context.Context, id, ownerID uint) (*model.Book, error) {
	return s.repo.Get(ctx, id, ownerID)
}

func (s *bookService) List(ctx context.Context, ownerID uint, page Page) ([]model.Book, error) {
	page = page.normalize()
	return s.repo.List(ctx, ownerID, page.Skip, page.Limit)
}

// Create stores the book under ownerID, ignoring any ID or owner set by the caller.
func (s *bookService) Create(ctx context.Context, ownerID uint, book *model.Book) (*model.Book, error) {
	book.ID = 0
	book.OwnerID = ownerID
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, err
	}
	s.metrics.ObserveBookMutation("create")
	s.log.DebugContext(ctx, "book created", slog.Uint64("book_id", uint64(book.ID)), slog.Uint64("owner_id", uint64(ownerID)))
	return book, nil
}

func (s *bookService) Update(ctx context.Context, id, ownerID uint, patch model.BookPatch) (*model.Book, error) {
	book, err := s.repo.Update(ctx, id, ownerID, patch)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveBookMutation("update")
	return book, nil
}

// Delete removes the book, or fails with ErrBookNotFound when the owner has no such book.
func (s *bookService) Delete(ctx context.Context, id, ownerID uint) error {
	deleted, err := s.repo.Delete(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.ErrBookNotFound
	}
	s.metrics.ObserveBookMutation("delete")
	s.log.DebugContext(ctx, "book deleted", slog.Uint64("book_id", uint64(id)), slog.Uint64("owner_id", uint64(ownerID)))
	return nil
}

func (s *bookService) Search(ctx context.Context, ownerID uint, query string, page Page) ([]model.Book, error) {
	page = page.normalize()
	return s.repo.Search(ctx, ownerID, query, page.Skip, page.Limit)
}
