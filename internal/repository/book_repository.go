package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "bookshelf/internal/errors"
	"bookshelf/internal/model"
)

// BookRepository defines owner-scoped book persistence. No method reads or
// writes a book whose owner_id differs from the ownerID it was given.
type BookRepository interface {
	Get(ctx context.Context, id, ownerID uint) (*model.Book, error)
	List(ctx context.Context, ownerID uint, skip, limit int) ([]model.Book, error)
	Create(ctx context.Context, book *model.Book) error
	Update(ctx context.Context, id, ownerID uint, patch model.BookPatch) (*model.Book, error)
	Delete(ctx context.Context, id, ownerID uint) (bool, error)
	Search(ctx context.Context, ownerID uint, query string, skip, limit int) ([]model.Book, error)
}

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository.
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// Get finds a book by ID under its owner.
func (r *bookRepository) Get(ctx context.Context, id, ownerID uint) (*model.Book, error) {
	return findOwned(r.db.WithContext(ctx), id, ownerID)
}

// List returns a page of the owner's books in insertion order.
func (r *bookRepository) List(ctx context.Context, ownerID uint, skip, limit int) ([]model.Book, error) {
	books := make([]model.Book, 0)
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Offset(skip).
		Limit(limit).
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

// Create inserts a book. An ISBN already used by any owner fails with ErrDuplicateISBN.
func (r *bookRepository) Create(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if book.ISBN != nil {
			taken, err := isbnTaken(tx, *book.ISBN, 0)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.ErrDuplicateISBN
			}
		}
		return normalizeBookErr(tx.Omit("Owner").Create(book).Error)
	})
}

// Update overwrites only the supplied fields and refreshes updated_at.
func (r *bookRepository) Update(ctx context.Context, id, ownerID uint, patch model.BookPatch) (*model.Book, error) {
	var updated *model.Book
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, err := findOwned(tx, id, ownerID)
		if err != nil {
			return err
		}

		if patch.ISBN != nil && (book.ISBN == nil || *book.ISBN != *patch.ISBN) {
			taken, err := isbnTaken(tx, *patch.ISBN, book.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.ErrDuplicateISBN
			}
		}

		columns := patch.Columns()
		columns["updated_at"] = time.Now()
		if err := tx.Model(&model.Book{}).
			Where("id = ? AND owner_id = ?", book.ID, ownerID).
			Updates(columns).Error; err != nil {
			return normalizeBookErr(err)
		}

		updated, err = findOwned(tx, id, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the owner's book and reports whether a row was found.
func (r *bookRepository) Delete(ctx context.Context, id, ownerID uint) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.Book{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// Search matches query case-insensitively as a substring of title or author.
// LIKE wildcards in the query are matched literally.
func (r *bookRepository) Search(ctx context.Context, ownerID uint, query string, skip, limit int) ([]model.Book, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	books := make([]model.Book, 0)
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(author) LIKE ? ESCAPE '!')", pattern, pattern).
		Order("id ASC").
		Offset(skip).
		Limit(limit).
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

func findOwned(db *gorm.DB, id, ownerID uint) (*model.Book, error) {
	var book model.Book
	if err := db.Where("id = ? AND owner_id = ?", id, ownerID).First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// isbnTaken checks every owner's books, skipping excludeID.
func isbnTaken(db *gorm.DB, isbn string, excludeID uint) (bool, error) {
	var count int64
	q := db.Model(&model.Book{}).Where("isbn = ?", isbn)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// normalizeBookErr keeps storage-engine text out of callers: the only unique
// index on books is isbn, anything else is a generic integrity failure.
func normalizeBookErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.ErrDuplicateISBN
	case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return apperrors.ErrStorageIntegrity
	default:
		return err
	}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
