package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bookshelf/internal/auth"
	"bookshelf/internal/model"
	"bookshelf/internal/service"
)

// BookHandler serves the caller's book collection.
type BookHandler struct {
	svc service.BookService
}

// NewBookHandler creates a new book handler.
func NewBookHandler(svc service.BookService) *BookHandler {
	return &BookHandler{svc: svc}
}

// CreateBookRequest represents a new book.
type CreateBookRequest struct {
	Title           string  `json:"title" validate:"required,min=1,max=200"`
	Author          string  `json:"author" validate:"required,min=1,max=100"`
	Description     string  `json:"description" validate:"max=1000"`
	PublicationYear *int    `json:"publication_year" validate:"omitempty,min=1000,notfutureyear"`
	ISBN            *string `json:"isbn" validate:"omitempty,min=10,max=20"`
	ImageURL        *string `json:"image_url" validate:"omitempty,max=500,url"`
}

// UpdateBookRequest represents a partial book update. Absent fields are left untouched.
type UpdateBookRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=200"`
	Author          *string `json:"author" validate:"omitempty,min=1,max=100"`
	Description     *string `json:"description" validate:"omitempty,max=1000"`
	PublicationYear *int    `json:"publication_year" validate:"omitempty,min=1000,notfutureyear"`
	ISBN            *string `json:"isbn" validate:"omitempty,min=10,max=20"`
	ImageURL        *string `json:"image_url" validate:"omitempty,max=500,url"`
}

// PageQuery carries offset/limit query parameters.
type PageQuery struct {
	Skip  int `query:"skip" validate:"min=0"`
	Limit int `query:"limit" validate:"min=1,max=1000"`
}

// SearchQuery carries the search term and pagination.
type SearchQuery struct {
	Query string `query:"query" validate:"required,min=1,max=100"`
	PageQuery
}

func defaultPage() PageQuery {
	return PageQuery{Limit: service.DefaultPageLimit}
}

func (q PageQuery) page() service.Page {
	return service.Page{Skip: q.Skip, Limit: q.Limit}
}

// ListBooks godoc
// @Summary List own books
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size" default(100)
// @Success 200 {array} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /books [get]
func (h *BookHandler) ListBooks(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return respond(err)
	}
	q := defaultPage()
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	books, err := h.svc.List(c.Request().Context(), user.ID, q.page())
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, books)
}

// CreateBook godoc
// @Summary Add a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBookRequest true "Book"
// @Success 201 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /books [post]
func (h *BookHandler) CreateBook(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return respond(err)
	}
	var req CreateBookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	book, err := h.svc.Create(c.Request().Context(), user.ID, &model.Book{
		Title:           req.Title,
		Author:          req.Author,
		Description:     req.Description,
		PublicationYear: req.PublicationYear,
		ISBN:            req.ISBN,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusCreated, book)
}

// SearchBooks godoc
// @Summary Search own books by title or author
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param query query string true "Case-insensitive substring"
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size" default(100)
// @Success 200 {array} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /books/search [get]
func (h *BookHandler) SearchBooks(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return respond(err)
	}
	q := SearchQuery{PageQuery: defaultPage()}
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	books, err := h.svc.Search(c.Request().Context(), user.ID, q.Query, q.page())
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, books)
}

// GetBook godoc
// @Summary Get one of own books
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [get]
func (h *BookHandler) GetBook(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return respond(err)
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	book, err := h.svc.Get(c.Request().Context(), id, user.ID)
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, book)
}

// UpdateBook godoc
// @Summary Update one of own books
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param request body UpdateBookRequest true "Fields to change"
// @Success 200 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [put]
func (h *BookHandler) UpdateBook(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return respond(err)
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req UpdateBookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	book, err := h.svc.Update(c.Request().Context(), id, user.ID, model.BookPatch{
		Title:           req.Title,
		Author:          req.Author,
		Description:     req.Description,
		PublicationYear: req.PublicationYear,
		ISBN:            req.ISBN,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, book)
}

// DeleteBook godoc
// @Summary Delete one of own books
// @Tags books
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [delete]
func (h *BookHandler) DeleteBook(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return respond(err)
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), id, user.ID); err != nil {
		return respond(err)
	}
	return c.NoContent(http.StatusNoContent)
}
