package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"library-lite/internal/domains/book/model"
	"library-lite/internal/domains/book/service"
	"library-lite/internal/shared/apperror"
	"library-lite/internal/shared/response"
	"library-lite/internal/shared/utils"
)

const maxCoverUpload = 5*1024*1024 + 1

type BookHandler struct {
	service service.ServiceInterface
}

func NewBookHandler(service service.ServiceInterface) *BookHandler {
	return &BookHandler{service: service}
}

// ListBooks handles GET /books
// Query: search, genre, authorId, author, language, available=true, sortBy, order, page, limit
func (h *BookHandler) ListBooks(c *gin.Context) {
	authorID, err := utils.ParseOptionalUUIDQuery(c, "authorId")
	if err != nil {
		response.Fail(c, err)
		return
	}
	available, _ := strconv.ParseBool(c.DefaultQuery("available", "false"))
	page, limit := utils.ParsePagination(c)

	books, total, err := h.service.ListBooks(c.Request.Context(), model.BookFilter{
		Search:    c.Query("search"),
		Genre:     c.Query("genre"),
		AuthorID:  authorID,
		Author:    c.Query("author"),
		Language:  c.Query("language"),
		Available: available,
		SortBy:    c.Query("sortBy"),
		Order:     c.Query("order"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, books, response.NewMeta(page, limit, total))
}

// GetBook handles GET /books/:id
func (h *BookHandler) GetBook(c *gin.Context) {
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	book, err := h.service.GetBook(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, book)
}

// CreateBook handles POST /books (librarian)
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req model.CreateBookRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	book, err := h.service.CreateBook(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, book)
}

// UpdateBook handles PUT /books/:id (librarian)
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req model.UpdateBookRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	book, err := h.service.UpdateBook(c.Request.Context(), id, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, book)
}

// DeleteBook handles DELETE /books/:id (admin)
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := h.service.DeleteBook(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Book deleted successfully"})
}

// UploadCover handles POST /books/:id/cover (librarian), multipart field "cover"
func (h *BookHandler) UploadCover(c *gin.Context) {
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}

	file, err := c.FormFile("cover")
	if err != nil {
		response.Fail(c, apperror.Validation("VALIDATION_ERROR", "Multipart field 'cover' is required"))
		return
	}
	f, err := file.Open()
	if err != nil {
		response.Fail(c, apperror.Internal(err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxCoverUpload))
	if err != nil {
		response.Fail(c, apperror.Internal(err))
		return
	}

	book, err := h.service.UploadCover(c.Request.Context(), id, data)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, book)
}

// ListAuthors handles GET /authors
func (h *BookHandler) ListAuthors(c *gin.Context) {
	page, limit := utils.ParsePagination(c)
	authors, total, err := h.service.ListAuthors(c.Request.Context(), model.AuthorFilter{
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, authors, response.NewMeta(page, limit, total))
}

// GetAuthor handles GET /authors/:id
func (h *BookHandler) GetAuthor(c *gin.Context) {
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	author, err := h.service.GetAuthor(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, author)
}

// CreateAuthor handles POST /authors (librarian)
func (h *BookHandler) CreateAuthor(c *gin.Context) {
	var req model.CreateAuthorRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	author, err := h.service.CreateAuthor(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, author)
}
