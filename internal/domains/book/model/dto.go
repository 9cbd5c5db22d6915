package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"library-lite/internal/shared/utils"
)

type CreateBookRequest struct {
	Title         string    `json:"title"`
	ISBN          string    `json:"isbn"`
	AuthorID      uuid.UUID `json:"authorId"`
	Publisher     *string   `json:"publisher"`
	PublishedYear *int      `json:"publishedYear"`
	Edition       *string   `json:"edition"`
	Language      *string   `json:"language"`
	Pages         *int      `json:"pages"`
	Genre         []string  `json:"genre"`
	Tags          []string  `json:"tags"`
	TotalCopies   *int      `json:"totalCopies"`
	CoverURL      *string   `json:"coverUrl"`
	Description   *string   `json:"description"`
}

func (r *CreateBookRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.ISBN = NormalizeISBN(r.ISBN)

	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.ISBN, validation.Required, validation.Length(10, 13)),
		validation.Field(&r.AuthorID, validation.By(utils.RequiredUUID)),
		validation.Field(&r.PublishedYear, validation.NilOrNotEmpty, validation.Min(1000), validation.Max(time.Now().Year()+1)),
		validation.Field(&r.Pages, validation.NilOrNotEmpty, validation.Min(1)),
		validation.Field(&r.TotalCopies, validation.NilOrNotEmpty, validation.Min(1), validation.Max(10000)),
		validation.Field(&r.Genre, validation.Each(validation.Required, validation.Length(1, 50))),
		validation.Field(&r.Tags, validation.Each(validation.Required, validation.Length(1, 50))),
	)
}

type UpdateBookRequest struct {
	Title           *string    `json:"title"`
	ISBN            *string    `json:"isbn"`
	AuthorID        *uuid.UUID `json:"authorId"`
	Publisher       *string    `json:"publisher"`
	PublishedYear   *int       `json:"publishedYear"`
	Edition         *string    `json:"edition"`
	Language        *string    `json:"language"`
	Pages           *int       `json:"pages"`
	Genre           []string   `json:"genre"`
	Tags            []string   `json:"tags"`
	TotalCopies     *int       `json:"totalCopies"`
	AvailableCopies *int       `json:"availableCopies"`
	CoverURL        *string    `json:"coverUrl"`
	Description     *string    `json:"description"`
}

func (r *UpdateBookRequest) Validate() error {
	if r.ISBN != nil {
		isbn := NormalizeISBN(*r.ISBN)
		r.ISBN = &isbn
	}

	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 500)),
		validation.Field(&r.ISBN, validation.NilOrNotEmpty, validation.Length(10, 13)),
		validation.Field(&r.AuthorID, validation.When(r.AuthorID != nil, validation.By(utils.RequiredUUID))),
		validation.Field(&r.PublishedYear, validation.NilOrNotEmpty, validation.Min(1000), validation.Max(time.Now().Year()+1)),
		validation.Field(&r.Pages, validation.NilOrNotEmpty, validation.Min(1)),
		validation.Field(&r.TotalCopies, validation.NilOrNotEmpty, validation.Min(1), validation.Max(10000)),
		validation.Field(&r.AvailableCopies, validation.When(r.AvailableCopies != nil, validation.Min(0))),
		validation.Field(&r.Genre, validation.Each(validation.Required, validation.Length(1, 50))),
		validation.Field(&r.Tags, validation.Each(validation.Required, validation.Length(1, 50))),
	)
}

type CreateAuthorRequest struct {
	Name string  `json:"name"`
	Bio  *string `json:"bio"`
}

func (r *CreateAuthorRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Bio, validation.Length(0, 5000)),
	)
}

// NormalizeISBN bỏ dấu gạch và khoảng trắng
func NormalizeISBN(isbn string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(isbn))
}
